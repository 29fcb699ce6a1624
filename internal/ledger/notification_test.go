package ledger

import (
	"context"
	"testing"
	"time"

	"budgetledger/internal/core"
)

func TestListForPeriodNewestFirstAndFiltered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = time.Date(2025, time.February, 27, 9, 0, 0, 0, time.UTC)
	if _, err := f.notes.Record(ctx, testUser, Entry{Type: core.NotificationIncome, Message: "feb", Amount: dec("1")}); err != nil {
		t.Fatal(err)
	}
	f.now = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	if _, err := f.notes.Record(ctx, testUser, Entry{Type: core.NotificationExpense, Category: "Food", Message: "first", Amount: dec("2")}); err != nil {
		t.Fatal(err)
	}
	f.now = time.Date(2025, time.March, 20, 8, 0, 0, 0, time.UTC)
	if _, err := f.notes.Record(ctx, testUser, Entry{Type: core.NotificationIncome, Category: "ignored", Message: "second", Amount: dec("3")}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.notes.Record(ctx, testUser+1, Entry{Type: core.NotificationIncome, Message: "other user", Amount: dec("3")}); err != nil {
		t.Fatal(err)
	}

	items, err := f.notes.ListForPeriod(ctx, testUser, f.period)
	if err != nil {
		t.Fatalf("ListForPeriod() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 March notifications, got %d", len(items))
	}
	if items[0].Message != "second" || items[1].Message != "first" {
		t.Errorf("unexpected order: %q, %q", items[0].Message, items[1].Message)
	}
	if items[0].Category != "" {
		t.Errorf("income notifications carry no category, got %q", items[0].Category)
	}
}

func TestListForPeriodEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	items, err := f.notes.ListForPeriod(context.Background(), testUser, f.period)
	if err != nil {
		t.Fatal(err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty slice, got %#v", items)
	}
}
