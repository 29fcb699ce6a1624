package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
	"budgetledger/internal/ledger"
	"budgetledger/internal/storage/memory"
)

var _ ledger.Store = (*memory.Store)(nil)

func TestMemoryStoreIncrementAndList(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	p := core.PeriodOf(time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC))

	if _, err := s.IncrementExpense(ctx, 1, p, "Food", decimal.NewFromInt(3)); err != nil {
		t.Fatal(err)
	}
	total, err := s.IncrementExpense(ctx, 1, p, " FOOD", decimal.NewFromInt(4))
	if err != nil || !total.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("IncrementExpense() = %s, %v", total, err)
	}
	records, _ := s.ListExpenses(ctx, 1, p)
	if len(records) != 1 || records[0].Category != "Food" {
		t.Fatalf("ListExpenses() = %+v", records)
	}
}

func TestMemoryStoreFailOn(t *testing.T) {
	s := memory.New()
	boom := errors.New("boom")
	s.FailOn("GetIncome", boom)

	p := core.PeriodOf(time.Now())
	if _, err := s.GetIncome(context.Background(), 1, p); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	s.FailOn("GetIncome", nil)
	if _, err := s.GetIncome(context.Background(), 1, p); err != nil {
		t.Fatalf("failure should be cleared, got %v", err)
	}
}

func TestMemoryStoreExportTracking(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	n, err := s.AppendNotification(ctx, core.Notification{UserID: 1, Type: core.NotificationIncome, Message: "x", CreatedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	pending, _ := s.ListPendingExports(ctx, 0, 0)
	if len(pending) != 1 {
		t.Fatalf("expected one pending export, got %d", len(pending))
	}
	if err := s.MarkExported(ctx, n.ID, "mem:1", time.Now()); err != nil {
		t.Fatal(err)
	}
	if ref, ok := s.ExportRef(n.ID); !ok || ref != "mem:1" {
		t.Fatalf("ExportRef() = %q, %v", ref, ok)
	}
	pending, _ = s.ListPendingExports(ctx, 0, 0)
	if len(pending) != 0 {
		t.Fatal("exported notification should not be pending")
	}
}
