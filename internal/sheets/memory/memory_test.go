package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

func TestExporterAppendsRows(t *testing.T) {
	e := New()
	n := core.Notification{
		ID:              1,
		UserID:          7,
		Type:            core.NotificationExpense,
		Category:        "Food",
		Message:         "Expense of ₦50 added to Food",
		Amount:          decimal.NewFromInt(50),
		AdjustedSavings: decimal.RequireFromString("-12.5"),
		CreatedAt:       time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC),
	}

	ref, err := e.Export(context.Background(), n)
	if err != nil || ref != "mem:1" {
		t.Fatalf("Export() = %q, %v", ref, err)
	}
	rows := e.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	want := []string{"2025-03-02 10:00:00", "7", "expense", "Food", "50.00", "-12.50", "", "Expense of ₦50 added to Food"}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, rows[0][i], want[i])
		}
	}
}
