package ledger

import (
	"context"
	"testing"

	"budgetledger/internal/core"
)

func TestMonthSnapshotPadsDefaultsAndAppendsSavings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.income.SetInitialIncome(ctx, testUser, f.period, dec("1000")); err != nil {
		t.Fatal(err)
	}
	if err := f.expenses.SubmitInitialBudget(ctx, testUser, f.period, []core.CategoryAmount{
		{Category: "Gym", Amount: dec("50")},
		{Category: "food", Amount: dec("150")},
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := MonthSnapshot(ctx, f.store, testUser, f.period)
	if err != nil {
		t.Fatalf("MonthSnapshot() error = %v", err)
	}
	if snap.Month != "March 2025" {
		t.Errorf("Month = %q", snap.Month)
	}
	assertDecimal(t, "Income", snap.Income, "1000")
	assertDecimal(t, "Savings", snap.Savings, "800")

	want := []string{"Gym", "food", "Rent", "Utilities", "Transportation", "Savings"}
	if len(snap.Categories) != len(want) {
		t.Fatalf("categories = %+v", snap.Categories)
	}
	for i, name := range want {
		if snap.Categories[i].Category != name {
			t.Errorf("category[%d] = %q, want %q", i, snap.Categories[i].Category, name)
		}
	}
	last := snap.Categories[len(snap.Categories)-1]
	assertDecimal(t, "Savings entry", last.Amount, "800")
}

func TestMonthSnapshotEmptyPeriod(t *testing.T) {
	f := newFixture(t)
	snap, err := MonthSnapshot(context.Background(), f.store, testUser, f.period)
	if err != nil {
		t.Fatalf("MonthSnapshot() error = %v", err)
	}
	assertDecimal(t, "Income", snap.Income, "0")
	if len(snap.Categories) != len(core.DefaultCategories)+1 {
		t.Fatalf("expected defaults plus Savings, got %+v", snap.Categories)
	}
	for _, c := range snap.Categories {
		if !c.Amount.IsZero() {
			t.Errorf("%s should be zero, got %s", c.Category, c.Amount)
		}
	}
}

func TestMonthSnapshotClampsSavings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.expenses.AddExpense(ctx, testUser, f.now, ExpenseInput{Category: "Rent", Amount: dec("700")}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.income.AddIncome(ctx, testUser, f.now, dec("500"), ""); err != nil {
		t.Fatal(err)
	}
	snap, err := MonthSnapshot(ctx, f.store, testUser, f.period)
	if err != nil {
		t.Fatal(err)
	}
	assertDecimal(t, "Savings", snap.Savings, "0")
}
