package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

func TestMonthlySummaryNarrative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.income.SetInitialIncome(ctx, testUser, f.period, dec("1000")); err != nil {
		t.Fatal(err)
	}
	if err := f.income.MarkBudgeted(ctx, testUser, f.period, dec("1000"), decimal.NewNullDecimal(dec("200"))); err != nil {
		t.Fatal(err)
	}
	steps := []ExpenseInput{
		{Category: "Food", Amount: dec("50")},
		{Category: "Rent", Amount: dec("400")},
		{Category: "food", Amount: dec("100")},
	}
	for _, in := range steps {
		f.now = f.now.Add(time.Minute)
		if _, err := f.expenses.AddExpense(ctx, testUser, f.now, in); err != nil {
			t.Fatal(err)
		}
	}
	f.now = f.now.Add(time.Minute)
	if _, err := f.income.AddIncome(ctx, testUser, f.now, dec("250"), "bonus"); err != nil {
		t.Fatal(err)
	}

	s, err := f.summary.MonthlySummary(ctx, testUser, f.period)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}

	assertDecimal(t, "TotalIncome", s.TotalIncome, "1250")
	assertDecimal(t, "ExpectedSavings", s.ExpectedSavings, "200")
	assertDecimal(t, "TotalExpenses", s.TotalExpenses, "550")
	assertDecimal(t, "ActualSavings", s.ActualSavings, "700")

	breakdown := s.BreakdownMap()
	assertDecimal(t, "Food", breakdown["Food"], "150")
	assertDecimal(t, "Rent", breakdown["Rent"], "400")
	if s.Breakdown[0].Count != 2 {
		t.Errorf("Food count = %d, want 2", s.Breakdown[0].Count)
	}

	want := "In March 2025, your highest expense was in Rent (₦400.00) while your lowest was in Food (₦150.00). " +
		"You logged expenses in: Food (2 times, total ₦150.00), Rent (1 times, total ₦400.00). " +
		"You added extra income of ₦250.00. " +
		"Income notes: bonus. " +
		"Your expected savings was ₦200.00, and your actual savings ended at ₦700.00."
	if s.Narrative != want {
		t.Errorf("Narrative =\n%s\nwant\n%s", s.Narrative, want)
	}
}

func TestMonthlySummaryEmptyMonth(t *testing.T) {
	f := newFixture(t)
	s, err := f.summary.MonthlySummary(context.Background(), testUser, f.period)
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	want := "Your expected savings was ₦0.00, and your actual savings ended at ₦0.00."
	if s.Narrative != want {
		t.Errorf("Narrative = %q, want %q", s.Narrative, want)
	}
	if len(s.Breakdown) != 0 {
		t.Errorf("expected empty breakdown, got %+v", s.Breakdown)
	}
}

func TestMonthlySummaryTiesKeepFirstSeen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, cat := range []string{"Food", "Rent"} {
		f.now = f.now.Add(time.Minute)
		if _, err := f.expenses.AddExpense(ctx, testUser, f.now, ExpenseInput{Category: cat, Amount: dec("100")}); err != nil {
			t.Fatal(err)
		}
	}
	s, err := f.summary.MonthlySummary(ctx, testUser, f.period)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s.Narrative, "highest expense was in Food (₦100.00) while your lowest was in Food (₦100.00)") {
		t.Errorf("unexpected narrative %q", s.Narrative)
	}
	if strings.Contains(s.Narrative, "extra income") || strings.Contains(s.Narrative, "Income notes") {
		t.Errorf("income clauses should be omitted: %q", s.Narrative)
	}
	assertDecimal(t, "ActualSavings", s.ActualSavings, "-200")
}

func TestMonthlySummaryOtherPeriodIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.expenses.AddExpense(ctx, testUser, f.now, ExpenseInput{Category: "Food", Amount: dec("10")}); err != nil {
		t.Fatal(err)
	}
	feb, _ := core.NewPeriod(2025, time.February)
	s, err := f.summary.MonthlySummary(ctx, testUser, feb)
	if err != nil {
		t.Fatal(err)
	}
	if s.Month != "February 2025" || len(s.Breakdown) != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
