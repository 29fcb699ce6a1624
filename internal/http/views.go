package http

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
	"budgetledger/internal/ledger"
)

type categoryView struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

func snapshotFields(b *ResponseBuilder, s ledger.Snapshot) *ResponseBuilder {
	cats := make([]categoryView, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, categoryView{Name: c.Category, Amount: c.Amount})
	}
	return b.Field("month", s.Month).
		Field("period", s.Period.String()).
		Field("income", s.Income).
		Field("savings", s.Savings).
		Field("categories", cats)
}

type notificationView struct {
	ID              int64           `json:"id"`
	Type            string          `json:"type"`
	Category        *string         `json:"category"`
	Notes           *string         `json:"notes"`
	Message         string          `json:"message"`
	Amount          decimal.Decimal `json:"amount"`
	AdjustedSavings decimal.Decimal `json:"adjusted_savings"`
	CreatedAt       time.Time       `json:"created_at"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func notificationViews(ns []core.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationView{
			ID:              n.ID,
			Type:            string(n.Type),
			Category:        nullable(n.Category),
			Notes:           nullable(n.Notes),
			Message:         n.Message,
			Amount:          n.Amount,
			AdjustedSavings: n.AdjustedSavings,
			CreatedAt:       n.CreatedAt.UTC(),
		})
	}
	return out
}

type chartView struct {
	Months   []string                 `json:"months"`
	Expenses map[string]ledger.Series `json:"expenses"`
	Savings  struct {
		Expected ledger.Series `json:"expected"`
		Actual   ledger.Series `json:"actual"`
	} `json:"savings"`
}

func newChartView(c ledger.ChartData) chartView {
	v := chartView{Months: c.Months, Expenses: c.Expenses}
	if v.Expenses == nil {
		v.Expenses = map[string]ledger.Series{}
	}
	v.Savings.Expected = c.Expected
	v.Savings.Actual = c.Actual
	return v
}

type summaryView struct {
	Month            string                     `json:"month"`
	Period           string                     `json:"period"`
	Income           decimal.Decimal            `json:"income"`
	PlannedIncome    decimal.Decimal            `json:"planned_income"`
	ExtraIncome      decimal.Decimal            `json:"extra_income"`
	ExpectedSavings  decimal.Decimal            `json:"expected_savings"`
	ActualSavings    decimal.Decimal            `json:"actual_savings"`
	Expenses         decimal.Decimal            `json:"expenses"`
	ExpenseBreakdown map[string]decimal.Decimal `json:"expenseBreakdown"`
	IncomeNotes      []string                   `json:"incomeNotes"`
	SummaryText      string                     `json:"summaryText"`
}

func newSummaryView(s ledger.Summary) summaryView {
	notes := s.IncomeNotes
	if notes == nil {
		notes = []string{}
	}
	return summaryView{
		Month:            s.Month,
		Period:           s.Period.String(),
		Income:           s.TotalIncome,
		PlannedIncome:    s.PlannedIncome,
		ExtraIncome:      s.ExtraIncome,
		ExpectedSavings:  s.ExpectedSavings,
		ActualSavings:    s.ActualSavings,
		Expenses:         s.TotalExpenses,
		ExpenseBreakdown: s.BreakdownMap(),
		IncomeNotes:      notes,
		SummaryText:      s.Narrative,
	}
}
