package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budgetledger/internal/core"
)

// CategoryStat aggregates the expense notifications of one category.
type CategoryStat struct {
	Category string
	Count    int
	Total    decimal.Decimal
}

// Summary is the monthly report with its narrative text.
type Summary struct {
	Period          core.Period
	Month           string
	PlannedIncome   decimal.Decimal
	TotalIncome     decimal.Decimal
	ExpectedSavings decimal.Decimal
	ActualSavings   decimal.Decimal
	TotalExpenses   decimal.Decimal
	ExtraIncome     decimal.Decimal
	IncomeNotes     []string
	Breakdown       []CategoryStat
	Narrative       string
}

// BreakdownMap returns category -> total for serialization.
func (s Summary) BreakdownMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s.Breakdown))
	for _, stat := range s.Breakdown {
		m[stat.Category] = stat.Total
	}
	return m
}

// SummaryAggregator builds monthly summaries from the ledgers' records.
type SummaryAggregator struct {
	store    Store
	currency string
}

func NewSummaryAggregator(store Store, opts Options) *SummaryAggregator {
	opts = opts.withDefaults()
	return &SummaryAggregator{store: store, currency: opts.CurrencySymbol}
}

// MonthlySummary loads the period's income record and notifications and
// renders the report. Expense figures come from the notification feed;
// categories are grouped in chronological first-seen order.
func (a *SummaryAggregator) MonthlySummary(ctx context.Context, user core.UserID, period core.Period) (Summary, error) {
	var (
		income        *core.IncomeRecord
		notifications []core.Notification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := a.store.GetIncome(gctx, user, period)
		if err != nil {
			return core.StorageError("get income", err)
		}
		income = rec
		return nil
	})
	g.Go(func() error {
		items, err := a.store.ListNotifications(gctx, user, period)
		if err != nil {
			return core.StorageError("list notifications", err)
		}
		notifications = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := Summary{
		Period:          period,
		Month:           period.Label(),
		PlannedIncome:   decimal.Zero,
		ExpectedSavings: decimal.Zero,
		TotalExpenses:   decimal.Zero,
		ExtraIncome:     decimal.Zero,
	}
	if income != nil {
		s.PlannedIncome = income.Planned
		if income.ExpectedSavings.Valid {
			s.ExpectedSavings = income.ExpectedSavings.Decimal
		}
	}

	chronological := slices.Clone(notifications)
	slices.Reverse(chronological)

	index := make(map[string]int)
	for _, n := range chronological {
		switch n.Type {
		case core.NotificationExpense:
			if n.Category == "" {
				continue
			}
			key := core.CategoryKey(n.Category)
			i, ok := index[key]
			if !ok {
				i = len(s.Breakdown)
				index[key] = i
				s.Breakdown = append(s.Breakdown, CategoryStat{Category: n.Category, Total: decimal.Zero})
			}
			s.Breakdown[i].Count++
			s.Breakdown[i].Total = s.Breakdown[i].Total.Add(n.Amount)
			s.TotalExpenses = s.TotalExpenses.Add(n.Amount)
		case core.NotificationIncome:
			s.ExtraIncome = s.ExtraIncome.Add(n.Amount)
			if notes := strings.TrimSpace(n.Notes); notes != "" {
				s.IncomeNotes = append(s.IncomeNotes, notes)
			}
		}
	}

	s.TotalIncome = s.PlannedIncome.Add(s.ExtraIncome)
	s.ActualSavings = s.TotalIncome.Sub(s.TotalExpenses)
	s.Narrative = a.narrative(s)
	return s, nil
}

func (a *SummaryAggregator) narrative(s Summary) string {
	money := func(d decimal.Decimal) string { return core.FormatCurrency(a.currency, d) }

	var parts []string
	if len(s.Breakdown) > 0 {
		hi, lo := s.Breakdown[0], s.Breakdown[0]
		for _, stat := range s.Breakdown[1:] {
			if stat.Total.GreaterThan(hi.Total) {
				hi = stat
			}
			if stat.Total.LessThan(lo.Total) {
				lo = stat
			}
		}
		parts = append(parts, fmt.Sprintf("In %s, your highest expense was in %s (%s) while your lowest was in %s (%s).",
			s.Month, hi.Category, money(hi.Total), lo.Category, money(lo.Total)))

		logged := make([]string, 0, len(s.Breakdown))
		for _, stat := range s.Breakdown {
			logged = append(logged, fmt.Sprintf("%s (%d times, total %s)", stat.Category, stat.Count, money(stat.Total)))
		}
		parts = append(parts, "You logged expenses in: "+strings.Join(logged, ", ")+".")
	}
	if s.ExtraIncome.IsPositive() {
		parts = append(parts, fmt.Sprintf("You added extra income of %s.", money(s.ExtraIncome)))
	}
	if len(s.IncomeNotes) > 0 {
		parts = append(parts, "Income notes: "+strings.Join(s.IncomeNotes, "; ")+".")
	}
	parts = append(parts, fmt.Sprintf("Your expected savings was %s, and your actual savings ended at %s.",
		money(s.ExpectedSavings), money(s.ActualSavings)))

	return strings.Join(parts, " ")
}
