package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budgetledger/internal/core"
)

// MonthLabels is the fixed chart axis.
var MonthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Series is a 12-slot month axis. An invalid slot means no data, which is
// distinct from a recorded zero.
type Series []decimal.NullDecimal

func newSeries() Series {
	return make(Series, len(MonthLabels))
}

// ChartData pivots a user's history onto the month axis. Records from
// different years share the same slot; later periods overwrite earlier ones.
type ChartData struct {
	Months     []string
	Categories []string
	Expenses   map[string]Series
	Expected   Series
	Actual     Series
}

// ChartAggregator builds ChartData from the full income and expense history.
type ChartAggregator struct {
	store Store
}

func NewChartAggregator(store Store) *ChartAggregator {
	return &ChartAggregator{store: store}
}

// BuildChart reads both histories concurrently and pivots them.
func (a *ChartAggregator) BuildChart(ctx context.Context, user core.UserID) (ChartData, error) {
	var (
		incomes  []core.IncomeRecord
		expenses []core.ExpenseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := a.store.ListIncomeHistory(gctx, user)
		if err != nil {
			return core.StorageError("list income history", err)
		}
		incomes = recs
		return nil
	})
	g.Go(func() error {
		recs, err := a.store.ListExpenseHistory(gctx, user)
		if err != nil {
			return core.StorageError("list expense history", err)
		}
		expenses = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return ChartData{}, err
	}

	return Pivot(incomes, expenses), nil
}

// Pivot places income and expense records into their month slots. Both
// slices are expected in ascending period order.
func Pivot(incomes []core.IncomeRecord, expenses []core.ExpenseRecord) ChartData {
	chart := ChartData{
		Months:     append([]string(nil), MonthLabels...),
		Categories: []string{},
		Expenses:   make(map[string]Series),
		Expected:   newSeries(),
		Actual:     newSeries(),
	}

	for _, rec := range incomes {
		slot := rec.Period.Slot()
		expected := decimal.Zero
		if rec.ExpectedSavings.Valid {
			expected = rec.ExpectedSavings.Decimal
		}
		chart.Expected[slot] = decimal.NewNullDecimal(expected)
		chart.Actual[slot] = decimal.NewNullDecimal(rec.Amount)
	}

	// series are keyed by the first spelling seen for a category
	names := make(map[string]string)
	for _, rec := range expenses {
		key := core.CategoryKey(rec.Category)
		name, ok := names[key]
		if !ok {
			name = rec.Category
			names[key] = name
			chart.Categories = append(chart.Categories, name)
			chart.Expenses[name] = newSeries()
		}
		chart.Expenses[name][rec.Period.Slot()] = decimal.NewNullDecimal(rec.Amount)
	}

	return chart
}
