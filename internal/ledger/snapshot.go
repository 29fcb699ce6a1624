package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budgetledger/internal/core"
)

// Snapshot is the budget card view of one month.
type Snapshot struct {
	Period     core.Period
	Month      string
	Income     decimal.Decimal
	Savings    decimal.Decimal
	Categories []core.CategoryAmount
}

// MonthSnapshot reads income and expenses concurrently and builds the card
// list: stored categories in insertion order, then any missing default
// category at zero, then Savings clamped at zero.
func MonthSnapshot(ctx context.Context, store Store, user core.UserID, period core.Period) (Snapshot, error) {
	var (
		income   *core.IncomeRecord
		expenses []core.ExpenseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := store.GetIncome(gctx, user, period)
		if err != nil {
			return core.StorageError("get income", err)
		}
		income = rec
		return nil
	})
	g.Go(func() error {
		recs, err := store.ListExpenses(gctx, user, period)
		if err != nil {
			return core.StorageError("list expenses", err)
		}
		expenses = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	amount := decimal.Zero
	if income != nil {
		amount = income.Amount
	}

	categories := make([]core.CategoryAmount, 0, len(expenses)+len(core.DefaultCategories)+1)
	present := make(map[string]struct{}, len(expenses))
	for _, e := range expenses {
		categories = append(categories, core.CategoryAmount{Category: e.Category, Amount: e.Amount})
		present[core.CategoryKey(e.Category)] = struct{}{}
	}
	for _, name := range core.DefaultCategories {
		if _, ok := present[core.CategoryKey(name)]; !ok {
			categories = append(categories, core.CategoryAmount{Category: name, Amount: decimal.Zero})
		}
	}

	savings := core.ClampZero(amount.Sub(core.SumAmounts(expenses)))
	categories = append(categories, core.CategoryAmount{Category: core.SavingsLabel, Amount: savings})

	return Snapshot{
		Period:     period,
		Month:      period.Label(),
		Income:     amount,
		Savings:    savings,
		Categories: categories,
	}, nil
}
