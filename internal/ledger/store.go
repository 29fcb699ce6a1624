// Package ledger implements the income, expense and notification ledgers and
// the read-side aggregations built on top of them.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

// Store is the persistence contract the ledgers depend on. Implementations
// must make IncrementIncome and IncrementExpense atomic with respect to
// concurrent calls for the same key.
type Store interface {
	// GetIncome returns nil, nil when no income record exists.
	GetIncome(ctx context.Context, user core.UserID, period core.Period) (*core.IncomeRecord, error)
	UpsertIncome(ctx context.Context, user core.UserID, period core.Period, amount decimal.Decimal) error
	IncrementIncome(ctx context.Context, user core.UserID, period core.Period, delta decimal.Decimal) (decimal.Decimal, error)
	// SetActualSavings is a no-op when no income record exists.
	SetActualSavings(ctx context.Context, user core.UserID, period core.Period, value decimal.Decimal) error
	// MarkBudgeted stamps the income record with the planned income; expected
	// savings are stored only when valid.
	MarkBudgeted(ctx context.Context, user core.UserID, period core.Period, planned decimal.Decimal, expected decimal.NullDecimal, at time.Time) error

	// ListExpenses returns the period's records in insertion order.
	ListExpenses(ctx context.Context, user core.UserID, period core.Period) ([]core.ExpenseRecord, error)
	// GetExpense matches category case-insensitively and returns nil, nil when absent.
	GetExpense(ctx context.Context, user core.UserID, period core.Period, category string) (*core.ExpenseRecord, error)
	UpsertExpense(ctx context.Context, user core.UserID, period core.Period, category string, amount decimal.Decimal) error
	IncrementExpense(ctx context.Context, user core.UserID, period core.Period, category string, delta decimal.Decimal) (decimal.Decimal, error)
	InsertExpenses(ctx context.Context, user core.UserID, period core.Period, lines []core.CategoryAmount) error

	// AppendNotification assigns ID and returns the stored entry.
	AppendNotification(ctx context.Context, n core.Notification) (core.Notification, error)
	// ListNotifications returns entries created inside period, newest first.
	ListNotifications(ctx context.Context, user core.UserID, period core.Period) ([]core.Notification, error)

	// ListIncomeHistory and ListExpenseHistory return every record of the user, oldest period first.
	ListIncomeHistory(ctx context.Context, user core.UserID) ([]core.IncomeRecord, error)
	ListExpenseHistory(ctx context.Context, user core.UserID) ([]core.ExpenseRecord, error)
}

// Clock returns the current time. Ledgers take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// expenseTotal sums every expense line of the period.
func expenseTotal(ctx context.Context, store Store, user core.UserID, period core.Period) (decimal.Decimal, error) {
	records, err := store.ListExpenses(ctx, user, period)
	if err != nil {
		return decimal.Zero, core.StorageError("list expenses", err)
	}
	return core.SumAmounts(records), nil
}

// currentIncome returns the period's income, zero when absent.
func currentIncome(ctx context.Context, store Store, user core.UserID, period core.Period) (decimal.Decimal, error) {
	rec, err := store.GetIncome(ctx, user, period)
	if err != nil {
		return decimal.Zero, core.StorageError("get income", err)
	}
	if rec == nil {
		return decimal.Zero, nil
	}
	return rec.Amount, nil
}

// recomputeActualSavings writes income − Σ expenses onto the income record.
func recomputeActualSavings(ctx context.Context, store Store, user core.UserID, period core.Period) (decimal.Decimal, error) {
	income, err := currentIncome(ctx, store, user, period)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := expenseTotal(ctx, store, user, period)
	if err != nil {
		return decimal.Zero, err
	}
	actual := income.Sub(total)
	if err := store.SetActualSavings(ctx, user, period, actual); err != nil {
		return decimal.Zero, core.StorageError("set actual savings", err)
	}
	return actual, nil
}
