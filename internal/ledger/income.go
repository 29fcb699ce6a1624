package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

// MutationResult is returned by AddIncome and AddExpense.
type MutationResult struct {
	Message         string
	NewTotal        decimal.Decimal
	AdjustedSavings decimal.Decimal
	Notification    core.Notification
}

// IncomeLedger owns the monthly income record.
type IncomeLedger struct {
	store    Store
	notes    *NotificationLedger
	now      Clock
	currency string
}

func NewIncomeLedger(store Store, notes *NotificationLedger, opts Options) *IncomeLedger {
	opts = opts.withDefaults()
	return &IncomeLedger{store: store, notes: notes, now: opts.Clock, currency: opts.CurrencySymbol}
}

// CurrentIncome returns the period's income, zero when none was recorded.
func (l *IncomeLedger) CurrentIncome(ctx context.Context, user core.UserID, period core.Period) (decimal.Decimal, error) {
	return currentIncome(ctx, l.store, user, period)
}

// SetInitialIncome overwrites the period's income. The period stays in
// NoBudget until MarkBudgeted runs.
func (l *IncomeLedger) SetInitialIncome(ctx context.Context, user core.UserID, period core.Period, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	if err := l.store.UpsertIncome(ctx, user, period, amount); err != nil {
		return core.StorageError("upsert income", err)
	}

	slog.InfoContext(ctx, "Initial income set",
		"user_id", user,
		"period", period.String(),
		"income", amount.String())
	return nil
}

// MarkBudgeted records the planned income and expected savings and moves the
// period to Budgeted. It must be the last write of setBudget.
func (l *IncomeLedger) MarkBudgeted(ctx context.Context, user core.UserID, period core.Period, planned decimal.Decimal, expected decimal.NullDecimal) error {
	if planned.IsNegative() {
		return core.ErrInvalidAmount
	}
	if expected.Valid && expected.Decimal.IsNegative() {
		return core.ErrInvalidAmount
	}
	if err := l.store.MarkBudgeted(ctx, user, period, planned, expected, l.now().UTC()); err != nil {
		return core.StorageError("mark budgeted", err)
	}
	return nil
}

// AddIncome accumulates delta onto the income of the month containing at and
// records a notification stamped at.
func (l *IncomeLedger) AddIncome(ctx context.Context, user core.UserID, at time.Time, delta decimal.Decimal, notes string) (MutationResult, error) {
	notes = strings.TrimSpace(notes)
	if !delta.IsPositive() {
		return MutationResult{}, core.ErrInvalidIncome
	}
	if utf8.RuneCountInString(notes) > core.MaxNotesLength {
		return MutationResult{}, core.ErrNotesTooLong
	}
	at = at.UTC()
	period := core.PeriodOf(at)

	newIncome, err := l.store.IncrementIncome(ctx, user, period, delta)
	if err != nil {
		return MutationResult{}, core.StorageError("increment income", err)
	}

	total, err := expenseTotal(ctx, l.store, user, period)
	if err != nil {
		return MutationResult{}, err
	}
	adjusted := newIncome.Sub(total)

	message := incomeMessage(l.currency, delta, notes)
	n, err := l.notes.Record(ctx, user, Entry{
		Type:            core.NotificationIncome,
		At:              at,
		Notes:           notes,
		Message:         message,
		Amount:          delta,
		AdjustedSavings: adjusted,
	})
	if err != nil {
		return MutationResult{}, err
	}

	if err := l.store.SetActualSavings(ctx, user, period, adjusted); err != nil {
		return MutationResult{}, core.StorageError("set actual savings", err)
	}

	slog.InfoContext(ctx, "Income added",
		"user_id", user,
		"period", period.String(),
		"delta", delta.String(),
		"income", newIncome.String(),
		"adjusted_savings", adjusted.String())

	return MutationResult{
		Message:         message,
		NewTotal:        newIncome,
		AdjustedSavings: adjusted,
		Notification:    n,
	}, nil
}

func incomeMessage(currency string, amount decimal.Decimal, notes string) string {
	msg := "Income of " + currency + amount.String() + " added!"
	if notes != "" {
		msg += " Notes: " + notes
	}
	return msg
}
