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

// ExpenseInput is a validated request to add spending to a category.
type ExpenseInput struct {
	Category    string
	SubCategory string
	Amount      decimal.Decimal
	Notes       string
}

// ExpenseLedger owns the per-category expense records.
type ExpenseLedger struct {
	store    Store
	notes    *NotificationLedger
	currency string
}

func NewExpenseLedger(store Store, notes *NotificationLedger, opts Options) *ExpenseLedger {
	opts = opts.withDefaults()
	return &ExpenseLedger{store: store, notes: notes, currency: opts.CurrencySymbol}
}

// NormalizeBudgetLines trims category names, clamps negative amounts to zero
// and rejects empty or duplicate categories. It never touches the store.
func NormalizeBudgetLines(lines []core.CategoryAmount) ([]core.CategoryAmount, error) {
	out := make([]core.CategoryAmount, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		name := strings.TrimSpace(line.Category)
		if name == "" {
			return nil, core.ErrEmptyCategory
		}
		if utf8.RuneCountInString(name) > core.MaxCategoryLength {
			return nil, core.ErrCategoryTooLong
		}
		key := core.CategoryKey(name)
		if _, dup := seen[key]; dup {
			return nil, core.ErrDuplicateCategory
		}
		seen[key] = struct{}{}
		out = append(out, core.CategoryAmount{Category: name, Amount: core.ClampZero(line.Amount)})
	}
	return out, nil
}

// BudgetExists reports whether the period has left the NoBudget state: either
// setBudget stamped the income record or some expense line already exists.
func (l *ExpenseLedger) BudgetExists(ctx context.Context, user core.UserID, period core.Period) (bool, error) {
	income, err := l.store.GetIncome(ctx, user, period)
	if err != nil {
		return false, core.StorageError("get income", err)
	}
	if income.Budgeted() {
		return true, nil
	}
	records, err := l.store.ListExpenses(ctx, user, period)
	if err != nil {
		return false, core.StorageError("list expenses", err)
	}
	return len(records) > 0, nil
}

// SubmitInitialBudget bulk-inserts the period's first category allocations
// and recomputes actual savings.
func (l *ExpenseLedger) SubmitInitialBudget(ctx context.Context, user core.UserID, period core.Period, lines []core.CategoryAmount) error {
	lines, err := NormalizeBudgetLines(lines)
	if err != nil {
		return err
	}

	if len(lines) > 0 {
		if err := l.store.InsertExpenses(ctx, user, period, lines); err != nil {
			return core.StorageError("insert expenses", err)
		}
	}

	actual, err := recomputeActualSavings(ctx, l.store, user, period)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Initial budget submitted",
		"user_id", user,
		"period", period.String(),
		"categories", len(lines),
		"actual_savings", actual.String())
	return nil
}

// AddExpense accumulates spending onto a category and records a notification.
// The catch-all "Others" category is replaced by the subcategory. The period
// and the notification timestamp both come from at.
func (l *ExpenseLedger) AddExpense(ctx context.Context, user core.UserID, at time.Time, in ExpenseInput) (MutationResult, error) {
	category, notes, err := validateExpense(in)
	if err != nil {
		return MutationResult{}, err
	}
	at = at.UTC()
	period := core.PeriodOf(at)

	newTotal, err := l.store.IncrementExpense(ctx, user, period, category, in.Amount)
	if err != nil {
		return MutationResult{}, core.StorageError("increment expense", err)
	}

	income, err := currentIncome(ctx, l.store, user, period)
	if err != nil {
		return MutationResult{}, err
	}
	total, err := expenseTotal(ctx, l.store, user, period)
	if err != nil {
		return MutationResult{}, err
	}
	adjusted := income.Sub(total)

	message := expenseMessage(l.currency, in.Amount, category, notes)
	n, err := l.notes.Record(ctx, user, Entry{
		Type:            core.NotificationExpense,
		At:              at,
		Category:        category,
		Notes:           notes,
		Message:         message,
		Amount:          in.Amount,
		AdjustedSavings: adjusted,
	})
	if err != nil {
		return MutationResult{}, err
	}

	if err := l.store.SetActualSavings(ctx, user, period, adjusted); err != nil {
		return MutationResult{}, core.StorageError("set actual savings", err)
	}

	slog.InfoContext(ctx, "Expense added",
		"user_id", user,
		"period", period.String(),
		"category", category,
		"amount", in.Amount.String(),
		"category_total", newTotal.String(),
		"adjusted_savings", adjusted.String())

	return MutationResult{
		Message:         message,
		NewTotal:        newTotal,
		AdjustedSavings: adjusted,
		Notification:    n,
	}, nil
}

func validateExpense(in ExpenseInput) (category, notes string, err error) {
	category = strings.TrimSpace(in.Category)
	notes = strings.TrimSpace(in.Notes)
	if category == "" || !in.Amount.IsPositive() {
		return "", "", core.ErrInvalidExpense
	}
	if core.IsOthers(category) {
		category = strings.TrimSpace(in.SubCategory)
		if category == "" {
			return "", "", core.ErrSubcategoryRequired
		}
	}
	if utf8.RuneCountInString(category) > core.MaxCategoryLength {
		return "", "", core.ErrCategoryTooLong
	}
	if utf8.RuneCountInString(notes) > core.MaxNotesLength {
		return "", "", core.ErrNotesTooLong
	}
	return category, notes, nil
}

func expenseMessage(currency string, amount decimal.Decimal, category, notes string) string {
	msg := "Expense of " + currency + amount.String() + " added to " + category
	if notes != "" {
		msg += " Notes: " + notes
	}
	return msg
}
