package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Input limits applied before anything reaches the store.
const (
	MaxCategoryLength = 100
	MaxNotesLength    = 500
)

// OthersCategory is the catch-all that must be refined by a subcategory.
const OthersCategory = "others"

// DefaultCategories are always present in the month snapshot, zero-filled when absent.
var DefaultCategories = []string{"Rent", "Food", "Utilities", "Transportation"}

// SavingsLabel is the synthetic last entry of the snapshot category list.
const SavingsLabel = "Savings"

type (
	UserID int64

	NotificationType string

	// IncomeRecord holds the income of one user for one month. Amount
	// accumulates every income write; Planned is the figure given when the
	// month was budgeted.
	IncomeRecord struct {
		UserID          UserID
		Period          Period
		Amount          decimal.Decimal
		Planned         decimal.Decimal
		ExpectedSavings decimal.NullDecimal
		ActualSavings   decimal.NullDecimal
		BudgetedAt      *time.Time
		UpdatedAt       time.Time
	}

	// ExpenseRecord is the running total of one category in one month.
	ExpenseRecord struct {
		UserID    UserID
		Period    Period
		Category  string
		Amount    decimal.Decimal
		UpdatedAt time.Time
	}

	// Notification is an append-only entry in a user's activity feed.
	// Category is empty for income entries.
	Notification struct {
		ID              int64
		UserID          UserID
		Type            NotificationType
		Category        string
		Notes           string
		Message         string
		Amount          decimal.Decimal
		AdjustedSavings decimal.Decimal
		CreatedAt       time.Time
	}

	CategoryAmount struct {
		Category string
		Amount   decimal.Decimal
	}
)

const (
	NotificationIncome  NotificationType = "income"
	NotificationExpense NotificationType = "expense"
)

func (t NotificationType) Valid() bool {
	return t == NotificationIncome || t == NotificationExpense
}

// CategoryKey is the identity used to match categories: trimmed and lower-cased.
func CategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// IsOthers reports whether category names the catch-all bucket.
func IsOthers(category string) bool {
	return CategoryKey(category) == OthersCategory
}

// Budgeted reports whether the month was explicitly budgeted.
func (r *IncomeRecord) Budgeted() bool {
	return r != nil && r.BudgetedAt != nil
}

// SumAmounts totals the amounts of a set of expense records.
func SumAmounts(records []ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// FormatUserID renders a user id for logs and exports.
func FormatUserID(id UserID) string {
	return strconv.FormatInt(int64(id), 10)
}
