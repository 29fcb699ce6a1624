package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
	"budgetledger/internal/storage/memory"
)

const testUser core.UserID = 7

type fixture struct {
	store    *memory.Store
	now      time.Time
	period   core.Period
	notes    *NotificationLedger
	income   *IncomeLedger
	expenses *ExpenseLedger
	summary  *SummaryAggregator
	chart    *ChartAggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		now:   time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	f.period = core.PeriodOf(f.now)
	opts := Options{
		Clock:          func() time.Time { return f.now },
		CurrencySymbol: "₦",
	}
	f.notes = NewNotificationLedger(f.store, opts)
	f.income = NewIncomeLedger(f.store, f.notes, opts)
	f.expenses = NewExpenseLedger(f.store, f.notes, opts)
	f.summary = NewSummaryAggregator(f.store, opts)
	f.chart = NewChartAggregator(f.store)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
