package ledger

import "budgetledger/internal/core"

// Options configures the ledgers and aggregators.
type Options struct {
	Clock          Clock
	CurrencySymbol string
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = systemClock
	}
	if o.CurrencySymbol == "" {
		o.CurrencySymbol = core.DefaultCurrencySymbol
	}
	return o
}
