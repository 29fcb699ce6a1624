package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"budgetledger/internal/amqp"
	"budgetledger/internal/cache"
	"budgetledger/internal/core"
	"budgetledger/internal/ledger"
)

// EventPublisher announces new notifications to the export pipeline.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// Config wires the optional collaborators of BudgetService. Nil caches
// disable caching; a nil publisher disables ledger events.
type Config struct {
	CurrencySymbol string
	Clock          func() time.Time
	ChartCache     cache.Cache[ledger.ChartData]
	SummaryCache   cache.Cache[ledger.Summary]
	Publisher      EventPublisher
}

// BudgetRequest is the setBudget payload after decoding.
type BudgetRequest struct {
	Income          decimal.Decimal
	ExpectedSavings decimal.NullDecimal
	Categories      []core.CategoryAmount
}

// BudgetService exposes the ledger operations for one authenticated user at
// a time. The current period is always derived from the service clock.
type BudgetService struct {
	store     ledger.Store
	notes     *ledger.NotificationLedger
	income    *ledger.IncomeLedger
	expenses  *ledger.ExpenseLedger
	summaries *ledger.SummaryAggregator
	charts    *ledger.ChartAggregator

	chartCache   cache.Cache[ledger.ChartData]
	summaryCache cache.Cache[ledger.Summary]
	publisher    EventPublisher
	now          func() time.Time

	group       singleflight.Group
	budgetLocks sync.Map
	// gens holds a *atomic.Uint64 per user, bumped on every invalidation.
	gens sync.Map
}

func NewBudgetService(store ledger.Store, cfg Config) *BudgetService {
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	opts := ledger.Options{Clock: cfg.Clock, CurrencySymbol: cfg.CurrencySymbol}
	notes := ledger.NewNotificationLedger(store, opts)

	return &BudgetService{
		store:        store,
		notes:        notes,
		income:       ledger.NewIncomeLedger(store, notes, opts),
		expenses:     ledger.NewExpenseLedger(store, notes, opts),
		summaries:    ledger.NewSummaryAggregator(store, opts),
		charts:       ledger.NewChartAggregator(store),
		chartCache:   cfg.ChartCache,
		summaryCache: cfg.SummaryCache,
		publisher:    cfg.Publisher,
		now:          cfg.Clock,
	}
}

// CurrentPeriod is the calendar month of the service clock.
func (s *BudgetService) CurrentPeriod() core.Period {
	return core.PeriodOf(s.now())
}

// SetBudget records the month's income and its initial category allocation.
// It fails with core.ErrAlreadyBudgeted when the month has left NoBudget.
func (s *BudgetService) SetBudget(ctx context.Context, user core.UserID, req BudgetRequest) error {
	if req.Income.IsNegative() {
		return core.ErrInvalidIncome
	}
	if req.ExpectedSavings.Valid && req.ExpectedSavings.Decimal.IsNegative() {
		return core.ErrInvalidAmount
	}
	lines, err := ledger.NormalizeBudgetLines(req.Categories)
	if err != nil {
		return err
	}

	period := s.CurrentPeriod()
	unlock := s.lockBudget(user, period)
	defer unlock()

	exists, err := s.expenses.BudgetExists(ctx, user, period)
	if err != nil {
		return err
	}
	if exists {
		return core.ErrAlreadyBudgeted
	}

	// Marked last: until then a failed write leaves the month in NoBudget.
	if err := s.income.SetInitialIncome(ctx, user, period, req.Income); err != nil {
		return err
	}
	if err := s.expenses.SubmitInitialBudget(ctx, user, period, lines); err != nil {
		return err
	}
	if err := s.income.MarkBudgeted(ctx, user, period, req.Income, req.ExpectedSavings); err != nil {
		return err
	}

	s.invalidate(ctx, user)
	return nil
}

// lockBudget serializes the existence check and the writes of SetBudget for
// one (user, period) within this process.
func (s *BudgetService) lockBudget(user core.UserID, period core.Period) func() {
	key := fmt.Sprintf("%d:%s", user, period)
	mu, _ := s.budgetLocks.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *BudgetService) MonthSnapshot(ctx context.Context, user core.UserID) (ledger.Snapshot, error) {
	return ledger.MonthSnapshot(ctx, s.store, user, s.CurrentPeriod())
}

func (s *BudgetService) AddExpense(ctx context.Context, user core.UserID, in ledger.ExpenseInput) (ledger.MutationResult, error) {
	res, err := s.expenses.AddExpense(ctx, user, s.now(), in)
	if err != nil {
		return ledger.MutationResult{}, err
	}
	s.afterMutation(ctx, user, res.Notification)
	return res, nil
}

func (s *BudgetService) AddIncome(ctx context.Context, user core.UserID, amount decimal.Decimal, notes string) (ledger.MutationResult, error) {
	res, err := s.income.AddIncome(ctx, user, s.now(), amount, notes)
	if err != nil {
		return ledger.MutationResult{}, err
	}
	s.afterMutation(ctx, user, res.Notification)
	return res, nil
}

// Notifications lists the current month's feed, newest first.
func (s *BudgetService) Notifications(ctx context.Context, user core.UserID) ([]core.Notification, error) {
	return s.notes.ListForPeriod(ctx, user, s.CurrentPeriod())
}

func (s *BudgetService) Chart(ctx context.Context, user core.UserID) (ledger.ChartData, error) {
	return cachedView(ctx, s, s.chartCache, user, chartKey(user), func(ctx context.Context) (ledger.ChartData, error) {
		return s.charts.BuildChart(ctx, user)
	})
}

// MonthlySummary reports on period, or on the current month when period is
// the zero value.
func (s *BudgetService) MonthlySummary(ctx context.Context, user core.UserID, period core.Period) (ledger.Summary, error) {
	if period.IsZero() {
		period = s.CurrentPeriod()
	}
	return cachedView(ctx, s, s.summaryCache, user, summaryKey(user, period), func(ctx context.Context) (ledger.Summary, error) {
		return s.summaries.MonthlySummary(ctx, user, period)
	})
}

// cachedView serves key from c, building it at most once per generation.
// A build that overlaps an invalidation is returned but never cached.
func cachedView[T any](ctx context.Context, s *BudgetService, c cache.Cache[T], user core.UserID, key string, build func(context.Context) (T, error)) (T, error) {
	var zero T
	if c != nil {
		if v, ok := c.Get(ctx, key); ok {
			return v, nil
		}
	}

	gen := s.generation(user)
	start := gen.Load()
	v, err, _ := s.group.Do(fmt.Sprintf("%s@%d", key, start), func() (any, error) {
		data, err := build(ctx)
		if err != nil {
			return zero, err
		}
		if c != nil && gen.Load() == start {
			c.Set(ctx, key, data)
			if gen.Load() != start {
				c.Delete(ctx, key)
			}
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func (s *BudgetService) generation(user core.UserID) *atomic.Uint64 {
	g, _ := s.gens.LoadOrStore(user, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// Ping reports whether the store is reachable, when it can tell.
func (s *BudgetService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *BudgetService) afterMutation(ctx context.Context, user core.UserID, n core.Notification) {
	s.invalidate(ctx, user)

	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping ledger event",
			"notification_id", n.ID)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEventMessage(n)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"notification_id", n.ID,
			"user_id", user,
			"error", err)
	}
}

func (s *BudgetService) invalidate(ctx context.Context, user core.UserID) {
	s.generation(user).Add(1)
	prefix := userPrefix(user)
	if s.chartCache != nil {
		s.chartCache.DeletePrefix(ctx, prefix)
	}
	if s.summaryCache != nil {
		s.summaryCache.DeletePrefix(ctx, prefix)
	}
}

// userPrefix wraps the user id in a Redis hash tag so all of a user's keys
// land in one cluster slot.
func userPrefix(user core.UserID) string {
	return "{" + core.FormatUserID(user) + "}:"
}

func chartKey(user core.UserID) string {
	return userPrefix(user) + "chart"
}

func summaryKey(user core.UserID, period core.Period) string {
	return userPrefix(user) + "summary:" + period.String()
}

// Close releases the store and the publisher when they hold resources.
func (s *BudgetService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
