// Package memory is an in-process ledger store used by tests and by
// DATA_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

type incomeKey struct {
	user   core.UserID
	period core.Period
}

type expenseKey struct {
	user     core.UserID
	period   core.Period
	category string
}

type exportState struct {
	ref string
	at  time.Time
}

type Store struct {
	mu sync.Mutex

	incomes      map[incomeKey]*core.IncomeRecord
	incomeOrder  []incomeKey
	expenses     []*core.ExpenseRecord
	expenseIndex map[expenseKey]int

	notifications []core.Notification
	exported      map[int64]exportState

	failures map[string]error
	now      func() time.Time
}

func New() *Store {
	return &Store{
		incomes:      make(map[incomeKey]*core.IncomeRecord),
		expenseIndex: make(map[expenseKey]int),
		exported:     make(map[int64]exportState),
		failures:     make(map[string]error),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
// Operation names match the method names, e.g. "InsertExpenses".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) GetIncome(_ context.Context, user core.UserID, period core.Period) (*core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetIncome"); err != nil {
		return nil, err
	}
	rec, ok := s.incomes[incomeKey{user, period}]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) incomeLocked(user core.UserID, period core.Period) *core.IncomeRecord {
	k := incomeKey{user, period}
	rec, ok := s.incomes[k]
	if !ok {
		rec = &core.IncomeRecord{UserID: user, Period: period, Amount: decimal.Zero, Planned: decimal.Zero}
		s.incomes[k] = rec
		s.incomeOrder = append(s.incomeOrder, k)
	}
	return rec
}

func (s *Store) UpsertIncome(_ context.Context, user core.UserID, period core.Period, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertIncome"); err != nil {
		return err
	}
	rec := s.incomeLocked(user, period)
	rec.Amount = amount
	rec.UpdatedAt = s.now()
	return nil
}

func (s *Store) IncrementIncome(_ context.Context, user core.UserID, period core.Period, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("IncrementIncome"); err != nil {
		return decimal.Zero, err
	}
	rec := s.incomeLocked(user, period)
	rec.Amount = rec.Amount.Add(delta)
	rec.UpdatedAt = s.now()
	return rec.Amount, nil
}

func (s *Store) SetActualSavings(_ context.Context, user core.UserID, period core.Period, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetActualSavings"); err != nil {
		return err
	}
	if rec, ok := s.incomes[incomeKey{user, period}]; ok {
		rec.ActualSavings = decimal.NewNullDecimal(value)
		rec.UpdatedAt = s.now()
	}
	return nil
}

func (s *Store) MarkBudgeted(_ context.Context, user core.UserID, period core.Period, planned decimal.Decimal, expected decimal.NullDecimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("MarkBudgeted"); err != nil {
		return err
	}
	rec := s.incomeLocked(user, period)
	rec.Planned = planned
	if expected.Valid {
		rec.ExpectedSavings = expected
	}
	if rec.BudgetedAt == nil {
		at = at.UTC()
		rec.BudgetedAt = &at
	}
	rec.UpdatedAt = s.now()
	return nil
}

func (s *Store) ListExpenses(_ context.Context, user core.UserID, period core.Period) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListExpenses"); err != nil {
		return nil, err
	}
	var out []core.ExpenseRecord
	for _, rec := range s.expenses {
		if rec.UserID == user && rec.Period == period {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, user core.UserID, period core.Period, category string) (*core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetExpense"); err != nil {
		return nil, err
	}
	i, ok := s.expenseIndex[expenseKey{user, period, core.CategoryKey(category)}]
	if !ok {
		return nil, nil
	}
	cp := *s.expenses[i]
	return &cp, nil
}

func (s *Store) expenseLocked(user core.UserID, period core.Period, category string) *core.ExpenseRecord {
	k := expenseKey{user, period, core.CategoryKey(category)}
	if i, ok := s.expenseIndex[k]; ok {
		return s.expenses[i]
	}
	rec := &core.ExpenseRecord{UserID: user, Period: period, Category: strings.TrimSpace(category), Amount: decimal.Zero}
	s.expenseIndex[k] = len(s.expenses)
	s.expenses = append(s.expenses, rec)
	return rec
}

func (s *Store) UpsertExpense(_ context.Context, user core.UserID, period core.Period, category string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertExpense"); err != nil {
		return err
	}
	rec := s.expenseLocked(user, period, category)
	rec.Amount = amount
	rec.UpdatedAt = s.now()
	return nil
}

func (s *Store) IncrementExpense(_ context.Context, user core.UserID, period core.Period, category string, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("IncrementExpense"); err != nil {
		return decimal.Zero, err
	}
	rec := s.expenseLocked(user, period, category)
	rec.Amount = rec.Amount.Add(delta)
	rec.UpdatedAt = s.now()
	return rec.Amount, nil
}

// InsertExpenses is all-or-nothing: an existing category fails the whole batch.
func (s *Store) InsertExpenses(_ context.Context, user core.UserID, period core.Period, lines []core.CategoryAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertExpenses"); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		key := core.CategoryKey(line.Category)
		if _, ok := s.expenseIndex[expenseKey{user, period, key}]; ok {
			return fmt.Errorf("expense %q already exists for %s", line.Category, period)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate expense %q in batch", line.Category)
		}
		seen[key] = struct{}{}
	}
	for _, line := range lines {
		rec := s.expenseLocked(user, period, line.Category)
		rec.Amount = line.Amount
		rec.UpdatedAt = s.now()
	}
	return nil
}

func (s *Store) AppendNotification(_ context.Context, n core.Notification) (core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AppendNotification"); err != nil {
		return core.Notification{}, err
	}
	n.ID = int64(len(s.notifications) + 1)
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, user core.UserID, period core.Period) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListNotifications"); err != nil {
		return nil, err
	}
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID == user && period.Contains(n.CreatedAt) {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

func (s *Store) ListIncomeHistory(_ context.Context, user core.UserID) ([]core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListIncomeHistory"); err != nil {
		return nil, err
	}
	var out []core.IncomeRecord
	for _, k := range s.incomeOrder {
		if k.user == user {
			out = append(out, *s.incomes[k])
		}
	}
	slices.SortStableFunc(out, func(a, b core.IncomeRecord) int { return comparePeriods(a.Period, b.Period) })
	return out, nil
}

func (s *Store) ListExpenseHistory(_ context.Context, user core.UserID) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListExpenseHistory"); err != nil {
		return nil, err
	}
	var out []core.ExpenseRecord
	for _, rec := range s.expenses {
		if rec.UserID == user {
			out = append(out, *rec)
		}
	}
	slices.SortStableFunc(out, func(a, b core.ExpenseRecord) int { return comparePeriods(a.Period, b.Period) })
	return out, nil
}

// GetNotification returns nil, nil for an unknown id.
func (s *Store) GetNotification(_ context.Context, id int64) (*core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetNotification"); err != nil {
		return nil, err
	}
	if id < 1 || id > int64(len(s.notifications)) {
		return nil, nil
	}
	n := s.notifications[id-1]
	return &n, nil
}

// ListPendingExports returns up to limit notifications with id > afterID not
// yet exported, oldest first.
func (s *Store) ListPendingExports(_ context.Context, afterID int64, limit int) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListPendingExports"); err != nil {
		return nil, err
	}
	var out []core.Notification
	for _, n := range s.notifications {
		if n.ID <= afterID {
			continue
		}
		if _, done := s.exported[n.ID]; done {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id int64, ref string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("MarkExported"); err != nil {
		return err
	}
	if id < 1 || id > int64(len(s.notifications)) {
		return fmt.Errorf("notification %d not found", id)
	}
	s.exported[id] = exportState{ref: ref, at: at.UTC()}
	return nil
}

func (s *Store) IsExported(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("IsExported"); err != nil {
		return false, err
	}
	_, ok := s.exported[id]
	return ok, nil
}

// ExportRef returns the reference recorded by MarkExported.
func (s *Store) ExportRef(id int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.exported[id]
	return st.ref, ok
}

func (s *Store) Close() error { return nil }

func comparePeriods(a, b core.Period) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}
