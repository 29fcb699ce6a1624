// Package storage persists the ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000000"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// DSN adds the pragmas the repository relies on to a database path.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection serializes writers; increments rely on it
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(timeLayout)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// ---- income ----

const incomeColumns = `user_id, budget_month, income, planned, expected_savings, actual_savings, budgeted_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (core.IncomeRecord, error) {
	var (
		rec        core.IncomeRecord
		userID     int64
		month      string
		budgetedAt sql.NullString
		updatedAt  string
	)
	if err := row.Scan(&userID, &month, &rec.Amount, &rec.Planned, &rec.ExpectedSavings, &rec.ActualSavings, &budgetedAt, &updatedAt); err != nil {
		return core.IncomeRecord{}, err
	}
	period, err := core.ParsePeriod(month)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	rec.UserID = core.UserID(userID)
	rec.Period = period
	if budgetedAt.Valid {
		t, err := parseTime(budgetedAt.String)
		if err != nil {
			return core.IncomeRecord{}, fmt.Errorf("parse budgeted_at: %w", err)
		}
		rec.BudgetedAt = &t
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.IncomeRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, user core.UserID, period core.Period) (*core.IncomeRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM monthly_income WHERE user_id = ? AND budget_month = ?`,
		int64(user), period.Key())
	rec, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get income: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) UpsertIncome(ctx context.Context, user core.UserID, period core.Period, amount decimal.Decimal) error {
	now := r.stamp()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_income (user_id, budget_month, income, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, budget_month) DO UPDATE SET
			income = excluded.income,
			updated_at = excluded.updated_at`,
		int64(user), period.Key(), amount.String(), now, now)
	if err != nil {
		return fmt.Errorf("upsert income: %w", err)
	}
	slog.InfoContext(ctx, "Income saved to SQLite", "user_id", user, "period", period.String(), "income", amount.String())
	return nil
}

func (r *SQLiteRepository) IncrementIncome(ctx context.Context, user core.UserID, period core.Period, delta decimal.Decimal) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var current decimal.Decimal
		err := tx.QueryRowContext(ctx,
			`SELECT income FROM monthly_income WHERE user_id = ? AND budget_month = ?`,
			int64(user), period.Key()).Scan(&current)
		now := r.stamp()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			total = delta
			_, err = tx.ExecContext(ctx, `
				INSERT INTO monthly_income (user_id, budget_month, income, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				int64(user), period.Key(), total.String(), now, now)
			return err
		case err != nil:
			return err
		}
		total = current.Add(delta)
		_, err = tx.ExecContext(ctx,
			`UPDATE monthly_income SET income = ?, updated_at = ? WHERE user_id = ? AND budget_month = ?`,
			total.String(), now, int64(user), period.Key())
		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("increment income: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) SetActualSavings(ctx context.Context, user core.UserID, period core.Period, value decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE monthly_income SET actual_savings = ?, updated_at = ? WHERE user_id = ? AND budget_month = ?`,
		value.String(), r.stamp(), int64(user), period.Key())
	if err != nil {
		return fmt.Errorf("set actual savings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkBudgeted(ctx context.Context, user core.UserID, period core.Period, planned decimal.Decimal, expected decimal.NullDecimal, at time.Time) error {
	now := r.stamp()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_income (user_id, budget_month, planned, expected_savings, budgeted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, budget_month) DO UPDATE SET
			planned = excluded.planned,
			expected_savings = COALESCE(excluded.expected_savings, monthly_income.expected_savings),
			budgeted_at = COALESCE(monthly_income.budgeted_at, excluded.budgeted_at),
			updated_at = excluded.updated_at`,
		int64(user), period.Key(), planned.String(), expected, formatTime(at), now, now)
	if err != nil {
		return fmt.Errorf("mark budgeted: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListIncomeHistory(ctx context.Context, user core.UserID) ([]core.IncomeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM monthly_income WHERE user_id = ? ORDER BY budget_month ASC, id ASC`,
		int64(user))
	if err != nil {
		return nil, fmt.Errorf("list income history: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeRecord
	for rows.Next() {
		rec, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ---- expenses ----

const expenseColumns = `user_id, budget_month, category, amount, updated_at`

func scanExpense(row rowScanner) (core.ExpenseRecord, error) {
	var (
		rec       core.ExpenseRecord
		userID    int64
		month     string
		updatedAt string
	)
	if err := row.Scan(&userID, &month, &rec.Category, &rec.Amount, &updatedAt); err != nil {
		return core.ExpenseRecord{}, err
	}
	period, err := core.ParsePeriod(month)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	rec.UserID = core.UserID(userID)
	rec.Period = period
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, user core.UserID, period core.Period) ([]core.ExpenseRecord, error) {
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM budgets WHERE user_id = ? AND budget_month = ? ORDER BY id ASC`,
		int64(user), period.Key())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListExpenseHistory(ctx context.Context, user core.UserID) ([]core.ExpenseRecord, error) {
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM budgets WHERE user_id = ? ORDER BY budget_month ASC, id ASC`,
		int64(user))
	if err != nil {
		return nil, fmt.Errorf("list expense history: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, user core.UserID, period core.Period, category string) (*core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM budgets WHERE user_id = ? AND budget_month = ? AND category_key = ?`,
		int64(user), period.Key(), core.CategoryKey(category))
	rec, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) UpsertExpense(ctx context.Context, user core.UserID, period core.Period, category string, amount decimal.Decimal) error {
	now := r.stamp()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, budget_month, category, category_key, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, budget_month, category_key) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at`,
		int64(user), period.Key(), strings.TrimSpace(category), core.CategoryKey(category), amount.String(), now, now)
	if err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementExpense(ctx context.Context, user core.UserID, period core.Period, category string, delta decimal.Decimal) (decimal.Decimal, error) {
	key := core.CategoryKey(category)
	var total decimal.Decimal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var current decimal.Decimal
		err := tx.QueryRowContext(ctx,
			`SELECT amount FROM budgets WHERE user_id = ? AND budget_month = ? AND category_key = ?`,
			int64(user), period.Key(), key).Scan(&current)
		now := r.stamp()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			total = delta
			_, err = tx.ExecContext(ctx, `
				INSERT INTO budgets (user_id, budget_month, category, category_key, amount, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				int64(user), period.Key(), strings.TrimSpace(category), key, total.String(), now, now)
			return err
		case err != nil:
			return err
		}
		total = current.Add(delta)
		_, err = tx.ExecContext(ctx,
			`UPDATE budgets SET amount = ?, updated_at = ? WHERE user_id = ? AND budget_month = ? AND category_key = ?`,
			total.String(), now, int64(user), period.Key(), key)
		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("increment expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"user_id", user,
		"period", period.String(),
		"category", category,
		"total", total.String())
	return total, nil
}

func (r *SQLiteRepository) InsertExpenses(ctx context.Context, user core.UserID, period core.Period, lines []core.CategoryAmount) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO budgets (user_id, budget_month, category, category_key, amount, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := r.stamp()
		for _, line := range lines {
			if _, err := stmt.ExecContext(ctx,
				int64(user), period.Key(), strings.TrimSpace(line.Category), core.CategoryKey(line.Category), line.Amount.String(), now, now); err != nil {
				return fmt.Errorf("insert %q: %w", line.Category, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert expenses: %w", err)
	}
	return nil
}

// ---- notifications ----

const notificationColumns = `id, user_id, type, category, notes, message, amount, adjusted_savings, created_at`

func scanNotification(row rowScanner) (core.Notification, error) {
	var (
		n         core.Notification
		userID    int64
		typ       string
		category  sql.NullString
		notes     sql.NullString
		createdAt string
	)
	if err := row.Scan(&n.ID, &userID, &typ, &category, &notes, &n.Message, &n.Amount, &n.AdjustedSavings, &createdAt); err != nil {
		return core.Notification{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return core.Notification{}, fmt.Errorf("parse created_at: %w", err)
	}
	n.UserID = core.UserID(userID)
	n.Type = core.NotificationType(typ)
	n.Category = category.String
	n.Notes = notes.String
	n.CreatedAt = t
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *SQLiteRepository) AppendNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	if !n.Type.Valid() {
		return core.Notification{}, fmt.Errorf("append notification: unknown type %q", n.Type)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, category, notes, message, amount, adjusted_savings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(n.UserID), string(n.Type), nullString(n.Category), nullString(n.Notes), n.Message,
		n.Amount.String(), n.AdjustedSavings.String(), formatTime(n.CreatedAt))
	if err != nil {
		return core.Notification{}, fmt.Errorf("append notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	n.ID = id
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

func (r *SQLiteRepository) queryNotifications(ctx context.Context, query string, args ...any) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, user core.UserID, period core.Period) ([]core.Notification, error) {
	out, err := r.queryNotifications(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at DESC, id DESC`,
		int64(user), formatTime(period.Start()), formatTime(period.End()))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// GetNotification returns nil, nil for an unknown id.
func (r *SQLiteRepository) GetNotification(ctx context.Context, id int64) (*core.Notification, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

// ListPendingExports returns up to limit notifications with id > afterID not
// yet exported, oldest first.
func (r *SQLiteRepository) ListPendingExports(ctx context.Context, afterID int64, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	out, err := r.queryNotifications(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE exported_at IS NULL AND id > ?
		ORDER BY id ASC
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	return out, nil
}

// IsExported reports false for an unknown id.
func (r *SQLiteRepository) IsExported(ctx context.Context, id int64) (bool, error) {
	var done bool
	err := r.db.QueryRowContext(ctx,
		`SELECT exported_at IS NOT NULL FROM notifications WHERE id = ?`, id).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is exported: %w", err)
	}
	return done, nil
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64, ref string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET exported_at = ?, export_ref = ? WHERE id = ?`,
		formatTime(at), ref, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark exported: notification %d not found", id)
	}
	return nil
}
