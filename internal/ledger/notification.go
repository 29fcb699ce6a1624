package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

// NotificationLedger appends to and reads from a user's activity feed.
type NotificationLedger struct {
	store Store
	now   Clock
}

func NewNotificationLedger(store Store, opts Options) *NotificationLedger {
	opts = opts.withDefaults()
	return &NotificationLedger{store: store, now: opts.Clock}
}

// Entry is what callers supply to Record; the ID is assigned by the store.
// A zero At is stamped with the ledger clock.
type Entry struct {
	Type            core.NotificationType
	At              time.Time
	Category        string
	Notes           string
	Message         string
	Amount          decimal.Decimal
	AdjustedSavings decimal.Decimal
}

// Record appends one notification.
func (l *NotificationLedger) Record(ctx context.Context, user core.UserID, e Entry) (core.Notification, error) {
	if e.At.IsZero() {
		e.At = l.now()
	}
	n := core.Notification{
		UserID:          user,
		Type:            e.Type,
		Category:        e.Category,
		Notes:           e.Notes,
		Message:         e.Message,
		Amount:          e.Amount,
		AdjustedSavings: e.AdjustedSavings,
		CreatedAt:       e.At.UTC(),
	}
	if n.Type == core.NotificationIncome {
		n.Category = ""
	}

	stored, err := l.store.AppendNotification(ctx, n)
	if err != nil {
		return core.Notification{}, core.StorageError("append notification", err)
	}

	slog.DebugContext(ctx, "Notification recorded",
		"user_id", user,
		"notification_id", stored.ID,
		"type", stored.Type)
	return stored, nil
}

// ListForPeriod returns the period's notifications, newest first.
func (l *NotificationLedger) ListForPeriod(ctx context.Context, user core.UserID, period core.Period) ([]core.Notification, error) {
	items, err := l.store.ListNotifications(ctx, user, period)
	if err != nil {
		return nil, core.StorageError("list notifications", err)
	}
	if items == nil {
		items = []core.Notification{}
	}
	return items, nil
}
