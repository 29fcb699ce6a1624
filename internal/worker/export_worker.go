package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"budgetledger/internal/amqp"
	"budgetledger/internal/core"
	"budgetledger/internal/sheets"
)

// ExportStore is the slice of the ledger store the export worker needs.
type ExportStore interface {
	GetNotification(ctx context.Context, id int64) (*core.Notification, error)
	IsExported(ctx context.Context, id int64) (bool, error)
	ListPendingExports(ctx context.Context, afterID int64, limit int) ([]core.Notification, error)
	MarkExported(ctx context.Context, id int64, ref string, at time.Time) error
}

// ExportWorker copies ledger notifications to a spreadsheet.
type ExportWorker struct {
	store     ExportStore
	exporter  sheets.NotificationExporter
	batchSize int
	now       func() time.Time

	// cursor is the last id the sweep looked at; it wraps to 0 once the
	// sweep reaches the end of the pending list.
	cursor atomic.Int64
}

func NewExportWorker(store ExportStore, exporter sheets.NotificationExporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleLedgerEvent exports the notification named by an AMQP message.
// Unknown or already exported notifications are acknowledged without work.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"notification_id", msg.NotificationID,
		"user_id", msg.UserID,
		"type", msg.Type)

	n, err := w.store.GetNotification(ctx, msg.NotificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n == nil {
		slog.WarnContext(ctx, "Notification not found, dropping event", "notification_id", msg.NotificationID)
		return nil
	}

	done, err := w.store.IsExported(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("check export state: %w", err)
	}
	if done {
		slog.DebugContext(ctx, "Notification already exported", "notification_id", n.ID)
		return nil
	}

	return w.export(ctx, *n)
}

// ProcessPendingExports exports the next batch of notifications that were
// missed by the queue and returns the number exported. Successive calls walk
// the pending list by id, so notifications that keep failing are retried on
// the next pass instead of blocking newer ones.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) (int, error) {
	after := w.cursor.Load()
	pending, err := w.store.ListPendingExports(ctx, after, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) < w.batchSize {
		w.cursor.Store(0)
	} else {
		w.cursor.Store(pending[len(pending)-1].ID)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	exported := 0
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.export(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to export notification", "notification_id", n.ID, "error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

// Run drains pending exports every interval until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if _, err := w.ProcessPendingExports(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPendingExports(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, n core.Notification) error {
	ref, err := w.exporter.Export(ctx, n)
	if err != nil {
		return fmt.Errorf("export notification %d: %w", n.ID, err)
	}
	if err := w.store.MarkExported(ctx, n.ID, ref, w.now()); err != nil {
		return fmt.Errorf("mark exported %d: %w", n.ID, err)
	}
	slog.InfoContext(ctx, "Exported notification", "notification_id", n.ID, "ref", ref)
	return nil
}
