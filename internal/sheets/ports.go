package sheets

import (
	"context"

	"budgetledger/internal/core"
)

// NotificationExporter appends ledger notifications to an external sheet.
type NotificationExporter interface {
	// Export writes one row and returns a reference to it.
	Export(ctx context.Context, n core.Notification) (rowRef string, err error)
}

// Header is the column layout written by every exporter.
var Header = []string{"Created At", "User", "Type", "Category", "Amount", "Adjusted Savings", "Notes", "Message"}

// Row renders a notification in Header order.
func Row(n core.Notification) []string {
	return []string{
		n.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		core.FormatUserID(n.UserID),
		string(n.Type),
		n.Category,
		n.Amount.StringFixed(2),
		n.AdjustedSavings.StringFixed(2),
		n.Notes,
		n.Message,
	}
}
