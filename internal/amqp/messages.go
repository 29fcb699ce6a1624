package amqp

import (
	"encoding/json"
	"time"

	"budgetledger/internal/core"
)

// LedgerEventMessage announces a new notification. It carries only ids; the
// consumer loads the full entry from the database.
type LedgerEventMessage struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	Type           string    `json:"type"`
	Period         string    `json:"period"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(n core.Notification) *LedgerEventMessage {
	return &LedgerEventMessage{
		NotificationID: n.ID,
		UserID:         int64(n.UserID),
		Type:           string(n.Type),
		Period:         core.PeriodOf(n.CreatedAt).String(),
		Timestamp:      time.Now().UTC(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
