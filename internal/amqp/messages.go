package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published after ledger mutations.
const (
	EventTransactionAdded   = "transaction.added"
	EventTransactionRemoved = "transaction.removed"
	EventIncomeRequired     = "ledger.income_required"
)

// EventMessage describes one ledger change. Transaction fields describe the
// added or removed entry; Balance is the ledger balance after the change.
type EventMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Index     int             `json:"index"`
	Date      string          `json:"date,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Category  string          `json:"category,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Version   uint64          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEventMessage creates a message with a fresh ID and timestamp
func NewEventMessage(eventType string) *EventMessage {
	return &EventMessage{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("event message without type")
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("event message id: %w", err)
	}
	return &msg, nil
}
