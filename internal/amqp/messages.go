package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a change to the ledger.
type EventType string

const (
	EventTransactionCreated  EventType = "transaction.created"
	EventTransactionUpdated  EventType = "transaction.updated"
	EventTransactionDeleted  EventType = "transaction.deleted"
	EventTransactionsCleared EventType = "transaction.cleared"
	EventTransactionsImport  EventType = "transaction.imported"
	EventCategoryCreated     EventType = "category.created"
)

// Known reports whether t is one of the published event types.
func (t EventType) Known() bool {
	switch t {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted,
		EventTransactionsCleared, EventTransactionsImport, EventCategoryCreated:
		return true
	}
	return false
}

// LedgerEvent is a lightweight change notification. Consumers re-read the
// store for details; the event carries only identifiers and counts.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	TransactionID string    `json:"transactionId,omitempty"`
	CategoryID    string    `json:"categoryId,omitempty"`
	Count         int       `json:"count,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(t EventType) LedgerEvent {
	return LedgerEvent{Type: t, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event. A missing type is an error.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	if e.Type == "" {
		return LedgerEvent{}, fmt.Errorf("ledger event without type")
	}
	return e, nil
}
