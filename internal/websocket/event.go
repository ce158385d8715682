package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeUpdated  EventType = "updated"
	EventTypeDeleted  EventType = "deleted"
	EventTypePaid     EventType = "paid"
	EventTypeReceived EventType = "received"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeExpense    EntityType = "expense"
	EntityTypeReceivable EntityType = "receivable"
	EntityTypeSettings   EntityType = "settings"
	EntityTypePerson     EntityType = "person"
	EntityTypeCategory   EntityType = "category"
)

// Event represents a message sent to realtime clients and the message bus
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "expense.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "expense"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseCreated creates an expense.created event
func ExpenseCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpense, payload)
}

// ExpenseUpdated creates an expense.updated event
func ExpenseUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeExpense, payload)
}

// ExpensePaid creates an expense.paid event
func ExpensePaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeExpense, payload)
}

// ExpenseDeleted creates an expense.deleted event
func ExpenseDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeExpense, payload)
}

// ReceivableCreated creates a receivable.created event
func ReceivableCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeReceivable, payload)
}

// ReceivableUpdated creates a receivable.updated event
func ReceivableUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeReceivable, payload)
}

// ReceivableReceived creates a receivable.received event
func ReceivableReceived(payload interface{}) Event {
	return NewEvent(EventTypeReceived, EntityTypeReceivable, payload)
}

// ReceivableDeleted creates a receivable.deleted event
func ReceivableDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeReceivable, payload)
}

// SettingsUpdated creates a settings.updated event
func SettingsUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSettings, payload)
}

// PersonCreated creates a person.created event
func PersonCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePerson, payload)
}

// PersonUpdated creates a person.updated event
func PersonUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePerson, payload)
}

// PersonDeleted creates a person.deleted event
func PersonDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypePerson, payload)
}

// CategoryCreated creates a category.created event
func CategoryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCategory, payload)
}

// CategoryUpdated creates a category.updated event
func CategoryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCategory, payload)
}

// CategoryDeleted creates a category.deleted event
func CategoryDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCategory, payload)
}
