package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted, ...)
type EventType string

const (
	EventTypeCreated     EventType = "created"
	EventTypeUpdated     EventType = "updated"
	EventTypeDeleted     EventType = "deleted"
	EventTypeRecalculate EventType = "recalculate"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypePlanning EntityType = "planning_transaction"
	EntityTypeBalance  EntityType = "balance"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "planning_transaction.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "planning_transaction"
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

// PlanningCreated creates a planning_transaction.created event
func PlanningCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePlanning, payload)
}

// PlanningUpdated creates a planning_transaction.updated event
func PlanningUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePlanning, payload)
}

// PlanningDeleted creates a planning_transaction.deleted event
func PlanningDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypePlanning, payload)
}

// BalanceRecalculate creates a balance.recalculate event. The payload
// carries no more than the reason string: consumers only need to know
// that something changed.
func BalanceRecalculate(reason string) Event {
	return NewEvent(EventTypeRecalculate, EntityTypeBalance, map[string]string{"reason": reason})
}
