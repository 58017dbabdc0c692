package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

// Event represents a domain event. AggregateID is the document id for
// document events and the session id for chat events.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	AggregateID   string                 `json:"aggregate_id"`
	Workspace     string                 `json:"workspace,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, aggregateID, workspace string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, aggregateID, workspace, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, aggregateID, workspace string, payload map[string]interface{}, correlationID string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AggregateID:   aggregateID,
		Workspace:     workspace,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// PayloadDocument is the payload key carrying a *entity.Document snapshot
const PayloadDocument = "document"

// Document returns the document snapshot attached to document events
func (e *Event) Document() (*entity.Document, bool) {
	doc, ok := e.Payload[PayloadDocument].(*entity.Document)
	return doc, ok && doc != nil
}

// GetPayloadString retrieves a string value from the payload.
// Values implementing fmt.Stringer are converted.
func (e *Event) GetPayloadString(key string) string {
	switch v := e.Payload[key].(type) {
	case string:
		return v
	case interface{ String() string }:
		return v.String()
	}
	return ""
}
