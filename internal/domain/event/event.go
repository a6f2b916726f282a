package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Payload keys shared by publishers and subscribers
const (
	KeyKind      = "kind"
	KeyClient    = "client"
	KeyTotal     = "total" // int64 cents
	KeySourceID  = "source_id"
	KeyFrom      = "from"
	KeyTo        = "to"
	KeyDocuments = "documents"
	KeyFiles     = "files"
	KeyDir       = "dir"
)

// Event represents a change to the ledger or its exports
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	DocumentID    string                 `json:"document_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, documentID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, documentID, payload, GenerateID())
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// such as every document moved by one overdue sweep
func NewEventWithCorrelation(eventType Type, documentID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            GenerateID(),
		Type:          eventType,
		DocumentID:    documentID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with key set to value
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	c := *e
	c.Payload = newPayload
	return &c
}

// GetPayloadString retrieves a string value from the payload.
// Values of a named string type such as entity.Status are returned by their String method.
func (e *Event) GetPayloadString(key string) string {
	switch v := e.Payload[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// GenerateID creates a unique ID using timestamp and random bytes
func GenerateID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
