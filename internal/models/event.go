package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события торга
type EventType string

const (
	EventTypeOfferMade            EventType = "negotiation.offer_made"
	EventTypeNegotiationFinalized EventType = "negotiation.finalized"
	EventTypeOfferAccepted        EventType = "offer.accepted"
	EventTypeCodeIssued           EventType = "code.issued"
	EventTypeSessionExpired       EventType = "session.expired"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent создаёт событие с заполненными ID и временем.
func NewEvent(eventType EventType, sessionID string, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      data,
	}
}
