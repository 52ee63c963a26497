package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation names the kind of write that changed an event.
type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// EventChangedMessage announces that a sales event was written. It carries
// only the ID; consumers reload whatever they need from the store.
type EventChangedMessage struct {
	EventID   string    `json:"event_id"`
	Operation Operation `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEventChangedMessage(eventID string, op Operation) *EventChangedMessage {
	return &EventChangedMessage{
		EventID:   eventID,
		Operation: op,
		Timestamp: time.Now(),
	}
}

func (m *EventChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventChangedMessageFromJSON(data []byte) (*EventChangedMessage, error) {
	var msg EventChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" {
		return nil, fmt.Errorf("event changed message: missing event_id")
	}
	switch msg.Operation {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("event changed message: unknown operation %q", msg.Operation)
	}
	return &msg, nil
}
