package contracts

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventVersion is the envelope schema version stamped on every event.
// Consumers use it to evolve their decoders independently of publishers.
const EventVersion = "v1"

// EventEnvelope is the wire representation of a domain fact published to the
// topic exchange. Envelopes are immutable once constructed: EventID and
// Timestamp are assigned exactly once, at publish time, never by the caller.
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	EventVersion  string          `json:"eventVersion"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlationId,omitempty"`
	UserID        string          `json:"userId,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// EnvelopeOption configures envelope creation.
type EnvelopeOption func(*EventEnvelope)

// WithEnvelopeCorrelationID threads an end-to-end correlation ID through the envelope.
func WithEnvelopeCorrelationID(correlationID string) EnvelopeOption {
	return func(e *EventEnvelope) {
		e.CorrelationID = correlationID
	}
}

// WithEnvelopeUserID records the user that triggered the event.
func WithEnvelopeUserID(userID string) EnvelopeOption {
	return func(e *EventEnvelope) {
		e.UserID = userID
	}
}

// NewEventEnvelope builds an envelope for a domain payload. The payload is
// serialized under "data" and never validated here; its shape is owned by the
// publishing service. The routing key doubles as the event type.
func NewEventEnvelope(eventType, source string, payload interface{}, opts ...EnvelopeOption) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &SerializationError{EventType: eventType, Err: err}
	}

	env := &EventEnvelope{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventVersion: EventVersion,
		Timestamp:    time.Now().UTC(),
		Source:       source,
		Data:         data,
	}

	for _, opt := range opts {
		opt(env)
	}

	return env, nil
}

// DecodeData unmarshals the envelope payload into out.
func (e *EventEnvelope) DecodeData(out interface{}) error {
	return json.Unmarshal(e.Data, out)
}
