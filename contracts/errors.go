package contracts

import (
	"fmt"
)

// SerializationError indicates the event payload could not be serialized.
type SerializationError struct {
	EventType string
	Err       error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize payload for event %s: %v", e.EventType, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
