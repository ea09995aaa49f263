package log

import (
	"strings"
	"time"
)

// MaxCapturedBytes limits the raw bytes stored per feedback event.
const MaxCapturedBytes = 256

// Event represents a protocol capture event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the physical connection (UUID). Empty while
	// disconnected.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// RemoteAddr describes the controller endpoint.
	RemoteAddr string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Command     *CommandEvent     `cbor:"10,keyasint,omitempty"`
	Feedback    *FeedbackEvent    `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the controller.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the controller.
	DirectionOut Direction = 1
	// DirectionLocal indicates a session-internal event.
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a move command.
	CategoryCommand Category = 0
	// CategoryFeedback indicates bytes drained from the controller.
	CategoryFeedback Category = 1
	// CategoryState indicates a connection state change.
	CategoryState Category = 2
	// CategoryError indicates a transport error.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryFeedback:
		return "FEEDBACK"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category with the given name (case-insensitive
// names as returned by String).
func ParseCategory(name string) (Category, bool) {
	for c := CategoryCommand; c <= CategoryError; c++ {
		if strings.EqualFold(c.String(), name) {
			return c, true
		}
	}
	return 0, false
}

// ParseDirection returns the direction with the given name.
func ParseDirection(name string) (Direction, bool) {
	for d := DirectionIn; d <= DirectionLocal; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return 0, false
}

// CommandEvent captures a move command.
type CommandEvent struct {
	Address   int    `cbor:"1,keyasint"`
	Unit      int    `cbor:"2,keyasint"`
	Direction string `cbor:"3,keyasint"`

	// Duration in twentieths of a second (unsigned).
	Duration int `cbor:"4,keyasint"`

	// Data is the exact byte sequence produced by the dialect.
	Data []byte `cbor:"5,keyasint,omitempty"`

	// Dropped is set when the command could not be written.
	Dropped bool `cbor:"6,keyasint,omitempty"`
}

// FeedbackEvent captures bytes received from the controller.
type FeedbackEvent struct {
	// Size is the number of bytes received.
	Size int `cbor:"1,keyasint"`

	// Data holds up to MaxCapturedBytes of the received bytes.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFeedbackEvent copies data, truncating it to MaxCapturedBytes.
func NewFeedbackEvent(data []byte) *FeedbackEvent {
	fe := &FeedbackEvent{Size: len(data)}
	if len(data) > MaxCapturedBytes {
		data = data[:MaxCapturedBytes]
		fe.Truncated = true
	}
	fe.Data = append([]byte(nil), data...)
	return fe
}

// StateChangeEvent captures session connection state transitions.
type StateChangeEvent struct {
	// OldState is the previous state.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures transport errors.
type ErrorEventData struct {
	// Context describes what operation was being performed.
	Context string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`
}
