package log

import (
	"sync"
	"testing"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (nil skipped)", m.Len())
	}

	m.Log(Event{Category: CategoryError, Error: &ErrorEventData{Context: "read", Message: "EOF"}})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events: a=%d b=%d, want 1 each", len(a.events), len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should pass through non-nil loggers")
	}
}
