package mock

import "errors"

// Mock package errors.
var (
	// ErrNotRunning is returned when the fake controller is not listening.
	ErrNotRunning = errors.New("controller not running")

	// ErrNoConnections is returned when feedback is pushed with no client attached.
	ErrNoConnections = errors.New("no client connections")

	// ErrWaitTimeout is returned when a Wait helper gives up.
	ErrWaitTimeout = errors.New("wait timeout")
)
