package session

import "errors"

// Session errors.
var (
	// ErrNotConnected is returned by Move when no connection is held.
	ErrNotConnected = errors.New("not connected to controller")

	// ErrSendFailed wraps transport write errors returned by Move.
	ErrSendFailed = errors.New("send failed")

	// ErrSessionClosed is returned by Move after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrInitialConnect is returned by New when the first connection
	// attempt fails and Config.RequireInitialConnection is set.
	ErrInitialConnect = errors.New("initial connection failed")

	// ErrInvalidConfig is returned for unusable configurations.
	ErrInvalidConfig = errors.New("invalid session configuration")
)
