package wire

import (
	"fmt"
	"strings"
)

// Dialect encodes move commands for a particular transport flavour.
type Dialect interface {
	// Name returns the configuration name of the dialect.
	Name() string

	// EncodeMove returns the bytes to transmit for cmd.
	EncodeMove(cmd MoveCommand) []byte
}

// RawDialect is used for direct TCP sockets. Each move is immediately
// followed by a stop command for the same unit.
type RawDialect struct{}

// Name implements Dialect.
func (RawDialect) Name() string { return "raw" }

// EncodeMove implements Dialect.
func (RawDialect) EncodeMove(cmd MoveCommand) []byte {
	buf := make([]byte, 0, 16)
	buf = AppendMove(buf, cmd)
	return AppendStop(buf, cmd.Address, cmd.Unit)
}

// LineDialect is used for telnet-style line sessions. Each move is sent
// as one newline-terminated line.
type LineDialect struct{}

// Name implements Dialect.
func (LineDialect) Name() string { return "line" }

// EncodeMove implements Dialect.
func (LineDialect) EncodeMove(cmd MoveCommand) []byte {
	buf := make([]byte, 0, 12)
	buf = AppendMove(buf, cmd)
	return append(buf, '\n')
}

// ParseDialect returns the dialect registered under name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "raw", "socket":
		return RawDialect{}, nil
	case "line", "telnet":
		return LineDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Dialect = RawDialect{}
	_ Dialect = LineDialect{}
)
