package session

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/esi-r2d7/r2d7-go/pkg/connection"
	r2d7log "github.com/esi-r2d7/r2d7-go/pkg/log"
	"github.com/esi-r2d7/r2d7-go/pkg/wire"
)

// Session defaults.
const (
	// DefaultPollInterval is the supervisor tick: the read deadline while
	// connected and the reconnect delay while disconnected.
	DefaultPollInterval = 1 * time.Second

	// DefaultCloseGrace is how long Close waits for an in-flight write.
	DefaultCloseGrace = 1 * time.Second
)

// Config configures a Session.
type Config struct {
	// Dialer opens connections to the controller. Required.
	Dialer connection.Dialer

	// Dialect encodes move commands (default: wire.RawDialect).
	Dialect wire.Dialect

	// PollInterval is the supervisor tick (default: DefaultPollInterval).
	PollInterval time.Duration

	// CloseGrace is the drain delay used by Close when a connection is
	// held. Zero uses DefaultCloseGrace, a negative value disables it.
	CloseGrace time.Duration

	// WriteTimeout bounds a single Move write. Zero means no deadline.
	WriteTimeout time.Duration

	// Reconnect customizes the reconnect delay. When nil the delay is
	// fixed at PollInterval.
	Reconnect *connection.BackoffConfig

	// RequireInitialConnection makes New fail when the first connection
	// attempt fails.
	RequireInitialConnection bool

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger receives protocol capture events. Nil disables it.
	ProtocolLogger r2d7log.Logger
}

// DefaultConfig returns a Config with default timings and no dialer.
func DefaultConfig() Config {
	return Config{
		Dialect:      wire.RawDialect{},
		PollInterval: DefaultPollInterval,
		CloseGrace:   DefaultCloseGrace,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Dialer == nil {
		return fmt.Errorf("%w: dialer is required", ErrInvalidConfig)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("%w: negative poll interval", ErrInvalidConfig)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative write timeout", ErrInvalidConfig)
	}
	return nil
}

// withDefaults returns a copy with zero values replaced.
func (c Config) withDefaults() Config {
	if c.Dialect == nil {
		c.Dialect = wire.RawDialect{}
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CloseGrace == 0 {
		c.CloseGrace = DefaultCloseGrace
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.ProtocolLogger = r2d7log.OrNoop(c.ProtocolLogger)
	return c
}

func (c Config) newBackoff() *connection.Backoff {
	if c.Reconnect == nil {
		return connection.NewFixedBackoff(c.PollInterval)
	}
	return connection.NewBackoffWithConfig(*c.Reconnect)
}
