package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/esi-r2d7/r2d7-go/pkg/connection"
	r2d7log "github.com/esi-r2d7/r2d7-go/pkg/log"
	"github.com/esi-r2d7/r2d7-go/pkg/shade"
	"github.com/esi-r2d7/r2d7-go/pkg/wire"
)

// StateHandler is called on every session state transition.
type StateHandler func(old, new connection.State)

// Session is a supervised connection to one R2D7 controller.
// It implements shade.Mover.
type Session struct {
	cfg     Config
	logger  *slog.Logger
	plog    r2d7log.Logger
	backoff *connection.Backoff

	// mu guards the handle and state.
	mu       sync.Mutex
	conn     connection.Conn
	connID   string
	state    connection.State
	handlers []StateHandler

	// writeMu serializes writes so commands never interleave.
	writeMu sync.Mutex

	stats counters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a session, attempts one connection synchronously and starts
// the supervisor.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:     cfg,
		logger:  cfg.Logger,
		plog:    cfg.ProtocolLogger,
		backoff: cfg.newBackoff(),
		state:   connection.StateDisconnected,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := s.connect(); err != nil && cfg.RequireInitialConnection {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrInitialConnect, err)
	}

	s.wg.Add(1)
	go s.supervise()

	return s, nil
}

// Shade creates a shade unit driven by this session.
func (s *Session) Shade(address, unit int, travelTime float64) (*shade.Unit, error) {
	return shade.New(s, address, unit, travelTime)
}

// Move sends a single move command. Positive durations open, negative
// durations close, zero is a no-op. Durations are in twentieths of a
// second.
func (s *Session) Move(address, unit, duration int) error {
	if err := shade.Validate(address, unit); err != nil {
		return err
	}
	if s.State() == connection.StateClosed {
		return ErrSessionClosed
	}
	if duration == 0 {
		return nil
	}

	cmd := wire.NewMoveCommand(address, unit, duration)
	if cmd.Clamped() {
		s.logger.Warn("move duration clamped",
			"address", address, "unit", unit,
			"requested", duration, "sent", cmd.Duration)
	}
	data := s.cfg.Dialect.EncodeMove(cmd)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	state, conn, connID := s.state, s.conn, s.connID
	s.mu.Unlock()

	if state == connection.StateClosed {
		return ErrSessionClosed
	}
	if conn == nil {
		s.dropped(cmd, data, ErrNotConnected)
		return ErrNotConnected
	}

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := conn.Write(data); err != nil {
		if s.detach(conn, "write failed", err) {
			conn.Close()
		}
		s.dropped(cmd, data, err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	s.stats.movesSent.Add(1)
	s.plog.Log(r2d7log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    r2d7log.DirectionOut,
		Category:     r2d7log.CategoryCommand,
		RemoteAddr:   s.cfg.Dialer.String(),
		Command:      commandEvent(cmd, data, false),
	})
	s.debugLog("move sent", "command", cmd.String(), "seconds", cmd.Seconds())
	return nil
}

// Close stops the supervisor and releases the connection. It is
// idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == connection.StateClosed {
		s.mu.Unlock()
		return nil
	}
	old := s.state
	s.state = connection.StateClosed
	held := s.conn != nil
	s.mu.Unlock()

	s.cancel()

	if held && s.cfg.CloseGrace > 0 {
		time.Sleep(s.cfg.CloseGrace)
	}

	s.writeMu.Lock()
	s.mu.Lock()
	conn, connID := s.conn, s.connID
	s.conn = nil
	s.connID = ""
	s.mu.Unlock()
	s.writeMu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			s.debugLog("close connection", "error", err)
		}
	}

	s.wg.Wait()

	s.logger.Info("session closed", "controller", s.cfg.Dialer.String())
	s.logState(connID, old, connection.StateClosed, "closed")
	s.notify(old, connection.StateClosed)
	return nil
}

// State returns the current session state.
func (s *Session) State() connection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether a connection is currently held.
func (s *Session) IsConnected() bool {
	return s.State() == connection.StateConnected
}

// ConnectionID returns the identifier of the current connection, or an
// empty string while disconnected.
func (s *Session) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

// OnStateChange registers a handler for state transitions. Handlers are
// called without locks held, from the goroutine causing the transition.
func (s *Session) OnStateChange(handler StateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	st := s.stats.snapshot()
	st.ReconnectAttempts = s.backoff.Attempts()
	return st
}

// String describes the session for logs.
func (s *Session) String() string {
	return fmt.Sprintf("session(%s, %s, %s)", s.cfg.Dialer, s.cfg.Dialect.Name(), s.State())
}

func (s *Session) dropped(cmd wire.MoveCommand, data []byte, reason error) {
	s.stats.movesDropped.Add(1)
	s.logger.Warn("move dropped",
		"address", cmd.Address, "unit", cmd.Unit,
		"direction", cmd.Direction.String(), "duration", cmd.Duration,
		"error", reason)
	s.plog.Log(r2d7log.Event{
		Timestamp:  time.Now(),
		Direction:  r2d7log.DirectionOut,
		Category:   r2d7log.CategoryCommand,
		RemoteAddr: s.cfg.Dialer.String(),
		Command:    commandEvent(cmd, data, true),
	})
}

func (s *Session) notify(old, new connection.State) {
	if old == new {
		return
	}
	s.mu.Lock()
	handlers := make([]StateHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(old, new)
	}
}

func (s *Session) logState(connID string, old, new connection.State, reason string) {
	s.plog.Log(r2d7log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    r2d7log.DirectionLocal,
		Category:     r2d7log.CategoryState,
		RemoteAddr:   s.cfg.Dialer.String(),
		StateChange: &r2d7log.StateChangeEvent{
			OldState: old.String(),
			NewState: new.String(),
			Reason:   reason,
		},
	})
}

func (s *Session) debugLog(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

func commandEvent(cmd wire.MoveCommand, data []byte, dropped bool) *r2d7log.CommandEvent {
	return &r2d7log.CommandEvent{
		Address:   cmd.Address,
		Unit:      cmd.Unit,
		Direction: cmd.Direction.String(),
		Duration:  cmd.Duration,
		Data:      data,
		Dropped:   dropped,
	}
}

// newConnectionID returns an identifier for a physical connection.
func newConnectionID() string {
	return uuid.New().String()
}

// Compile-time interface satisfaction check.
var _ shade.Mover = (*Session)(nil)
