package session

import (
	"time"

	"github.com/esi-r2d7/r2d7-go/pkg/connection"
	r2d7log "github.com/esi-r2d7/r2d7-go/pkg/log"
)

const readBufferSize = 1024

// supervise runs until Close. It is the only goroutine that dials after
// New returns.
func (s *Session) supervise() {
	defer s.wg.Done()

	buf := make([]byte, readBufferSize)
	for s.ctx.Err() == nil {
		s.mu.Lock()
		conn, connID := s.conn, s.connID
		s.mu.Unlock()

		if conn == nil {
			delay := s.backoff.Next()
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(delay):
			}
			_ = s.connect()
			continue
		}

		s.poll(conn, connID, buf)
	}
}

// connect dials once and installs the new handle.
func (s *Session) connect() error {
	conn, err := s.cfg.Dialer.Dial(s.ctx)
	if err != nil {
		s.debugLog("connect failed", "controller", s.cfg.Dialer.String(), "error", err)
		s.plog.Log(r2d7log.Event{
			Timestamp:  time.Now(),
			Direction:  r2d7log.DirectionLocal,
			Category:   r2d7log.CategoryError,
			RemoteAddr: s.cfg.Dialer.String(),
			Error: &r2d7log.ErrorEventData{
				Context: "dial",
				Message: err.Error(),
			},
		})
		return err
	}

	connID := newConnectionID()

	s.mu.Lock()
	if s.state == connection.StateClosed {
		s.mu.Unlock()
		conn.Close()
		return ErrSessionClosed
	}
	old := s.state
	s.conn = conn
	s.connID = connID
	s.state = connection.StateConnected
	s.mu.Unlock()

	s.backoff.Reset()
	s.stats.connects.Add(1)
	s.logger.Info("connected to controller",
		"controller", s.cfg.Dialer.String(), "conn_id", connID)
	s.logState(connID, old, connection.StateConnected, "connected")
	s.notify(old, connection.StateConnected)
	return nil
}

// poll drains one read interval from conn.
func (s *Session) poll(conn connection.Conn, connID string, buf []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PollInterval))

	n, err := conn.Read(buf)
	if n > 0 {
		s.stats.bytesReceived.Add(uint64(n))
		s.debugLog("discarding controller output", "bytes", n)
		s.plog.Log(r2d7log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    r2d7log.DirectionIn,
			Category:     r2d7log.CategoryFeedback,
			RemoteAddr:   s.cfg.Dialer.String(),
			Feedback:     r2d7log.NewFeedbackEvent(buf[:n]),
		})
	}
	if err == nil || connection.IsTimeout(err) {
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	if s.detach(conn, "read failed", err) {
		// A writer may still be inside Write on this handle.
		s.writeMu.Lock()
		conn.Close()
		s.writeMu.Unlock()
	}
}

// detach clears the handle if it is still conn and reports whether it did.
// A handle that was already replaced or cleared is left alone. The caller
// closes a detached handle while holding writeMu.
func (s *Session) detach(conn connection.Conn, reason string, cause error) bool {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return false
	}
	connID := s.connID
	s.conn = nil
	s.connID = ""
	old := s.state
	if s.state != connection.StateClosed {
		s.state = connection.StateDisconnected
	}
	newState := s.state
	s.mu.Unlock()

	s.stats.disconnects.Add(1)

	s.logger.Warn("connection lost",
		"controller", s.cfg.Dialer.String(), "conn_id", connID,
		"reason", reason, "error", cause)
	s.plog.Log(r2d7log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    r2d7log.DirectionLocal,
		Category:     r2d7log.CategoryError,
		RemoteAddr:   s.cfg.Dialer.String(),
		Error: &r2d7log.ErrorEventData{
			Context: reason,
			Message: cause.Error(),
		},
	})
	s.logState(connID, old, newState, reason)
	s.notify(old, newState)
	return true
}
