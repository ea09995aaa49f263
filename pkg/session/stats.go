package session

import "sync/atomic"

// Stats is a snapshot of session counters.
type Stats struct {
	MovesSent     uint64
	MovesDropped  uint64
	Connects      uint64
	Disconnects   uint64
	BytesReceived uint64

	// ReconnectAttempts counts dial attempts since the last successful
	// connect.
	ReconnectAttempts int
}

type counters struct {
	movesSent     atomic.Uint64
	movesDropped  atomic.Uint64
	connects      atomic.Uint64
	disconnects   atomic.Uint64
	bytesReceived atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		MovesSent:     c.movesSent.Load(),
		MovesDropped:  c.movesDropped.Load(),
		Connects:      c.connects.Load(),
		Disconnects:   c.disconnects.Load(),
		BytesReceived: c.bytesReceived.Load(),
	}
}
