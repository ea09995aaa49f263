// Package connection provides the transport abstraction and connection
// lifecycle primitives used by controller sessions.
//
// This package handles:
//   - Dialing the controller over TCP (serial device server) or a local
//     serial port
//   - Connection state values shared by sessions and their observers
//   - Reconnection delay calculation
//
// # Transports
//
// R2D7 controllers are usually reached through a Moxa NPort (or similar)
// serial device server configured in TCP server mode, port 4008 by
// default. TCPDialer covers that case. SerialDialer opens a directly
// attached RS-232 port instead.
//
// # Reconnection Delay
//
// By default the session retries at a fixed polling interval:
//
//	delay = poll_interval
//
// Exponential growth with jitter is available through BackoffConfig:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
package connection
