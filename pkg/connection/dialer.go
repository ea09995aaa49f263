package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"
)

// DefaultPort is the TCP port serial device servers expose by default.
const DefaultPort = 4008

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 5 * time.Second

// ErrNoAddress is returned when a dialer has no target configured.
var ErrNoAddress = errors.New("no address configured")

// Conn is a bidirectional byte stream to a controller.
// It is implemented by net.Conn and by the serial port adapter.
type Conn interface {
	io.ReadWriteCloser

	// SetReadDeadline bounds the next Read calls.
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline bounds the next Write calls.
	SetWriteDeadline(t time.Time) error
}

// Dialer establishes connections to a controller.
type Dialer interface {
	// Dial opens a new connection. It must honour ctx cancellation.
	Dial(ctx context.Context) (Conn, error)

	// String describes the target for logs.
	String() string
}

// TCPDialer connects to a serial device server over plain TCP.
type TCPDialer struct {
	Host string
	Port int

	// Timeout bounds the dial (default: DefaultDialTimeout).
	Timeout time.Duration
}

// Address returns the host:port dial target.
func (d *TCPDialer) Address() string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// Dial implements Dialer.
func (d *TCPDialer) Dial(ctx context.Context) (Conn, error) {
	if d.Host == "" {
		return nil, ErrNoAddress
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Address())
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return conn, nil
}

// String implements Dialer.
func (d *TCPDialer) String() string {
	return "tcp://" + d.Address()
}

// IsTimeout reports whether err is a read or write deadline expiry.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Compile-time interface satisfaction checks.
var (
	_ Dialer = (*TCPDialer)(nil)
	_ Conn   = (net.Conn)(nil)
)
