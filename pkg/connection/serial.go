package connection

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the R2D7 factory serial speed.
const DefaultBaudRate = 9600

// DefaultSerialMode returns 9600 8N1.
func DefaultSerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// openPort is replaced in tests.
var openPort = serial.Open

// SerialDialer opens a directly attached serial port.
type SerialDialer struct {
	// Device is the port path, e.g. /dev/ttyUSB0 or COM3.
	Device string

	// Mode is the line configuration (default: DefaultSerialMode).
	Mode *serial.Mode
}

// Dial implements Dialer.
func (d *SerialDialer) Dial(ctx context.Context) (Conn, error) {
	if d.Device == "" {
		return nil, ErrNoAddress
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = DefaultSerialMode()
	}

	port, err := openPort(d.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", d.Device, err)
	}
	return &serialConn{port: port}, nil
}

// String implements Dialer.
func (d *SerialDialer) String() string {
	return "serial://" + d.Device
}

// serialConn adapts a serial.Port to Conn. Serial ports only support a
// relative read timeout, so deadlines are converted on each call.
type serialConn struct {
	port serial.Port

	mu       sync.Mutex
	deadline time.Time
}

func (c *serialConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	timeout := serial.NoTimeout
	if !deadline.IsZero() {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return 0, os.ErrDeadlineExceeded
		}
	}
	if err := c.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}

	n, err := c.port.Read(p)
	if n == 0 && err == nil {
		// go.bug.st/serial reports a timeout as an empty read.
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (c *serialConn) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

func (c *serialConn) Close() error {
	return c.port.Close()
}

func (c *serialConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

// SetWriteDeadline is accepted but ignored: serial writes complete once
// the driver buffers them.
func (c *serialConn) SetWriteDeadline(time.Time) error {
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ Dialer = (*SerialDialer)(nil)
	_ Conn   = (*serialConn)(nil)
)
