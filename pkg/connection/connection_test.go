package connection

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff()

		// Expected base sequence: 1s, 2s, 4s, ... capped at 60s, plus up to 25% jitter.
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}

		for i, exp := range expected {
			got := b.Next()
			hi := time.Duration(float64(exp)*1.25) + time.Millisecond
			if got < exp || got > hi {
				t.Errorf("Attempt %d: got %v, want within [%v, %v]", i, got, exp, hi)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			s := NewBackoff().Next()
			if s < 1*time.Second || s > time.Duration(float64(1*time.Second)*1.25)+time.Millisecond {
				t.Errorf("Sample %d: %v out of expected range [1s, 1.25s]", i, s)
			}
		}
	})

	t.Run("Fixed", func(t *testing.T) {
		b := NewFixedBackoff(250 * time.Millisecond)
		for i := 0; i < 5; i++ {
			if got := b.Next(); got != 250*time.Millisecond {
				t.Errorf("Attempt %d: got %v, want 250ms", i, got)
			}
		}
		if b.Attempts() != 5 {
			t.Errorf("Attempts() = %d, want 5", b.Attempts())
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff()
		for i := 0; i < 5; i++ {
			b.Next()
		}

		b.Reset()

		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
		if got := b.Next(); got > time.Duration(float64(InitialBackoff)*1.25)+time.Millisecond {
			t.Errorf("Next() = %v after reset, want about %v", got, InitialBackoff)
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        500 * time.Millisecond,
			Multiplier: 2.0,
			Jitter:     0,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}

		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnected, "CONNECTED"},
		{StateClosed, "CLOSED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTCPDialer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	d := &TCPDialer{Host: "127.0.0.1", Port: addr.Port, Timeout: time.Second}
	assert.Equal(t, "tcp://"+ln.Addr().String(), d.String())

	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	server := <-accepted
	defer server.Close()

	_, err = conn.Write([]byte("*1o01010;"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	server.SetReadDeadline(time.Now().Add(time.Second))
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "*1o01010;", string(buf[:n]))
}

func TestTCPDialerDefaultPort(t *testing.T) {
	d := &TCPDialer{Host: "192.168.2.55"}
	assert.Equal(t, "192.168.2.55:4008", d.Address())
}

func TestTCPDialerNoHost(t *testing.T) {
	_, err := (&TCPDialer{}).Dial(context.Background())
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestTCPDialerRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = (&TCPDialer{Host: "127.0.0.1", Port: port, Timeout: time.Second}).Dial(context.Background())
	assert.Error(t, err)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(os.ErrDeadlineExceeded))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(errors.New("boom")))
	assert.False(t, IsTimeout(nil))
}

// fakePort implements the subset of serial.Port the adapter uses.
type fakePort struct {
	serial.Port

	reads    [][]byte
	written  []byte
	timeouts []time.Duration
	closed   bool
}

func (p *fakePort) SetReadTimeout(d time.Duration) error {
	p.timeouts = append(p.timeouts, d)
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, nil
	}
	n := copy(b, p.reads[0])
	p.reads = p.reads[1:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialDialer(t *testing.T) {
	port := &fakePort{reads: [][]byte{[]byte("ok")}}
	var gotMode *serial.Mode

	orig := openPort
	openPort = func(name string, mode *serial.Mode) (serial.Port, error) {
		gotMode = mode
		return port, nil
	}
	defer func() { openPort = orig }()

	d := &SerialDialer{Device: "/dev/ttyUSB0"}
	assert.Equal(t, "serial:///dev/ttyUSB0", d.String())

	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	require.NotNil(t, gotMode)
	assert.Equal(t, DefaultBaudRate, gotMode.BaudRate)

	_, err = conn.Write([]byte("*1c02010;"))
	require.NoError(t, err)
	assert.Equal(t, "*1c02010;", string(port.written))

	// Data available: returned as-is.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf[:n]))

	// Empty read maps to a deadline error.
	_, err = conn.Read(buf)
	assert.True(t, IsTimeout(err), "empty read should be a timeout, got %v", err)

	// No deadline: blocks without timeout.
	require.NoError(t, conn.SetReadDeadline(time.Time{}))
	_, _ = conn.Read(buf)
	assert.Equal(t, serial.NoTimeout, port.timeouts[len(port.timeouts)-1])

	require.NoError(t, conn.Close())
	assert.True(t, port.closed)
}

func TestSerialDialerExpiredDeadline(t *testing.T) {
	c := &serialConn{port: &fakePort{}}
	require.NoError(t, c.SetReadDeadline(time.Now().Add(-time.Second)))
	_, err := c.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestSerialDialerNoDevice(t *testing.T) {
	_, err := (&SerialDialer{}).Dial(context.Background())
	assert.ErrorIs(t, err, ErrNoAddress)
}
