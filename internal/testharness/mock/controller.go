// Package mock provides a fake R2D7 controller for testing sessions
// against a real TCP socket.
package mock

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/esi-r2d7/r2d7-go/pkg/wire"
)

// Controller is a fake R2D7 shade controller listening on localhost.
// It records every byte received and decodes the command stream.
// Restarting a stopped controller binds the same port again, so dialers
// configured with the first address reconnect transparently.
type Controller struct {
	mu       sync.Mutex
	addr     string
	ln       net.Listener
	conns    map[net.Conn]struct{}
	received []byte
	commands []wire.MoveCommand
	parseErr error
	accepted int

	// OnCommand is called for every decoded statement, from the
	// connection goroutine.
	OnCommand func(cmd wire.MoveCommand)

	wg sync.WaitGroup
}

// NewController creates a stopped fake controller.
func NewController() *Controller {
	return &Controller{conns: make(map[net.Conn]struct{})}
}

// Start begins listening. The first call picks a free port.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ln != nil {
		return nil
	}

	addr := c.addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	c.ln = ln
	c.addr = ln.Addr().String()

	c.wg.Add(1)
	go c.acceptLoop(ln)
	return nil
}

// Stop closes the listener and all client connections.
func (c *Controller) Stop() {
	c.mu.Lock()
	ln := c.ln
	c.ln = nil
	for conn := range c.conns {
		conn.Close()
	}
	c.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	c.wg.Wait()
}

// DropConnections closes every client connection but keeps listening.
func (c *Controller) DropConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for conn := range c.conns {
		conn.Close()
	}
}

// Addr returns the listen address (host:port).
func (c *Controller) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Host returns the listen host.
func (c *Controller) Host() string {
	host, _, _ := net.SplitHostPort(c.Addr())
	return host
}

// Port returns the listen port.
func (c *Controller) Port() int {
	_, port, _ := net.SplitHostPort(c.Addr())
	p, _ := strconv.Atoi(port)
	return p
}

// Received returns a copy of all bytes received so far.
func (c *Controller) Received() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.received...)
}

// Commands returns the decoded statements received so far.
func (c *Controller) Commands() []wire.MoveCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wire.MoveCommand(nil), c.commands...)
}

// ParseError returns the first decode error seen, if any.
func (c *Controller) ParseError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parseErr
}

// Accepted returns the total number of accepted connections.
func (c *Controller) Accepted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accepted
}

// ActiveConnections returns the number of open client connections.
func (c *Controller) ActiveConnections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// Reset clears recorded traffic.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = nil
	c.commands = nil
	c.parseErr = nil
}

// SendFeedback writes data to every connected client.
func (c *Controller) SendFeedback(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ln == nil {
		return ErrNotRunning
	}
	if len(c.conns) == 0 {
		return ErrNoConnections
	}
	for conn := range c.conns {
		if _, err := conn.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// WaitForCommands blocks until at least n statements were decoded.
func (c *Controller) WaitForCommands(n int, timeout time.Duration) ([]wire.MoveCommand, error) {
	var cmds []wire.MoveCommand
	err := waitFor(timeout, func() bool {
		cmds = c.Commands()
		return len(cmds) >= n
	})
	return cmds, err
}

// WaitForAccepted blocks until at least n connections were accepted in total.
func (c *Controller) WaitForAccepted(n int, timeout time.Duration) error {
	return waitFor(timeout, func() bool { return c.Accepted() >= n })
}

// WaitForActive blocks until exactly n connections are open.
func (c *Controller) WaitForActive(n int, timeout time.Duration) error {
	return waitFor(timeout, func() bool { return c.ActiveConnections() == n })
}

func (c *Controller) acceptLoop(ln net.Listener) {
	defer c.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}

		c.mu.Lock()
		c.conns[conn] = struct{}{}
		c.accepted++
		c.mu.Unlock()

		c.wg.Add(1)
		go c.serve(conn)
	}
}

func (c *Controller) serve(conn net.Conn) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		delete(c.conns, conn)
		c.mu.Unlock()
		conn.Close()
	}()

	var pending []byte
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			cmds, rest, perr := wire.ParseCommands(pending)
			pending = append([]byte(nil), rest...)

			c.mu.Lock()
			c.received = append(c.received, buf[:n]...)
			c.commands = append(c.commands, cmds...)
			if perr != nil && c.parseErr == nil {
				c.parseErr = perr
				pending = nil
			}
			onCommand := c.OnCommand
			c.mu.Unlock()

			if onCommand != nil {
				for _, cmd := range cmds {
					onCommand(cmd)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func waitFor(timeout time.Duration, cond func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrWaitTimeout
		}
		time.Sleep(5 * time.Millisecond)
	}
}
