// Package session manages the connection to an R2D7 shade controller.
//
// A Session owns at most one transport connection at a time. A single
// supervisor goroutine keeps it alive: while disconnected it redials after
// the reconnect delay, while connected it drains whatever the controller
// sends so the peer never blocks on a full buffer.
//
// Move commands are written synchronously by the caller. They are best
// effort: when no connection is available the command is dropped and
// ErrNotConnected is returned. There is no queue and no retry.
//
//	sess, err := session.New(session.Config{
//	    Dialer: &connection.TCPDialer{Host: "192.168.2.55", Port: 4008},
//	})
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	unit, _ := sess.Shade(3, 7, 15.4)
//	unit.SetPosition(50)
package session
