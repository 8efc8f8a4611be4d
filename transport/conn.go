// File: transport/conn.go
// Package transport implements the non-blocking TCP TransportAdapter (spec
// C1, §4.1).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/momentics/weblet/api"
)

// RecvDeadline is the read deadline applied on every Recv call, emulating
// the "never blocks for more than 1 ms" contract of spec §4.1 over a
// blocking net.Conn.
const RecvDeadline = time.Millisecond

// Conn wraps a net.Conn with the non-blocking recv/send/close contract of
// api.TransportConn (spec §4.1).
type Conn struct {
	nc     net.Conn
	closed atomic.Bool
}

// NewConn wraps an already-accepted net.Conn.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Recv never blocks longer than RecvDeadline; a deadline expiry is reported
// as api.RecvWouldBlock rather than an error (spec §4.1).
func (c *Conn) Recv(buf []byte) (int, api.RecvStatus, error) {
	if c.closed.Load() {
		return 0, api.RecvError, api.ErrTransportClosed
	}
	if err := c.nc.SetReadDeadline(time.Now().Add(RecvDeadline)); err != nil {
		return 0, api.RecvError, err
	}
	n, err := c.nc.Read(buf)
	if err == nil {
		return n, api.RecvOK, nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return n, api.RecvWouldBlock, nil
	}
	if errors.Is(err, io.EOF) {
		return n, api.RecvPeerClosed, nil
	}
	return n, api.RecvError, err
}

// Send may block briefly on TCP flow control (spec §4.1); full short-write
// retry is not required, matching the engine's small bounded writes.
func (c *Conn) Send(buf []byte) (int, error) {
	if c.closed.Load() {
		return 0, api.ErrTransportClosed
	}
	return c.nc.Write(buf)
}

// Close is idempotent and releases the underlying socket.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.nc.Close()
}

// RemoteAddr reports the peer address as a string.
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}

var _ api.TransportConn = (*Conn)(nil)
