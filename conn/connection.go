// File: conn/connection.go
// Package conn implements the per-slot Connection state machine and the
// ConnectionManager that owns the slot pool (spec C7/C8, §4.3/§4.4).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package conn

import (
	"strconv"
	"time"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/pool"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// State enumerates the per-slot Connection lifecycle (spec §4.3).
type State int

const (
	StateIdle State = iota
	StateHeaderAccumulating
	StateResponderRunning
	StateClosing
)

// IdleTimeout is the default HTTP response timeout; Responders with
// LeavesConnectionOpen disable it (spec §4.3).
const IdleTimeout = 180 * time.Second

// recvBufSize approximates one MSS-sized read (spec §4.3 step 5).
const recvBufSize = 1460

var reasonPhrases = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	503: "Service Unavailable",
}

// BuildResponderFunc resolves a completed header to a Responder plus the
// HTTP status code to report if it returns nil (spec §4.4
// "build_responder").
type BuildResponderFunc func(header *wire.RequestHeader) (responder.Responder, int)

// Connection drives one slot's state machine (spec §4.3).
type Connection struct {
	tconn  api.TransportConn
	header *wire.RequestHeader
	resp   responder.Responder

	state           State
	start           time.Time
	timeoutActive   bool
	continueSent    bool
	headersSent     bool
	statusCode      int

	bytePool         *pool.BytePool
	sendBufferMaxLen int
	standardHeaders  []api.HeaderPair
	buildResponder   BuildResponderFunc
}

// NewConnection constructs an idle Connection. standardHeaders is the
// ordered list of name/value pairs always emitted alongside the status
// line (spec §4.3, §4.4).
func NewConnection(bytePool *pool.BytePool, sendBufferMaxLen int, standardHeaders []api.HeaderPair, buildResponder BuildResponderFunc) *Connection {
	return &Connection{
		bytePool:         bytePool,
		sendBufferMaxLen: sendBufferMaxLen,
		standardHeaders:  standardHeaders,
		buildResponder:   buildResponder,
	}
}

// Active reports whether the slot currently holds a connection.
func (c *Connection) Active() bool { return c.state != StateIdle }

// Place installs a freshly accepted transport connection into this slot
// (spec §3 "born on token placement").
func (c *Connection) Place(tconn api.TransportConn, now time.Time) {
	c.tconn = tconn
	c.header = wire.NewRequestHeader()
	c.resp = nil
	c.state = StateHeaderAccumulating
	c.start = now
	c.timeoutActive = true
	c.continueSent = false
	c.headersSent = false
	c.statusCode = 0
}

// Service runs one tick of the state machine (spec §4.3 steps 1-10).
func (c *Connection) Service(now time.Time) {
	if c.state == StateIdle {
		return
	}

	if c.timeoutActive && now.Sub(c.start) > IdleTimeout {
		c.state = StateClosing
	}

	if tk, ok := c.resp.(interface{ Tick(time.Time) }); ok {
		tk.Tick(now)
	}

	skipRead := false
	if ca, ok := c.resp.(responder.ChannelAddressable); ok && !ca.ReadyForData() {
		skipRead = true
	}

	if c.state != StateClosing && !skipRead {
		c.recvStep()
	}

	if c.state == StateResponderRunning {
		c.sendStep()
	}

	if c.state == StateClosing {
		c.closeSlot()
	}
}

func (c *Connection) recvStep() {
	buf := make([]byte, recvBufSize)
	n, status, err := c.tconn.Recv(buf)
	switch status {
	case api.RecvWouldBlock:
		return
	case api.RecvPeerClosed, api.RecvError:
		_ = err
		c.state = StateClosing
		return
	}
	if n == 0 {
		return
	}
	data := buf[:n]

	if !c.header.Complete {
		if err := c.header.Feed(data); err != nil {
			c.statusCode = 400
			c.state = StateResponderRunning
			return
		}
		if c.header.IsContinue && !c.continueSent {
			_, _ = c.tconn.Send([]byte("HTTP/1.1 100 Continue\r\n\r\n"))
			c.continueSent = true
		}
		if c.header.Complete {
			resp, statusCode := c.buildResponder(c.header)
			c.statusCode = statusCode
			if resp != nil {
				c.resp = resp
				c.state = StateResponderRunning
				if resp.LeavesConnectionOpen() {
					c.timeoutActive = false
				}
				if err := resp.StartResponding(); err != nil {
					c.state = StateClosing
					return
				}
			} else {
				c.state = StateResponderRunning
			}
			if tail := c.header.DrainBodyTail(); len(tail) > 0 && c.resp != nil {
				_ = c.resp.HandleData(tail)
			}
		}
		return
	}

	if c.resp != nil {
		_ = c.resp.HandleData(data)
	}
}

func (c *Connection) sendStep() {
	if c.resp == nil {
		if !c.headersSent {
			c.emitStandardHeaders()
			c.state = StateClosing
		}
		return
	}

	buf, release := pool.ChunkBuffer(c.bytePool, c.sendBufferMaxLen)
	n, active := c.resp.NextResponseChunk(buf)

	// Headers are flushed just before the first real chunk (or on immediate
	// completion), never on an intermediate n==0 tick — e.g. while a RestAPI
	// responder is still consuming a streaming body (spec §4.3 step 8). A
	// responder that skips the standard-header path entirely (WS/SSE) still
	// latches headersSent so this branch is a no-op on every later tick.
	if !c.headersSent {
		if !c.resp.NeedsStandardHeaders() {
			c.headersSent = true
		} else if n > 0 || !active {
			c.emitStandardHeaders()
		}
	}

	if n > 0 {
		_, _ = c.tconn.Send(buf[:n])
	}
	release()

	if !active {
		c.state = StateClosing
	}
}

// emitStandardHeaders writes the status line and registered headers per
// spec §4.3's exact order and format.
func (c *Connection) emitStandardHeaders() {
	if c.headersSent {
		return
	}
	c.headersSent = true

	code := c.statusCode
	if code == 0 {
		code = 200
	}
	reason := reasonPhrases[code]
	if reason == "" {
		reason = "Unknown"
	}

	out := "HTTP/1.1 " + strconv.Itoa(code) + " " + reason + "\r\n"
	if c.resp != nil {
		if ct := c.resp.ContentType(); ct != "" {
			out += "Content-Type: " + ct + "\r\n"
		}
	}
	for _, h := range c.standardHeaders {
		out += h.Name + ": " + h.Value + "\r\n"
	}
	if c.resp != nil {
		if cl := c.resp.ContentLength(); cl >= 0 {
			out += "Content-Length: " + strconv.FormatInt(cl, 10) + "\r\n"
		}
		if !c.resp.LeavesConnectionOpen() {
			out += "Connection: close\r\n"
		}
	} else {
		out += "Connection: close\r\n"
	}
	out += "\r\n"

	_, _ = c.tconn.Send([]byte(out))
}

func (c *Connection) closeSlot() {
	if cl, ok := c.resp.(interface{ Close() }); ok {
		cl.Close()
	}
	if c.tconn != nil {
		_ = c.tconn.Close()
	}
	c.tconn = nil
	c.resp = nil
	c.header = nil
	c.state = StateIdle
}
