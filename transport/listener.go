// File: transport/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/weblet/api"
)

// RetryDelay is the pause Open applies after a failed listen before trying
// again (spec §4.1). Accept does not use it.
const RetryDelay = time.Second

// Listener opens a TCP listening socket with SO_REUSEADDR and retries failed
// listens (spec C1 §4.1). When cpuCore >= 0, Open pins the OS thread of the
// goroutine that calls Open to that CPU; goroutines started afterwards, such
// as an accept or service loop, are not pinned.
type Listener struct {
	addr    string
	backlog int
	cpuCore int // -1 disables pinning
	ln      net.Listener
	logger  *log.Logger
}

// NewListener constructs a Listener bound to addr. backlog is recorded on
// the Listener but not applied: the socket listens with the operating
// system's default backlog. cpuCore < 0 disables CPU-affinity pinning.
func NewListener(addr string, backlog, cpuCore int, logger *log.Logger) *Listener {
	return &Listener{addr: addr, backlog: backlog, cpuCore: cpuCore, logger: logger}
}

// Open binds and starts listening, retrying with RetryDelay on failure
// until ctx is canceled.
func (l *Listener) Open(ctx context.Context) error {
	if l.cpuCore >= 0 {
		setCPUAffinity(l.cpuCore, l.logger)
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	for {
		ln, err := lc.Listen(ctx, "tcp", l.addr)
		if err == nil {
			l.ln = ln
			return nil
		}
		l.logf("listen %s failed: %v, retrying in %s", l.addr, err, RetryDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
}

// Accept blocks until a peer arrives or an error occurs (spec §4.1).
// Timeout errors are retried at once, with no delay; any other error is
// returned to the caller, and the listening socket is not rebuilt.
func (l *Listener) Accept() (api.TransportConn, error) {
	for {
		nc, err := l.ln.Accept()
		if err == nil {
			return NewConn(nc), nil
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			continue
		}
		return nil, err
	}
}

// Close releases the listening socket.
func (l *Listener) Close() error {
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}

// Addr reports the bound address.
func (l *Listener) Addr() string {
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}

func (l *Listener) logf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
		return
	}
	fmt.Printf(format+"\n", args...)
}

var _ api.Listener = (*Listener)(nil)
