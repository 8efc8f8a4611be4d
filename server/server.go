// File: server/server.go
// Package server assembles the listener, the connection-slot manager and
// the handler registry into a single runnable facade (spec C1/C7/C8).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/weblet/adapters"
	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/conn"
	"github.com/momentics/weblet/handler"
	"github.com/momentics/weblet/pool"
	"github.com/momentics/weblet/transport"
)

// ServiceTick is the cadence at which the service loop drains the pending
// queue and ticks every active slot (spec §4.3/§4.4 "service").
const ServiceTick = 5 * time.Millisecond

// Server wires a transport.Listener, a conn.Manager and a handler.Registry
// together. Handlers are registered via ServerOption before Run; Run blocks
// until ctx is canceled or a fatal listener error occurs (spec §4.1/§4.4).
type Server struct {
	cfg      *Config
	logger   *log.Logger
	listener *transport.Listener
	manager  *conn.Manager
	ctrl     *adapters.ControlAdapter

	pendingHandlers []handler.Handler
	running         atomic.Bool
}

// NewServer builds a Server from cfg (nil selects DefaultConfig). Options
// run first so WithResponseHeader can still grow cfg.ResponseHeaders and
// handler options can queue into pendingHandlers before the manager (which
// captures both) is constructed.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctrl := adapters.NewControlAdapter(cfg.NumConnSlots)
	registry := handler.NewRegistry(cfg.EnableFileServer, cfg.MaxWebSockets)

	s := &Server{
		cfg:  cfg,
		ctrl: ctrl,
	}
	for _, o := range opts {
		o(s)
	}

	bytePool := pool.NewBytePool(pool.StackThreshold + cfg.SendBufferMaxLen)
	s.manager = conn.NewManager(cfg.NumConnSlots, bytePool, cfg.SendBufferMaxLen, cfg.ResponseHeaders, registry, ctrl.Counters())
	for _, h := range s.pendingHandlers {
		s.manager.AddHandler(h)
	}
	s.listener = transport.NewListener(":"+strconv.Itoa(cfg.ServerTCPPort), cfg.NumConnSlots, cfg.TaskCore, s.logger)
	return s, nil
}

func (s *Server) addHandler(h handler.Handler) {
	s.pendingHandlers = append(s.pendingHandlers, h)
}

func (s *Server) onQueueDrop() {
	s.ctrl.Counters().IncQueueDrops()
}

// Run opens the listening socket, then supervises the accept loop and the
// service loop with an errgroup so either goroutine's failure cancels the
// other and unblocks Run (spec §4.1: two long-lived tasks, listener and
// service loop, that must shut down together).
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return api.ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if err := s.listener.Open(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return s.listener.Close()
	})

	g.Go(func() error {
		for {
			tconn, err := s.listener.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			if !s.manager.OnNewConnection(tconn) {
				_ = tconn.Close()
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(ServiceTick)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				s.manager.Service(now)
			}
		}
	})

	return g.Wait()
}

// Control exposes dynamic config, metrics and debug probes (spec §6
// ambient control surface).
func (s *Server) Control() api.Control {
	return s.ctrl
}

// Addr reports the listener's bound address; useful when ServerTCPPort is 0
// and the kernel chooses an ephemeral port.
func (s *Server) Addr() string {
	return s.listener.Addr()
}

// Stats snapshots current engine-level counters.
func (s *Server) Stats() api.Stats {
	return s.manager.Stats()
}

// WSSend enqueues payload on the WS slot owning chanID, or every active WS
// slot if broadcast (spec §4.4 "ws_send").
func (s *Server) WSSend(payload []byte, broadcast bool, chanID int) bool {
	return s.manager.WSSend(payload, broadcast, chanID)
}

// SSESend enqueues an SSE event on every active SSE slot (spec §4.4
// "sse_send").
func (s *Server) SSESend(content, group string) {
	s.manager.SSESend(content, group)
}
