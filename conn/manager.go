// File: conn/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package conn

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sync/semaphore"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/control"
	"github.com/momentics/weblet/handler"
	"github.com/momentics/weblet/pool"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// MaxPendingQueue bounds the new-connection queue; overflow refuses the
// token so the caller closes it (spec §3/§4.4).
const MaxPendingQueue = 10

// PendingEnqueueTimeout bounds on_new_connection's blocking attempt to
// enqueue (spec §4.4).
const PendingEnqueueTimeout = 10 * time.Millisecond

// Manager owns the fixed slot array, the bounded pending-connection queue,
// the Handler registry, and WS/SSE fanout (spec C8, §4.4).
//
// The slot array itself is mutated only by the single service goroutine
// (spec §5 "slot mutation is single-threaded"). WSSend/WSCanSend/SSESend run
// on producer goroutines, so they never touch m.slots directly; instead
// they read a snapshot — regMu-guarded wsByChan/sseResps — that Service
// rebuilds once per tick. Producers reach each responder's outbound queue
// only through its own mutex (responder.WebSocket.outMu, sse.Queue.mu).
type Manager struct {
	slots    []*Connection
	slotSem  *semaphore.Weighted
	pending  *queue.Queue
	registry *handler.Registry
	counters *control.Counters

	regMu    sync.Mutex
	wsByChan map[int]responder.WSChannel
	sseResps []responder.EventSender
}

// NewManager constructs a Manager with numSlots Connection slots. Slot
// acquisition is gated by a weighted semaphore of size numSlots rather than
// a hand-rolled free-list scan, giving "at most numSlots active" a
// blocking-free TryAcquire instead of a linear count (spec §4.4, §7).
func NewManager(numSlots int, bytePool *pool.BytePool, sendBufferMaxLen int, standardHeaders []api.HeaderPair, registry *handler.Registry, counters *control.Counters) *Manager {
	m := &Manager{
		slots:    make([]*Connection, numSlots),
		slotSem:  semaphore.NewWeighted(int64(numSlots)),
		pending:  queue.New(),
		registry: registry,
		counters: counters,
		wsByChan: make(map[int]responder.WSChannel),
	}
	for i := range m.slots {
		m.slots[i] = NewConnection(bytePool, sendBufferMaxLen, standardHeaders, m.buildResponder)
	}
	return m
}

// OnNewConnection enqueues a newly accepted token, refusing (and letting
// the caller close it) if the pending queue is still at MaxPendingQueue
// after waiting up to PendingEnqueueTimeout (spec §4.4 "on_new_connection").
func (m *Manager) OnNewConnection(tconn api.TransportConn) bool {
	deadline := time.Now().Add(PendingEnqueueTimeout)
	for m.pending.Length() >= MaxPendingQueue {
		if !time.Now().Before(deadline) {
			if m.counters != nil {
				m.counters.IncTokensRefused()
			}
			return false
		}
		time.Sleep(time.Millisecond)
	}
	m.pending.Add(tconn)
	if m.counters != nil {
		m.counters.SetPendingQueueLen(m.pending.Length())
	}
	return true
}

// AddHandler registers h with the underlying handler.Registry.
func (m *Manager) AddHandler(h handler.Handler) bool {
	return m.registry.AddHandler(h)
}

// Service drains the pending queue into free slots (closing any token left
// over once every slot is full), then ticks every active slot (spec §4.4
// "service").
func (m *Manager) Service(now time.Time) {
	for m.pending.Length() > 0 {
		if !m.slotSem.TryAcquire(1) {
			break
		}
		slot := m.freeSlot()
		if slot == nil {
			// Should not happen: the semaphore's weight tracks slot count
			// exactly, so a successful acquire always has a matching idle
			// slot. Guard against drift rather than wedge the gate shut.
			m.slotSem.Release(1)
			break
		}
		tconn := m.pending.Remove().(api.TransportConn)
		slot.Place(tconn, now)
	}
	for m.pending.Length() > 0 {
		tconn := m.pending.Remove().(api.TransportConn)
		_ = tconn.Close()
	}
	if m.counters != nil {
		m.counters.SetPendingQueueLen(m.pending.Length())
	}

	activeSlots := 0
	wsByChan := make(map[int]responder.WSChannel)
	var sseResps []responder.EventSender
	for _, s := range m.slots {
		wasActive := s.Active()
		if wasActive {
			s.Service(now)
		}
		if wasActive && !s.Active() {
			m.slotSem.Release(1)
		}
		if s.Active() {
			activeSlots++
			if wc, ok := s.resp.(responder.WSChannel); ok {
				wsByChan[wc.ProtocolChannelID()] = wc
			}
			if es, ok := s.resp.(responder.EventSender); ok {
				sseResps = append(sseResps, es)
			}
		}
	}
	m.publishRegistry(wsByChan, sseResps)
	if m.counters != nil {
		m.counters.SetActiveSlots(activeSlots)
		m.counters.SetActiveWebSockets(len(wsByChan))
		m.counters.SetActiveSSEStreams(len(sseResps))
	}
}

// publishRegistry swaps in the snapshot Service just built; it is the only
// writer, so regMu here only needs to exclude concurrent producer reads
// (spec §5).
func (m *Manager) publishRegistry(wsByChan map[int]responder.WSChannel, sseResps []responder.EventSender) {
	m.regMu.Lock()
	m.wsByChan = wsByChan
	m.sseResps = sseResps
	m.regMu.Unlock()
}

// freeSlot locates an idle slot for placement; slotSem gates *how many*
// placements may happen concurrently, this just finds *which* array entry
// is available (spec §7).
func (m *Manager) freeSlot() *Connection {
	for _, s := range m.slots {
		if !s.Active() {
			return s
		}
	}
	return nil
}

// buildResponder implements spec §4.4's "build_responder": it asks the
// registry for the first handler (in registration order) that builds a
// Responder; the WebSocket handler allocates its channel ID while building.
// When no Responder is built, a WebSocket request gets 503 (pool exhausted,
// no WebSocket handler, or no handler matching its path) and any other
// request gets 404.
func (m *Manager) buildResponder(header *wire.RequestHeader) (responder.Responder, int) {
	resp := m.registry.BuildResponder(header)
	if resp == nil {
		if header.ConnType == api.ConnWebSocket {
			return nil, 503
		}
		return nil, 404
	}
	return resp, 200
}

// WSCanSend reports whether the active WS responder owning chanID has
// outbound queue capacity right now; absent channels report true so
// producers are never blocked on a connection that no longer exists (spec
// §4.4 "ws_can_send"). It reads the regMu-guarded channel registry rather
// than scanning m.slots, which only the service goroutine may touch (spec
// §5), and asks the responder's own HasSendCapacity rather than
// ReadyForData, which may fold in an unrelated application predicate.
func (m *Manager) WSCanSend(chanID int) bool {
	m.regMu.Lock()
	wc, ok := m.wsByChan[chanID]
	m.regMu.Unlock()
	if !ok {
		return true
	}
	return wc.HasSendCapacity()
}

// WSSend enqueues bytes on the WS channel matching chanID, or on every
// registered WS channel if broadcast is true. It returns true if at least
// one enqueue succeeded (spec §4.4 "ws_send"). Targets are taken from the
// regMu-guarded snapshot, never from live m.slots (spec §5).
func (m *Manager) WSSend(payload []byte, broadcast bool, chanID int) bool {
	m.regMu.Lock()
	var targets []responder.WSChannel
	if broadcast {
		targets = make([]responder.WSChannel, 0, len(m.wsByChan))
		for _, wc := range m.wsByChan {
			targets = append(targets, wc)
		}
	} else if wc, ok := m.wsByChan[chanID]; ok {
		targets = []responder.WSChannel{wc}
	}
	m.regMu.Unlock()

	sent := false
	for _, wc := range targets {
		if err := wc.SendFrame(payload); err == nil {
			sent = true
		}
	}
	return sent
}

// SSESend enqueues an event on every active SSE stream (spec §4.4
// "sse_send"), reading the regMu-guarded snapshot rather than m.slots.
func (m *Manager) SSESend(content, group string) {
	m.regMu.Lock()
	targets := append([]responder.EventSender(nil), m.sseResps...)
	m.regMu.Unlock()

	for _, es := range targets {
		_ = es.SendEvent(content, group)
	}
}

// Stats snapshots the current manager-level counters (spec §4.4, ambient
// control surface).
func (m *Manager) Stats() api.Stats {
	if m.counters == nil {
		return api.Stats{}
	}
	return m.counters.Snapshot()
}
