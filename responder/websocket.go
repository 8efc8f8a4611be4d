// File: responder/websocket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package responder

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/weblet/protocol"
)

// MaxWSOutboundQueue bounds the per-responder outbound frame queue;
// overflow drops the newest frame (spec §3/§4.7).
const MaxWSOutboundQueue = 10

// WebSocket wraps a protocol.Link, buffering encoded outbound frames in a
// bounded queue drained by successive NextResponseChunk calls (spec §4.7
// "WebSocket").
type WebSocket struct {
	link          *protocol.Link
	channelID     int
	handshakeKey  string
	handshakeSent bool

	outMu    sync.Mutex
	outbound *queue.Queue

	queueDrops func()
	readyFn    func(channelID int) bool
	onEvent    func(evt protocol.EventType, payload []byte)
}

// NewWebSocket constructs a WebSocket responder. wsKey is the
// Sec-WebSocket-Key captured by the header parser; channelID was
// pre-allocated by the handler's channel pool. readyFn is an optional
// application-level predicate consulted in addition to outbound-queue
// capacity and may be nil; it must never call back into the manager's
// WSCanSend, or ReadyForData recurses forever. onEvent, if non-nil, is
// invoked for every protocol.EventType the link raises, including TEXT
// and BINARY message delivery.
func NewWebSocket(wsKey string, channelID int, pingInterval time.Duration, queueDrops func(), readyFn func(int) bool, onEvent func(protocol.EventType, []byte)) *WebSocket {
	w := &WebSocket{
		channelID:    channelID,
		handshakeKey: wsKey,
		outbound:     queue.New(),
		queueDrops:   queueDrops,
		readyFn:      readyFn,
		onEvent:      onEvent,
	}
	w.link = protocol.NewLink(w.enqueueRaw, w.dispatch, pingInterval)
	return w
}

func (w *WebSocket) enqueueRaw(b []byte) error {
	w.outMu.Lock()
	full := w.outbound.Length() >= MaxWSOutboundQueue
	if !full {
		w.outbound.Add(append([]byte(nil), b...))
	}
	w.outMu.Unlock()
	if full && w.queueDrops != nil {
		w.queueDrops()
	}
	return nil
}

func (w *WebSocket) dispatch(evt protocol.EventType, payload []byte) {
	if w.onEvent != nil {
		w.onEvent(evt, payload)
	}
}

func (w *WebSocket) ContentType() string  { return "" }
func (w *WebSocket) ContentLength() int64 { return -1 }
func (w *WebSocket) LeavesConnectionOpen() bool { return true }

// NeedsStandardHeaders is false: the WebSocket responder writes its own
// status line (the handshake reply) rather than the engine's header path
// (spec §4.3).
func (w *WebSocket) NeedsStandardHeaders() bool { return false }

func (w *WebSocket) StartResponding() error { return nil }

func (w *WebSocket) HandleData(data []byte) error {
	w.link.Feed(data)
	return nil
}

func (w *WebSocket) NextResponseChunk(buf []byte) (int, bool) {
	if !w.handshakeSent {
		w.handshakeSent = true
		resp := protocol.HandshakeResponse(w.handshakeKey)
		n := copy(buf, resp)
		return n, true
	}
	w.outMu.Lock()
	empty := w.outbound.Length() == 0
	var frame []byte
	if !empty {
		frame = w.outbound.Remove().([]byte)
	}
	w.outMu.Unlock()
	if empty {
		return 0, w.link.Active()
	}
	n := copy(buf, frame)
	return n, w.link.Active()
}

// SendFrame enqueues an outbound BINARY frame (spec §4.4 "ws_send").
func (w *WebSocket) SendFrame(payload []byte) error {
	return w.link.SendBinary(payload)
}

// ProtocolChannelID reports the WebSocket channel this responder owns.
func (w *WebSocket) ProtocolChannelID() int { return w.channelID }

// HasSendCapacity reports whether the outbound queue has room for another
// frame; this is the concrete, non-recursive signal Manager.WSCanSend reads
// (spec §4.4 "ws_can_send").
func (w *WebSocket) HasSendCapacity() bool {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	return w.outbound.Length() < MaxWSOutboundQueue
}

// ReadyForData reports whether the engine should still feed this channel
// received bytes right now: outbound queue capacity, narrowed by the
// optional application predicate (spec §4.3 step 4 "conditional recv-skip").
func (w *WebSocket) ReadyForData() bool {
	if !w.HasSendCapacity() {
		return false
	}
	if w.readyFn == nil {
		return true
	}
	return w.readyFn(w.channelID)
}

// Tick runs the link's ping service; called once per ConnectionManager
// service() pass.
func (w *WebSocket) Tick(now time.Time) { w.link.Tick(now) }

// Close marks the underlying link inactive, triggering the
// DisconnectInternal event so the owning handler can reclaim this
// responder's channel ID (spec §3 "returned when WS responder destroyed").
// It is a no-op if the link already went inactive on its own (peer CLOSE,
// failed ping send).
func (w *WebSocket) Close() { w.link.Close() }

var (
	_ Responder             = (*WebSocket)(nil)
	_ FrameSender           = (*WebSocket)(nil)
	_ ChannelAddressable    = (*WebSocket)(nil)
	_ QueueCapacityReporter = (*WebSocket)(nil)
	_ WSChannel             = (*WebSocket)(nil)
)
