// File: handler/websocket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handler

import (
	"strings"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/protocol"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// DefaultChannelIDBase is the first channel ID handed out by a WebSocket
// handler's pool (spec §4.8 example: "preloaded starting at a base (e.g.
// 50)").
const DefaultChannelIDBase = 50

// WebSocket matches upgrade requests under wsPath and owns the channel-ID
// pool (spec §3 "Protocol channel ID", §4.8 "WebSocket").
type WebSocket struct {
	name         string
	wsPath       string
	pingInterval time.Duration
	free         *queue.Queue
	queueDrops   func()
	onEvent      func(channelID int, evt protocol.EventType, payload []byte)
	readyFn      func(channelID int) bool
}

// NewWebSocket constructs a WebSocket handler preloading maxWebSockets
// channel IDs starting at base.
func NewWebSocket(name, wsPath string, base, maxWebSockets int, pingInterval time.Duration, queueDrops func(), readyFn func(int) bool, onEvent func(int, protocol.EventType, []byte)) *WebSocket {
	free := queue.New()
	for i := 0; i < maxWebSockets; i++ {
		free.Add(base + i)
	}
	return &WebSocket{
		name:         name,
		wsPath:       wsPath,
		pingInterval: pingInterval,
		free:         free,
		queueDrops:   queueDrops,
		onEvent:      onEvent,
		readyFn:      readyFn,
	}
}

func (w *WebSocket) Name() string             { return w.name }
func (w *WebSocket) IsFileHandler() bool      { return false }
func (w *WebSocket) IsWebSocketHandler() bool { return true }

// ChannelIDList reports the channel IDs currently free, in allocation order
// (spec §4.4 "allocate_channel_id"). IDs held by live responders are not
// included.
func (w *WebSocket) ChannelIDList() []int {
	ids := make([]int, 0, w.free.Length())
	for i := 0; i < w.free.Length(); i++ {
		ids = append(ids, w.free.Get(i).(int))
	}
	return ids
}

// AllocateChannelID removes and returns the front of the free list, or
// false if the pool is exhausted (spec §4.4).
func (w *WebSocket) AllocateChannelID() (int, bool) {
	if w.free.Length() == 0 {
		return 0, false
	}
	return w.free.Remove().(int), true
}

// ReleaseChannelID returns id to the free list (spec §3 "returned when WS
// responder destroyed").
func (w *WebSocket) ReleaseChannelID(id int) {
	w.free.Add(id)
}

func (w *WebSocket) TryBuildResponder(header *wire.RequestHeader) responder.Responder {
	if header.ConnType != api.ConnWebSocket || !strings.HasPrefix(header.URL, w.wsPath) {
		return nil
	}
	id, ok := w.AllocateChannelID()
	if !ok {
		return nil
	}
	return responder.NewWebSocket(header.WSKey, id, w.pingInterval, w.queueDrops, w.readyFn, func(evt protocol.EventType, payload []byte) {
		if w.onEvent != nil {
			w.onEvent(id, evt, payload)
		}
		if evt == protocol.EventDisconnectExternal || evt == protocol.EventDisconnectInternal {
			w.ReleaseChannelID(id)
		}
	})
}

var _ Handler = (*WebSocket)(nil)
