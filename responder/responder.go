// File: responder/responder.go
// Package responder implements the five Responder variants that produce
// response bytes for a Connection (spec C5, §4.7).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package responder

// Responder is the capability set every variant implements (spec §3).
// NextResponseChunk copies up to len(buf) bytes into buf and reports the
// number written plus whether the responder remains active afterward.
type Responder interface {
	ContentType() string
	ContentLength() int64 // -1 when unknown
	LeavesConnectionOpen() bool
	NeedsStandardHeaders() bool
	StartResponding() error
	HandleData(data []byte) error
	NextResponseChunk(buf []byte) (n int, active bool)
}

// FrameSender is implemented by responders that can push an outbound
// WebSocket frame (spec §4.4 "ws_send").
type FrameSender interface {
	SendFrame(payload []byte) error
}

// EventSender is implemented by responders that can push an outbound SSE
// event (spec §4.4 "sse_send").
type EventSender interface {
	SendEvent(content, group string) error
}

// ChannelAddressable is implemented by the WebSocket responder, exposing
// the channel ID it was constructed with (spec §3 "Protocol channel ID").
type ChannelAddressable interface {
	ProtocolChannelID() int
	ReadyForData() bool
}

// QueueCapacityReporter is implemented by responders whose outbound queue
// depth is the concrete, non-recursive source of truth for "can send"
// backpressure decisions (spec §4.4 "ws_can_send"). Manager.WSCanSend reads
// this directly instead of re-entering ReadyForData, which may itself
// depend on an application-supplied predicate.
type QueueCapacityReporter interface {
	HasSendCapacity() bool
}

// WSChannel is the capability set the manager's channel registry indexes a
// WebSocket responder by: addressable, able to accept a frame, and able to
// report its own outbound queue depth.
type WSChannel interface {
	ChannelAddressable
	FrameSender
	QueueCapacityReporter
}
