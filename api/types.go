// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and DTOs.

package api

import "time"

// ConnType classifies the wire protocol a completed request header selected
// (spec §3 RequestHeader.conn_type).
type ConnType int

const (
	ConnHTTP ConnType = iota
	ConnWebSocket
	ConnEvent
)

func (c ConnType) String() string {
	switch c {
	case ConnWebSocket:
		return "websocket"
	case ConnEvent:
		return "event"
	default:
		return "http"
	}
}

// Stats is a point-in-time snapshot of engine-level counters, exposed
// through Control.Stats() (spec §6 DOMAIN STACK ambient instrumentation).
type Stats struct {
	ActiveSlots      int
	TotalSlots       int
	ActiveWebSockets int
	ActiveSSEStreams int
	PendingQueueLen  int
	QueueDrops       uint64
	TokensRefused    uint64
	SampledAt        time.Time
}
