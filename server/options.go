// File: server/options.go
// Package server defines functional options for the Server facade,
// following the teacher's WithX option style (spec §4.8 handler registry).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log"
	"time"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/handler"
	"github.com/momentics/weblet/protocol"
)

// ServerOption customizes a Server before Run starts accepting connections.
type ServerOption func(*Server)

// WithLogger attaches a logger for listener retries and affinity warnings.
func WithLogger(logger *log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithResponseHeader appends a registered response header, appended
// verbatim to every standard header block (spec §6).
func WithResponseHeader(name, value string) ServerOption {
	return func(s *Server) {
		s.cfg.ResponseHeaders = append(s.cfg.ResponseHeaders, api.HeaderPair{Name: name, Value: value})
	}
}

// WithStaticData registers a StaticData handler serving a fixed in-memory
// blob at baseURI (spec §4.8 "StaticData").
func WithStaticData(name, baseURI, contentType string, blob []byte) ServerOption {
	return func(s *Server) {
		s.addHandler(handler.NewStaticData(name, baseURI, contentType, blob))
	}
}

// WithStaticFile registers a StaticFile handler resolving requests under
// baseURI against store (spec §4.8 "StaticFile"). It is silently rejected
// at registration time if EnableFileServer is false.
func WithStaticFile(name, baseURI, baseFolder, defaultPath string, store handler.FileStore) ServerOption {
	return func(s *Server) {
		s.addHandler(handler.NewStaticFile(name, baseURI, baseFolder, defaultPath, store))
	}
}

// WithRestAPI registers a RestAPI handler dispatching requests under prefix
// to matcher (spec §4.8 "RestAPI").
func WithRestAPI(name, prefix string, matcher handler.EndpointMatcher) ServerOption {
	return func(s *Server) {
		s.addHandler(handler.NewRestAPI(name, prefix, matcher))
	}
}

// WithSSEvents registers an SSEvents handler under eventsPath (spec §4.8
// "SSEvents").
func WithSSEvents(name, eventsPath string) ServerOption {
	return func(s *Server) {
		s.addHandler(handler.NewSSEvents(name, eventsPath, func() int64 { return time.Now().Unix() }, s.onQueueDrop))
	}
}

// WebSocketMessageFunc is invoked for every TEXT/BINARY frame delivered on
// an upgraded channel.
type WebSocketMessageFunc func(channelID int, text bool, payload []byte)

// WithWebSocketHandler registers a WebSocket handler under wsPath, preloading
// MaxWebSockets channel IDs from DefaultChannelIDBase (spec §4.8
// "WebSocket"). onMessage may be nil.
//
// The responder's recv-skip predicate (spec §4.3 step 4) is left nil here:
// it is an optional application-level gate on top of the responder's own
// outbound-queue capacity, never a path back into Manager.WSCanSend, which
// itself consults that same queue capacity (conn/manager.go WSCanSend /
// responder.WebSocket.HasSendCapacity) — wiring it to WSCanSend would have
// ReadyForData call WSCanSend call ReadyForData with no base case.
func WithWebSocketHandler(name, wsPath string, onMessage WebSocketMessageFunc) ServerOption {
	return func(s *Server) {
		h := handler.NewWebSocket(name, wsPath, handler.DefaultChannelIDBase, s.cfg.MaxWebSockets, s.cfg.PingInterval,
			s.onQueueDrop, nil,
			func(id int, evt protocol.EventType, payload []byte) {
				if onMessage == nil {
					return
				}
				switch evt {
				case protocol.EventText:
					onMessage(id, true, payload)
				case protocol.EventBinary:
					onMessage(id, false, payload)
				}
			})
		s.addHandler(h)
	}
}
