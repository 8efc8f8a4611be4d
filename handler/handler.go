// File: handler/handler.go
// Package handler implements the five Handler variants that match a
// completed request and construct a matching Responder (spec C6, §4.8).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handler

import (
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// Handler matches a completed RequestHeader and builds a Responder, or
// returns nil when it does not recognize the request (spec §3).
type Handler interface {
	Name() string
	TryBuildResponder(header *wire.RequestHeader) responder.Responder
	IsFileHandler() bool
	IsWebSocketHandler() bool
}

// Registry holds an ordered list of Handlers; iteration order is
// registration order and the first non-nil Responder wins (spec §3, §4.4).
type Registry struct {
	handlers          []Handler
	fileServingOn     bool
	maxWebSockets     int
}

// NewRegistry constructs a Registry. fileServingEnabled and maxWebSockets
// gate AddHandler's rejection rules (spec §4.4 "add_handler").
func NewRegistry(fileServingEnabled bool, maxWebSockets int) *Registry {
	return &Registry{fileServingOn: fileServingEnabled, maxWebSockets: maxWebSockets}
}

// AddHandler registers h, rejecting file handlers when file serving is
// disabled and WebSocket handlers when max_websockets == 0 (spec §4.4).
func (r *Registry) AddHandler(h Handler) bool {
	if h.IsFileHandler() && !r.fileServingOn {
		return false
	}
	if h.IsWebSocketHandler() && r.maxWebSockets == 0 {
		return false
	}
	r.handlers = append(r.handlers, h)
	return true
}

// BuildResponder iterates handlers in registration order and returns the
// first Responder any of them builds, or nil (spec §4.4 "build_responder",
// minus the WS channel-ID preallocation step, which the WebSocket handler
// performs internally).
func (r *Registry) BuildResponder(header *wire.RequestHeader) responder.Responder {
	for _, h := range r.handlers {
		if resp := h.TryBuildResponder(header); resp != nil {
			return resp
		}
	}
	return nil
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler { return r.handlers }
