// File: handler/sseevents.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handler

import (
	"strings"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// SSEvents matches requests under eventsPath with an EVENT connection type
// (spec §4.8 "SSEvents").
type SSEvents struct {
	name       string
	eventsPath string
	queueDrops func()
	nowUnix    func() int64
}

// NewSSEvents constructs an SSEvents handler.
func NewSSEvents(name, eventsPath string, nowUnix func() int64, queueDrops func()) *SSEvents {
	return &SSEvents{name: name, eventsPath: eventsPath, nowUnix: nowUnix, queueDrops: queueDrops}
}

func (s *SSEvents) Name() string             { return s.name }
func (s *SSEvents) IsFileHandler() bool      { return false }
func (s *SSEvents) IsWebSocketHandler() bool { return false }

func (s *SSEvents) TryBuildResponder(header *wire.RequestHeader) responder.Responder {
	if header.ConnType != api.ConnEvent || !strings.HasPrefix(header.URL, s.eventsPath) {
		return nil
	}
	r := responder.NewSSEvents(s.nowUnix)
	r.SetQueueDrops(s.queueDrops)
	return r
}

var _ Handler = (*SSEvents)(nil)
