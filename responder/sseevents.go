// File: responder/sseevents.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package responder

import (
	"github.com/momentics/weblet/sse"
)

// SSEvents streams Server-Sent Events: the literal preamble, then a
// drained queue of pending events formatted per sse.Format (spec §4.7
// "SSEvents").
type SSEvents struct {
	queue          *sse.Queue
	preambleSent   bool
	queueDrops     func()
	nowUnix        func() int64
	pendingFormat  string
	pendingFormatN int
}

// NewSSEvents constructs an SSEvents responder. nowUnix supplies the
// current Unix time for event ids and may be nil to omit ids entirely.
func NewSSEvents(nowUnix func() int64) *SSEvents {
	return &SSEvents{queue: sse.NewQueue(), nowUnix: nowUnix}
}

// SetQueueDrops installs the counter callback invoked when the outbound
// queue overflows (spec §3 "reported via a counter").
func (s *SSEvents) SetQueueDrops(fn func()) { s.queueDrops = fn }

func (s *SSEvents) ContentType() string        { return "text/event-stream" }
func (s *SSEvents) ContentLength() int64       { return -1 }
func (s *SSEvents) LeavesConnectionOpen() bool { return true }

// NeedsStandardHeaders is false: the SSE responder returns its own literal
// preamble as its first response chunk (spec §4.7).
func (s *SSEvents) NeedsStandardHeaders() bool { return false }

func (s *SSEvents) StartResponding() error       { return nil }
func (s *SSEvents) HandleData(data []byte) error { return nil }

func (s *SSEvents) NextResponseChunk(buf []byte) (int, bool) {
	if !s.preambleSent {
		s.preambleSent = true
		n := copy(buf, sse.Preamble)
		return n, true
	}
	if s.pendingFormatN < len(s.pendingFormat) {
		n := copy(buf, s.pendingFormat[s.pendingFormatN:])
		s.pendingFormatN += n
		return n, true
	}
	e, ok := s.queue.Pop()
	if !ok {
		return 0, true
	}
	s.pendingFormat = sse.Format(e)
	s.pendingFormatN = copy(buf, s.pendingFormat)
	return s.pendingFormatN, true
}

// SendEvent enqueues an outbound event (spec §4.4 "sse_send").
func (s *SSEvents) SendEvent(content, group string) error {
	var unixSec int64
	if s.nowUnix != nil {
		unixSec = s.nowUnix()
	}
	if !s.queue.Push(sse.Event{Group: group, Content: content, UnixSec: unixSec}) {
		if s.queueDrops != nil {
			s.queueDrops()
		}
	}
	return nil
}

var (
	_ Responder   = (*SSEvents)(nil)
	_ EventSender = (*SSEvents)(nil)
)
