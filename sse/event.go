// File: sse/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server-Sent Events formatting and bounded outbound queue (spec C5
// SSEvents responder, §4.7).

package sse

import (
	"strconv"
	"strings"
	"sync"

	"github.com/eapache/queue"
)

// MaxQueueLen bounds the number of pending events per SSE stream; overflow
// drops the newest event (spec §4.7/§3).
const MaxQueueLen = 2

// Preamble is the literal response header block an SSE responder writes on
// its first chunk; it bypasses the standard-header path (spec §4.7).
const Preamble = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/event-stream\r\n" +
	"Access-Control-Allow-Origin: *\r\n" +
	"Cache-Control: no-cache\r\n" +
	"Connection: keep-alive\r\n" +
	"Accept-Ranges: none\r\n\r\n"

// Event is a pending (group, content) pair awaiting formatting.
type Event struct {
	Group   string
	Content string
	UnixSec int64
}

// Format renders an Event per spec §4.7: an optional id: line, an optional
// event: line, one data: line per content line (split on \n and \r), and a
// terminating blank line.
func Format(e Event) string {
	var b strings.Builder
	if e.UnixSec != 0 {
		b.WriteString("id: ")
		b.WriteString(strconv.FormatInt(e.UnixSec, 10))
		b.WriteString("\r\n")
	}
	if e.Group != "" {
		b.WriteString("event: ")
		b.WriteString(e.Group)
		b.WriteString("\r\n")
	}
	for _, line := range splitLines(e.Content) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// Queue is a bounded FIFO of pending Events; Push drops the newest event on
// overflow and reports the drop so the caller can account for it in a stats
// counter (spec §3 "overflow drops the newest message and is reported via a
// counter"). Push runs on producer goroutines (sse_send) while Pop runs on
// the connection's service goroutine (next_response_chunk), so access is
// guarded by mu rather than left to the underlying eapache/queue, which is
// not goroutine-safe on its own.
type Queue struct {
	mu sync.Mutex
	q  *queue.Queue
}

// NewQueue constructs an empty Queue.
func NewQueue() *Queue {
	return &Queue{q: queue.New()}
}

// Push enqueues an event; it returns false (and drops e) if the queue is
// already at MaxQueueLen.
func (s *Queue) Push(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q.Length() >= MaxQueueLen {
		return false
	}
	s.q.Add(e)
	return true
}

// Pop removes and returns the oldest event, or false if empty.
func (s *Queue) Pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q.Length() == 0 {
		return Event{}, false
	}
	e := s.q.Remove().(Event)
	return e, true
}

// Len reports the number of pending events.
func (s *Queue) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Length()
}
