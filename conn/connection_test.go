package conn_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/conn"
	"github.com/momentics/weblet/control"
	"github.com/momentics/weblet/handler"
	"github.com/momentics/weblet/pool"
	"github.com/momentics/weblet/protocol"
	"github.com/momentics/weblet/wire"
)

type fakeConn struct {
	reads  [][]byte
	idx    int
	writes [][]byte
	closed bool
}

func (f *fakeConn) Recv(buf []byte) (int, api.RecvStatus, error) {
	if f.idx >= len(f.reads) {
		return 0, api.RecvWouldBlock, nil
	}
	chunk := f.reads[f.idx]
	f.idx++
	n := copy(buf, chunk)
	return n, api.RecvOK, nil
}

func (f *fakeConn) Send(buf []byte) (int, error) {
	cp := append([]byte(nil), buf...)
	f.writes = append(f.writes, cp)
	return len(buf), nil
}

func (f *fakeConn) Close() error { f.closed = true; return nil }

func (f *fakeConn) RemoteAddr() string { return "127.0.0.1:1234" }

func newManager(t *testing.T) *conn.Manager {
	t.Helper()
	reg := handler.NewRegistry(false, 1)
	reg.AddHandler(handler.NewStaticData("root", "/", "text/html", []byte("<h1>hi</h1>")))
	bp := pool.NewBytePool(pool.StackThreshold + 1)
	ctr := control.NewCounters(2)
	return conn.NewManager(2, bp, 512, nil, reg, ctr)
}

func (f *fakeConn) allWrites() []byte {
	var out []byte
	for _, w := range f.writes {
		out = append(out, w...)
	}
	return out
}

func TestConnectionServesStaticDataEndToEnd(t *testing.T) {
	m := newManager(t)
	fc := &fakeConn{reads: [][]byte{[]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")}}

	if !m.OnNewConnection(fc) {
		t.Fatal("expected OnNewConnection to accept")
	}

	now := time.Now()
	for i := 0; i < 10 && !fc.closed; i++ {
		m.Service(now)
	}

	if !fc.closed {
		t.Fatal("expected connection closed after response")
	}
	out := string(fc.allWrites())
	if want := "HTTP/1.1 200 OK\r\n"; len(out) < len(want) || out[:len(want)] != want {
		t.Fatalf("response = %q, want prefix %q", out, want)
	}
	if !strings.Contains(out, "<h1>hi</h1>") {
		t.Fatalf("response missing body: %q", out)
	}
}

func TestConnectionReturns404ForUnmatchedPath(t *testing.T) {
	m := newManager(t)
	fc := &fakeConn{reads: [][]byte{[]byte("GET /missing HTTP/1.1\r\n\r\n")}}
	m.OnNewConnection(fc)

	now := time.Now()
	for i := 0; i < 10 && !fc.closed; i++ {
		m.Service(now)
	}
	if !fc.closed {
		t.Fatal("expected connection closed")
	}
	out := string(fc.allWrites())
	if want := "HTTP/1.1 404 Not Found\r\n"; len(out) < len(want) || out[:len(want)] != want {
		t.Fatalf("response = %q, want prefix %q", out, want)
	}
}

func TestConnectionReturns400ForMalformedRequestLine(t *testing.T) {
	m := newManager(t)
	fc := &fakeConn{reads: [][]byte{[]byte("NOTAMETHOD / HTTP/1.1\r\n\r\n")}}
	m.OnNewConnection(fc)

	now := time.Now()
	for i := 0; i < 10 && !fc.closed; i++ {
		m.Service(now)
	}
	if !fc.closed {
		t.Fatal("expected connection closed")
	}
	out := string(fc.allWrites())
	if want := "HTTP/1.1 400 Bad Request\r\n"; len(out) < len(want) || out[:len(want)] != want {
		t.Fatalf("response = %q, want prefix %q", out, want)
	}
}

func TestManagerPendingQueueOverflowRefuses(t *testing.T) {
	m := newManager(t)
	accepted := 0
	for i := 0; i < conn.MaxPendingQueue+5; i++ {
		if m.OnNewConnection(&fakeConn{}) {
			accepted++
		}
	}
	if accepted != conn.MaxPendingQueue {
		t.Fatalf("accepted %d, want %d", accepted, conn.MaxPendingQueue)
	}
}

// TestConnectionDelaysRestAPIHeadersUntilFirstChunk guards the fix to
// sendStep's header-emission gate: a RestAPI responder whose body spans two
// reads must not see its status line flushed on the intermediate
// n==0/active==true tick, only once runHandler has produced real output.
func TestConnectionDelaysRestAPIHeadersUntilFirstChunk(t *testing.T) {
	reg := handler.NewRegistry(false, 0)
	reg.AddHandler(handler.NewRestAPI("api", "/api", func(path string, method wire.Method) (handler.Endpoint, bool) {
		return handler.Endpoint{
			HandlerFn: func(h *wire.RequestHeader, params string) (string, error) {
				return `{"ok":true}`, nil
			},
		}, true
	}))
	bp := pool.NewBytePool(pool.StackThreshold + 1)
	ctr := control.NewCounters(1)
	m := conn.NewManager(1, bp, 512, nil, reg, ctr)

	fc := &fakeConn{reads: [][]byte{
		[]byte("POST /api/x HTTP/1.1\r\nContent-Length: 10\r\n\r\nHELLO"),
		[]byte("WORLD"),
	}}
	if !m.OnNewConnection(fc) {
		t.Fatal("expected OnNewConnection to accept")
	}

	now := time.Now()
	m.Service(now)
	if len(fc.writes) != 0 {
		t.Fatalf("expected no bytes written before the body completed, got %q", fc.allWrites())
	}

	for i := 0; i < 10 && !fc.closed; i++ {
		m.Service(now)
	}
	if !fc.closed {
		t.Fatal("expected connection closed after response")
	}
	out := string(fc.allWrites())
	if want := "HTTP/1.1 200 OK\r\n"; len(out) < len(want) || out[:len(want)] != want {
		t.Fatalf("response = %q, want prefix %q", out, want)
	}
	if !strings.Contains(out, `{"ok":true}`) {
		t.Fatalf("response missing body: %q", out)
	}
}

func newManagerWithWebSocket(t *testing.T) *conn.Manager {
	t.Helper()
	reg := handler.NewRegistry(false, 1)
	reg.AddHandler(handler.NewWebSocket("ws", "/ws", handler.DefaultChannelIDBase, 1, 0, nil, nil,
		func(id int, evt protocol.EventType, payload []byte) {}))
	bp := pool.NewBytePool(pool.StackThreshold + 1)
	ctr := control.NewCounters(1)
	return conn.NewManager(1, bp, 512, nil, reg, ctr)
}

// TestManagerWSCanSendDoesNotRecurse guards the fix for the infinite
// recursion between WSCanSend and ReadyForData: a connected WS channel must
// answer WSCanSend (and a full Service tick must service it) without
// overflowing the stack.
func TestManagerWSCanSendDoesNotRecurse(t *testing.T) {
	m := newManagerWithWebSocket(t)
	fc := &fakeConn{reads: [][]byte{
		[]byte("GET /ws HTTP/1.1\r\nUpgrade: websocket\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"),
	}}
	if !m.OnNewConnection(fc) {
		t.Fatal("expected OnNewConnection to accept")
	}

	now := time.Now()
	for i := 0; i < 5; i++ {
		m.Service(now)
	}

	if !m.WSCanSend(handler.DefaultChannelIDBase) {
		t.Fatal("expected channel ready to send")
	}
	if !m.WSSend([]byte("hi"), false, handler.DefaultChannelIDBase) {
		t.Fatal("expected WSSend to succeed")
	}
	m.Service(now)
	if len(fc.writes) < 2 {
		t.Fatalf("expected handshake plus frame write, got %d writes", len(fc.writes))
	}
}

// TestManagerFanoutUnderConcurrentProducers exercises WSSend/SSESend/
// WSCanSend from multiple producer goroutines while the service goroutine
// keeps ticking, matching the concurrency shape the fanout registry must
// tolerate (spec §5): producers never touch m.slots directly, only the
// regMu-guarded snapshot and each responder's own locked queue.
func TestManagerFanoutUnderConcurrentProducers(t *testing.T) {
	m := newManagerWithWebSocket(t)
	fc := &fakeConn{reads: [][]byte{
		[]byte("GET /ws HTTP/1.1\r\nUpgrade: websocket\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"),
	}}
	m.OnNewConnection(fc)
	now := time.Now()
	for i := 0; i < 5; i++ {
		m.Service(now)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				m.Service(now)
			}
		}
	}()

	var producers sync.WaitGroup
	for i := 0; i < 4; i++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for j := 0; j < 200; j++ {
				m.WSCanSend(handler.DefaultChannelIDBase)
				m.WSSend([]byte("x"), true, handler.DefaultChannelIDBase)
				m.SSESend("hello", "chat")
			}
		}()
	}
	producers.Wait()
	close(stop)
	wg.Wait()
}
