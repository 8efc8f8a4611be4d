package responder_test

import (
	"testing"

	"github.com/momentics/weblet/protocol"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

func TestDataResponderStreamsAndDeactivates(t *testing.T) {
	d := responder.NewData("text/plain", []byte("hello world"))
	if d.ContentType() != "text/plain" || d.ContentLength() != 11 {
		t.Fatalf("unexpected content type/length")
	}
	buf := make([]byte, 4)
	var got []byte
	for {
		n, active := d.NextResponseChunk(buf)
		got = append(got, buf[:n]...)
		if !active {
			break
		}
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

type fakeChunker struct {
	data []byte
	pos  int
}

func (f *fakeChunker) NextChunk(buf []byte) (int, bool, error) {
	if f.pos >= len(f.data) {
		return 0, false, nil
	}
	n := copy(buf, f.data[f.pos:])
	f.pos += n
	return n, f.pos < len(f.data), nil
}
func (f *fakeChunker) Size() int64 { return int64(len(f.data)) }
func (f *fakeChunker) Close() error { return nil }

func TestFileResponderMIMEAndChunks(t *testing.T) {
	if got := responder.MIMEForFile("a/b/style.CSS"); got != "text/css" {
		t.Fatalf("MIMEForFile = %q", got)
	}
	if got := responder.MIMEForFile("noext"); got != "text/plain" {
		t.Fatalf("MIMEForFile default = %q", got)
	}

	f := responder.NewFile("a.bin", &fakeChunker{data: []byte("0123456789")})
	buf := make([]byte, 4)
	var got []byte
	for {
		n, active := f.NextResponseChunk(buf)
		got = append(got, buf[:n]...)
		if !active {
			break
		}
	}
	if string(got) != "0123456789" {
		t.Fatalf("got %q", got)
	}
}

func TestRestAPIBodyThenHandlerOnce(t *testing.T) {
	h := wire.NewRequestHeader()
	_ = h.Feed([]byte("POST /api/x HTTP/1.1\r\nContent-Length: 5\r\n\r\n"))
	if !h.Complete {
		t.Fatal("header should be complete")
	}

	calls := 0
	var gotBody []byte
	r := responder.NewRestAPI(h, "", func(header *wire.RequestHeader, params string) (string, error) {
		calls++
		return `{"ok":true}`, nil
	}, func(header *wire.RequestHeader, data []byte, pos, total int64) error {
		gotBody = append(gotBody, data...)
		return nil
	}, nil)

	if err := r.StartResponding(); err != nil {
		t.Fatalf("StartResponding: %v", err)
	}
	if err := r.HandleData([]byte("hello")); err != nil {
		t.Fatalf("HandleData: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handlerFn called %d times, want 1", calls)
	}
	if string(gotBody) != "hello" {
		t.Fatalf("body = %q", gotBody)
	}
	if r.ContentType() != "text/json" {
		t.Fatalf("content type = %q", r.ContentType())
	}

	buf := make([]byte, 64)
	n, active := r.NextResponseChunk(buf)
	if active {
		t.Fatal("expected responder to deactivate after one chunk")
	}
	if string(buf[:n]) != `{"ok":true}` {
		t.Fatalf("response = %q", buf[:n])
	}
}

func TestWebSocketResponderHandshakeThenEcho(t *testing.T) {
	var evts []protocol.EventType
	w := responder.NewWebSocket("dGhlIHNhbXBsZSBub25jZQ==", 50, 0, nil, nil, func(evt protocol.EventType, payload []byte) {
		evts = append(evts, evt)
	})

	buf := make([]byte, 256)
	n, active := w.NextResponseChunk(buf)
	if !active {
		t.Fatal("expected still active after handshake chunk")
	}
	if n == 0 {
		t.Fatal("expected handshake bytes")
	}

	client, err := protocol.EncodeFrame(protocol.OpcodeBinary, []byte{0x07}, true)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if err := w.HandleData(client); err != nil {
		t.Fatalf("HandleData: %v", err)
	}

	if err := w.SendFrame([]byte{0x07}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	n, _ = w.NextResponseChunk(buf)
	if n == 0 {
		t.Fatal("expected an outbound frame drained")
	}
	if buf[0] != 0x82 {
		t.Fatalf("frame header = %#x, want 0x82", buf[0])
	}

	if w.ProtocolChannelID() != 50 {
		t.Fatalf("channel id = %d", w.ProtocolChannelID())
	}
	if !w.ReadyForData() {
		t.Fatal("expected ready (nil predicate)")
	}
}

func TestSSEventsPreambleThenEvent(t *testing.T) {
	s := responder.NewSSEvents(func() int64 { return 0 })
	buf := make([]byte, 256)
	n, active := s.NextResponseChunk(buf)
	if !active || n == 0 {
		t.Fatal("expected preamble chunk")
	}

	_ = s.SendEvent("hello", "chat")
	n, active = s.NextResponseChunk(buf)
	if !active {
		t.Fatal("SSE responder must never deactivate")
	}
	if n == 0 {
		t.Fatal("expected formatted event bytes")
	}
	got := string(buf[:n])
	if got != "event: chat\r\ndata: hello\r\n\r\n" {
		t.Fatalf("got %q", got)
	}
}
