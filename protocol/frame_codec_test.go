package protocol_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/momentics/weblet/protocol"
)

func TestEncodeDecodeBinaryRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	framed, err := protocol.EncodeFrame(protocol.OpcodeBinary, payload, false)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if framed[0] != 0x82 {
		t.Fatalf("header byte0 = %#x, want 0x82 (FIN=1, opcode=BINARY)", framed[0])
	}
	if framed[1] != byte(len(payload)) {
		t.Fatalf("length byte = %#x, want %#x", framed[1], len(payload))
	}

	frame, n, err := protocol.DecodeFrame(framed)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(framed) {
		t.Fatalf("consumed %d bytes, want %d", n, len(framed))
	}
	if !frame.Fin || frame.Opcode != protocol.OpcodeBinary {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload = %v, want %v", frame.Payload, payload)
	}
}

func TestDecodeFrameIncomplete(t *testing.T) {
	framed, _ := protocol.EncodeFrame(protocol.OpcodeText, []byte("hello"), false)
	frame, n, err := protocol.DecodeFrame(framed[:3])
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame != nil || n != 0 {
		t.Fatalf("expected incomplete decode, got frame=%v n=%d", frame, n)
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	big := strings.Repeat("x", protocol.MaxFramePayload)
	if _, err := protocol.EncodeFrame(protocol.OpcodeBinary, []byte(big), false); err != protocol.ErrFrameTooLarge {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestDecodeMaskedFrame(t *testing.T) {
	payload := []byte("masked-payload")
	framed, err := protocol.EncodeFrame(protocol.OpcodeText, payload, true)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	frame, n, err := protocol.DecodeFrame(framed)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(framed) {
		t.Fatalf("consumed %d, want %d", n, len(framed))
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload = %q, want %q", frame.Payload, payload)
	}
}
