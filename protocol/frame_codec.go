// File: protocol/frame_codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RFC 6455 frame encoder/decoder enforcing the engine's 5000 B frame size
// ceiling (spec §4.5/§6).

package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
)

// ErrFrameTooLarge is returned when an outbound frame would reach or exceed
// MaxFramePayload once framed, or an inbound frame announces a length that
// would.
var ErrFrameTooLarge = errors.New("websocket frame exceeds maximum size")

// Frame is a decoded WebSocket frame delivered to the higher layer.
type Frame struct {
	Fin     bool
	Opcode  byte
	Payload []byte
}

// EncodeFrame serializes a FIN=1 frame with the given opcode and payload.
// mask controls whether the frame is masked; the engine runs as server role
// and therefore never masks outbound frames (spec §4.5), but the encoder
// supports both for completeness and for tests that exercise the client
// side of the wire format.
func EncodeFrame(opcode byte, payload []byte, mask bool) ([]byte, error) {
	var header []byte
	header = append(header, finBit|(opcode&0x0F))

	plen := len(payload)
	switch {
	case plen <= 125:
		b := byte(plen)
		if mask {
			b |= maskBit
		}
		header = append(header, b)
	case plen <= 0xFFFF:
		b := byte(126)
		if mask {
			b |= maskBit
		}
		header = append(header, b)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(plen))
		header = append(header, lenBuf[:]...)
	default:
		b := byte(127)
		if mask {
			b |= maskBit
		}
		header = append(header, b)
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(plen))
		header = append(header, lenBuf[:]...)
	}

	total := len(header) + plen
	if mask {
		total += 4
	}
	if total >= MaxFramePayload {
		return nil, ErrFrameTooLarge
	}

	out := make([]byte, 0, total)
	out = append(out, header...)
	if mask {
		var maskKey [4]byte
		for {
			if _, err := rand.Read(maskKey[:]); err != nil {
				return nil, err
			}
			if maskKey != [4]byte{} {
				break
			}
		}
		out = append(out, maskKey[:]...)
		masked := make([]byte, plen)
		for i := 0; i < plen; i++ {
			masked[i] = payload[i] ^ maskKey[i%4]
		}
		out = append(out, masked...)
	} else {
		out = append(out, payload...)
	}
	return out, nil
}

// DecodeFrame parses a single frame from the front of buf. It returns the
// decoded frame and the number of bytes consumed. If buf does not yet
// contain a complete frame, it returns (nil, 0, nil) so the caller can wait
// for more bytes (spec §4.5).
func DecodeFrame(buf []byte) (*Frame, int, error) {
	if len(buf) < 2 {
		return nil, 0, nil
	}
	fin := buf[0]&finBit != 0
	opcode := buf[0] & 0x0F
	masked := buf[1]&maskBit != 0
	length := int64(buf[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(buf) < offset+2 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(buf[offset:]))
		offset += 2
	case 127:
		if len(buf) < offset+8 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint64(buf[offset:]))
		offset += 8
	}

	if offset+int(length) >= MaxFramePayload && length > 0 {
		return nil, 0, ErrFrameTooLarge
	}

	var maskKey [4]byte
	if masked {
		if len(buf) < offset+4 {
			return nil, 0, nil
		}
		copy(maskKey[:], buf[offset:offset+4])
		offset += 4
	}

	total := offset + int(length)
	if len(buf) < total {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	copy(payload, buf[offset:total])
	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}

	return &Frame{Fin: fin, Opcode: opcode, Payload: payload}, total, nil
}
