// File: protocol/link.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WebSocketLink drives the frame codec over a per-connection byte stream:
// fragment reassembly, control-frame auto-reply, and the ping service
// (spec C3, §4.5).

package protocol

import (
	"time"
)

// EventType enumerates the events a Link delivers to its owner.
type EventType int

const (
	EventConnect EventType = iota
	EventDisconnectExternal
	EventDisconnectInternal
	EventError
	EventText
	EventBinary
	EventPing
	EventPong
)

// RawSendFunc writes raw bytes to the underlying connection.
type RawSendFunc func([]byte) error

// EventFunc receives link-level events; payload is populated for
// TEXT/BINARY/PING/PONG.
type EventFunc func(evt EventType, payload []byte)

// pingPayload is the fixed 3-byte ping payload the engine sends (spec §4.5).
var pingPayload = []byte{0x01, 0x02, 0x03}

// Link implements the server-side role of RFC 6455 on top of a byte sink
// supplied by the Connection (rawSend) and a receive-event sink (onEvent).
type Link struct {
	rawSend      RawSendFunc
	onEvent      EventFunc
	pingInterval time.Duration
	lastPing     time.Time

	residual []byte

	fragActive bool
	fragOpcode byte
	fragBuf    []byte

	ignoreUntilFinal bool
	active           bool
}

// NewLink constructs a Link. pingInterval == 0 disables the ping service.
func NewLink(rawSend RawSendFunc, onEvent EventFunc, pingInterval time.Duration) *Link {
	l := &Link{
		rawSend:      rawSend,
		onEvent:      onEvent,
		pingInterval: pingInterval,
		lastPing:     time.Now(),
		active:       true,
	}
	l.emit(EventConnect, nil)
	return l
}

// Active reports whether the link is still usable for sending.
func (l *Link) Active() bool { return l.active }

func (l *Link) emit(evt EventType, payload []byte) {
	if l.onEvent != nil {
		l.onEvent(evt, payload)
	}
}

// Feed appends newly received bytes and decodes as many complete frames as
// are buffered (spec §4.5 "buffered byte sink").
func (l *Link) Feed(data []byte) {
	if !l.active {
		return
	}
	l.residual = append(l.residual, data...)
	for {
		frame, n, err := DecodeFrame(l.residual)
		if err != nil {
			// Oversized frame: abandon buffered bytes and ignore until the
			// eventual FIN of this (oversized) message (spec §4.5).
			l.residual = nil
			l.ignoreUntilFinal = true
			return
		}
		if frame == nil {
			if len(l.residual) > MaxResidualBuffer {
				l.residual = nil
				l.ignoreUntilFinal = true
			}
			return
		}
		l.residual = l.residual[n:]
		l.handleFrame(frame)
		if !l.active {
			return
		}
	}
}

func (l *Link) handleFrame(f *Frame) {
	switch f.Opcode {
	case OpcodeClose:
		_ = l.rawSendFrame(OpcodeClose, []byte{0x03, 0xE8})
		l.active = false
		l.emit(EventDisconnectExternal, nil)
		return
	case OpcodePing:
		_ = l.rawSendFrame(OpcodePong, f.Payload)
		l.emit(EventPing, f.Payload)
		return
	case OpcodePong:
		l.emit(EventPong, f.Payload)
		return
	}

	if l.ignoreUntilFinal {
		if f.Fin {
			l.ignoreUntilFinal = false
		}
		return
	}

	switch f.Opcode {
	case OpcodeText, OpcodeBinary:
		if f.Fin {
			l.deliverMessage(f.Opcode, f.Payload)
			return
		}
		l.fragActive = true
		l.fragOpcode = f.Opcode
		l.fragBuf = append([]byte(nil), f.Payload...)
	case OpcodeContinuation:
		if !l.fragActive {
			return
		}
		l.fragBuf = append(l.fragBuf, f.Payload...)
		if len(l.fragBuf) >= MaxFramePayload {
			l.fragActive = false
			l.fragBuf = nil
			l.ignoreUntilFinal = !f.Fin
			return
		}
		if f.Fin {
			l.fragActive = false
			l.deliverMessage(l.fragOpcode, l.fragBuf)
			l.fragBuf = nil
		}
	}
}

func (l *Link) deliverMessage(opcode byte, payload []byte) {
	if opcode == OpcodeText {
		l.emit(EventText, payload)
	} else {
		l.emit(EventBinary, payload)
	}
}

func (l *Link) rawSendFrame(opcode byte, payload []byte) error {
	frame, err := EncodeFrame(opcode, payload, false)
	if err != nil {
		return err
	}
	if l.rawSend == nil {
		return nil
	}
	return l.rawSend(frame)
}

// SendText sends a TEXT message, refusing messages whose framed size would
// reach MaxFramePayload (spec §4.5).
func (l *Link) SendText(payload []byte) error { return l.rawSendFrame(OpcodeText, payload) }

// SendBinary sends a BINARY message.
func (l *Link) SendBinary(payload []byte) error { return l.rawSendFrame(OpcodeBinary, payload) }

// Tick runs the ping service: if the configured interval has elapsed since
// the last ping, a PING frame is sent and the timer resets (spec §4.5).
func (l *Link) Tick(now time.Time) {
	if !l.active || l.pingInterval <= 0 {
		return
	}
	if now.Sub(l.lastPing) < l.pingInterval {
		return
	}
	if err := l.rawSendFrame(OpcodePing, pingPayload); err != nil {
		l.active = false
		l.emit(EventDisconnectInternal, nil)
		return
	}
	l.lastPing = now
}

// Close marks the link inactive without sending a CLOSE frame (used when
// the underlying connection has already failed).
func (l *Link) Close() {
	if l.active {
		l.active = false
		l.emit(EventDisconnectInternal, nil)
	}
}
