// File: protocol/constants.go
// Package protocol implements the RFC 6455 WebSocket server-side handshake,
// frame codec and ping service (spec C3, §4.5).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

const (
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA

	// MaxFramePayload is the maximum total frame size (header+payload) the
	// engine will encode or decode (spec §4.5/§6).
	MaxFramePayload = 5000

	// MaxResidualBuffer bounds the decoder's buffered-but-incomplete frame
	// data; if exceeded the buffer is dropped and the frame abandoned
	// (spec §4.5).
	MaxResidualBuffer = MaxFramePayload + 50

	finBit  = 0x80
	maskBit = 0x80

	// CloseNormal is the close code the engine echoes on receiving a CLOSE
	// frame (spec §4.5).
	CloseNormal = 1000
)

// WebSocketGUID is the fixed RFC 6455 handshake magic string.
const WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
