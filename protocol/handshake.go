// File: protocol/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server-side RFC 6455 handshake reply computation.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
)

// AcceptKey computes the Sec-WebSocket-Accept value for the given
// Sec-WebSocket-Key (spec §4.5). The Sec-WebSocket-Version header is not
// validated here: the source firmware ignores it, and per spec.md's open
// question this engine carries it forward unchanged rather than rejecting
// the handshake on a missing/mismatched version.
func AcceptKey(wsKey string) string {
	h := sha1.New()
	h.Write([]byte(wsKey))
	h.Write([]byte(WebSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// HandshakeResponse renders the literal HTTP/1.1 101 Switching Protocols
// reply bytes (spec §4.5).
func HandshakeResponse(wsKey string) []byte {
	accept := AcceptKey(wsKey)
	return []byte("HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n\r\n")
}
