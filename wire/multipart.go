// File: wire/multipart.go
// Package wire — streaming multipart/form-data boundary parser (spec C4,
// §4.6), consumed by the RestAPI responder when RequestHeader.IsMultipart.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wire

import (
	"bytes"
	"strings"
)

// multipartState names the states of the streaming boundary parser.
type multipartState int

const (
	mpStart multipartState = iota
	mpStartBoundary
	mpHeaderFieldStart
	mpHeaderField
	mpHeaderValueStart
	mpHeaderValue
	mpHeaderValueGot
	mpHeadersAwaitFinalLF
	mpPartData
	mpEnd
)

// FormInfo carries the per-part metadata delivered alongside data bytes
// (spec §4.6): the form field name, optional filename, content type, and
// optional embedded CRC16/length metadata some multipart producers attach.
type FormInfo struct {
	Name        string
	Filename    string
	ContentType string
	CRC16       uint16
	HasCRC16    bool
	Length      int64
	HasLength   bool
}

// MultipartDataFunc receives a slice of one part's body as it streams in.
// contentPos is the offset of data within the part; isFinalPart indicates
// this call delivers the part's last chunk.
type MultipartDataFunc func(data []byte, form FormInfo, contentPos int64, isFinalPart bool)

// MultipartParser implements the streaming state machine of spec §4.6.
// Part data is handed to onData as slices of the caller's buffer when the
// part's closing boundary arrives in the same Feed call. When a Feed call
// ends inside part data, its last few bytes are held back (they may begin a
// boundary) and the next call's bytes are copied in behind them.
type MultipartParser struct {
	boundary    []byte
	dashBoundary []byte
	state       multipartState
	curName     string
	curFilename string
	curCType    string
	curField    strings.Builder
	curValue    strings.Builder
	partPos     int64
	residual    []byte
	onData      MultipartDataFunc
}

// NewMultipartParser builds a parser for the given boundary string (as
// extracted from Content-Type), delivering part bytes through onData.
func NewMultipartParser(boundary string, onData MultipartDataFunc) *MultipartParser {
	return &MultipartParser{
		boundary:     []byte(boundary),
		dashBoundary: []byte("--" + boundary),
		state:        mpStart,
		onData:       onData,
	}
}

// Feed processes another chunk of the request body. It is safe to call
// repeatedly as bytes arrive from the socket.
func (p *MultipartParser) Feed(chunk []byte) {
	if len(p.residual) > 0 {
		chunk = append(p.residual, chunk...)
		p.residual = nil
	}
	for len(chunk) > 0 && p.state != mpEnd {
		switch p.state {
		case mpStart, mpStartBoundary:
			idx := bytes.Index(chunk, p.dashBoundary)
			if idx < 0 {
				// Keep a small residual in case the boundary straddles chunks.
				if len(chunk) > len(p.dashBoundary) {
					p.residual = chunk[len(chunk)-len(p.dashBoundary):]
				} else {
					p.residual = chunk
				}
				return
			}
			rest := chunk[idx+len(p.dashBoundary):]
			if bytes.HasPrefix(rest, []byte("--")) {
				p.state = mpEnd
				return
			}
			nl := bytes.IndexByte(rest, '\n')
			if nl < 0 {
				p.residual = chunk[idx:]
				return
			}
			chunk = rest[nl+1:]
			p.state = mpHeaderFieldStart
			p.curName, p.curFilename, p.curCType = "", "", ""
			p.partPos = 0

		case mpHeaderFieldStart:
			if len(chunk) >= 2 && chunk[0] == '\r' && chunk[1] == '\n' {
				p.state = mpPartData
				chunk = chunk[2:]
				continue
			}
			if len(chunk) >= 1 && chunk[0] == '\n' {
				p.state = mpPartData
				chunk = chunk[1:]
				continue
			}
			if len(chunk) == 1 && chunk[0] == '\r' {
				// The blank line's LF has not arrived yet.
				p.residual = append([]byte(nil), chunk...)
				return
			}
			p.curField.Reset()
			p.state = mpHeaderField
		case mpHeaderField:
			idx := bytes.IndexByte(chunk, ':')
			if idx < 0 {
				p.curField.Write(chunk)
				return
			}
			p.curField.Write(chunk[:idx])
			chunk = chunk[idx+1:]
			p.state = mpHeaderValueStart
		case mpHeaderValueStart:
			chunk = bytes.TrimLeft(chunk, " ")
			p.curValue.Reset()
			p.state = mpHeaderValue
		case mpHeaderValue:
			idx := bytes.IndexByte(chunk, '\n')
			if idx < 0 {
				p.curValue.Write(chunk)
				return
			}
			line := chunk[:idx]
			line = bytes.TrimRight(line, "\r")
			p.curValue.Write(line)
			p.applyHeader(p.curField.String(), p.curValue.String())
			chunk = chunk[idx+1:]
			p.state = mpHeaderValueGot
		case mpHeaderValueGot:
			p.state = mpHeaderFieldStart
		case mpHeadersAwaitFinalLF:
			p.state = mpPartData
		case mpPartData:
			idx := bytes.Index(chunk, p.dashBoundary)
			form := FormInfo{Name: p.curName, Filename: p.curFilename, ContentType: p.curCType}
			if idx < 0 {
				// Hold back enough bytes for the CRLF that precedes a
				// boundary plus the boundary itself.
				keep := len(p.dashBoundary) + 2
				if len(chunk) <= keep {
					p.residual = append([]byte(nil), chunk...)
					return
				}
				emit := chunk[:len(chunk)-keep]
				p.emit(emit, form, false)
				p.residual = append([]byte(nil), chunk[len(chunk)-keep:]...)
				return
			}
			data := chunk[:idx]
			data = bytes.TrimSuffix(data, []byte("\r\n"))
			p.emit(data, form, true)
			chunk = chunk[idx:]
			p.state = mpStartBoundary
		}
	}
}

func (p *MultipartParser) emit(data []byte, form FormInfo, final bool) {
	if len(data) == 0 && !final {
		return
	}
	p.onData(data, form, p.partPos, final)
	p.partPos += int64(len(data))
}

func (p *MultipartParser) applyHeader(name, value string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "content-disposition":
		p.curName = paramValue(value, "name")
		p.curFilename = paramValue(value, "filename")
	case "content-type":
		p.curCType = strings.TrimSpace(value)
	}
}

// paramValue extracts `key="value"` from a header value such as
// `form-data; name="file"; filename="a.bin"`.
func paramValue(header, key string) string {
	lower := strings.ToLower(header)
	marker := key + "="
	idx := strings.Index(lower, marker)
	if idx < 0 {
		return ""
	}
	rest := header[idx+len(marker):]
	if strings.HasPrefix(rest, `"`) {
		rest = rest[1:]
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	if end := strings.IndexByte(rest, ';'); end >= 0 {
		return strings.TrimSpace(rest[:end])
	}
	return strings.TrimSpace(rest)
}

// Done reports whether the closing boundary has been observed.
func (p *MultipartParser) Done() bool { return p.state == mpEnd }
