// File: wire/header.go
// Package wire implements the incremental HTTP/1.1 request-line and header
// parser driven by Connection (spec C2, §4.2).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wire

import (
	"errors"
	"strconv"
	"strings"

	"github.com/momentics/weblet/api"
)

// Method enumerates the recognized HTTP request methods (spec §3).
type Method int

const (
	MethodNone Method = iota
	MethodGET
	MethodPOST
	MethodDELETE
	MethodPUT
	MethodPATCH
	MethodHEAD
	MethodOPTIONS
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodPOST:
		return "POST"
	case MethodDELETE:
		return "DELETE"
	case MethodPUT:
		return "PUT"
	case MethodPATCH:
		return "PATCH"
	case MethodHEAD:
		return "HEAD"
	case MethodOPTIONS:
		return "OPTIONS"
	default:
		return "NONE"
	}
}

var methodTable = map[string]Method{
	"GET":     MethodGET,
	"POST":    MethodPOST,
	"DELETE":  MethodDELETE,
	"PUT":     MethodPUT,
	"PATCH":   MethodPATCH,
	"HEAD":    MethodHEAD,
	"OPTIONS": MethodOPTIONS,
}

// MaxHeaderPairs caps the stored name/value pairs; excess is silently
// dropped (spec §3).
const MaxHeaderPairs = 20

// ErrMalformedHeader is returned when the request line cannot be parsed.
var ErrMalformedHeader = errors.New("malformed request header")

// RequestHeader accumulates incrementally as bytes arrive, mirroring the
// field set of spec §3.
type RequestHeader struct {
	Method       Method
	URIAndParams string
	URL          string
	Params       string
	Version      string

	Headers []api.HeaderPair

	Host           string
	ContentType    string
	ContentLength  int64
	Authorization  string
	IsDigest       bool
	IsMultipart    bool
	MultipartBound string
	IsContinue     bool
	ConnType       api.ConnType

	WSKey     string
	WSVersion string

	FirstLineSeen bool
	Complete      bool

	partial string // bytes accumulated for a not-yet-terminated line
}

// NewRequestHeader returns a fresh, empty header ready to accept Feed calls.
func NewRequestHeader() *RequestHeader {
	return &RequestHeader{ContentLength: -1}
}

// Reset clears the header for slot reuse (spec §3 lifecycle: "cleared on
// slot reuse").
func (h *RequestHeader) Reset() {
	*h = RequestHeader{ContentLength: -1}
}

// DrainBodyTail returns and clears any bytes fed past the header-terminating
// blank line — the unread tail of the read buffer Connection must forward to
// the Responder via handle_data (spec §4.3 step 7).
func (h *RequestHeader) DrainBodyTail() []byte {
	if h.partial == "" {
		return nil
	}
	tail := []byte(h.partial)
	h.partial = ""
	return tail
}

// Feed consumes buf, splitting on '\n' and dispatching complete lines to
// the request-line/header-line parsers. Once the blank line completes the
// header, any bytes after it are kept for DrainBodyTail rather than parsed.
// Returns ErrMalformedHeader on an unparseable request line, nil otherwise.
func (h *RequestHeader) Feed(buf []byte) error {
	h.partial += string(buf)
	for {
		idx := strings.IndexByte(h.partial, '\n')
		if idx < 0 {
			return nil
		}
		line := h.partial[:idx]
		h.partial = h.partial[idx+1:]
		line = strings.TrimRight(line, "\r")

		if line == "" {
			if h.FirstLineSeen {
				h.Complete = true
				return nil
			}
			continue
		}

		if !h.FirstLineSeen {
			if err := h.parseRequestLine(line); err != nil {
				return err
			}
			h.FirstLineSeen = true
			continue
		}

		h.parseHeaderLine(line)

		if h.Complete {
			return nil
		}
	}
}

func (h *RequestHeader) parseRequestLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return ErrMalformedHeader
	}
	method, ok := methodTable[strings.ToUpper(parts[0])]
	if !ok {
		return ErrMalformedHeader
	}
	h.Method = method
	h.Version = parts[2]

	decoded := percentDecode(parts[1])
	h.URIAndParams = decoded
	if q := strings.IndexByte(decoded, '?'); q >= 0 {
		h.URL = decoded[:q]
		h.Params = decoded[q+1:]
	} else {
		h.URL = decoded
		h.Params = ""
	}
	return nil
}

func (h *RequestHeader) parseHeaderLine(line string) {
	sep := strings.IndexByte(line, ':')
	if sep < 0 {
		return
	}
	name := strings.TrimSpace(line[:sep])
	value := strings.TrimSpace(line[sep+1:])

	if len(h.Headers) < MaxHeaderPairs {
		h.Headers = append(h.Headers, api.HeaderPair{Name: name, Value: value})
	}

	switch strings.ToLower(name) {
	case "host":
		h.Host = value
	case "content-type":
		ct := value
		if sc := strings.IndexByte(ct, ';'); sc >= 0 {
			ct = ct[:sc]
		}
		ct = strings.TrimSpace(ct)
		h.ContentType = ct
		if strings.HasPrefix(strings.ToLower(ct), "multipart/") {
			h.IsMultipart = true
			h.MultipartBound = extractBoundary(value)
		}
	case "content-length":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			h.ContentLength = n
		}
	case "expect":
		if strings.EqualFold(strings.TrimSpace(value), "100-continue") {
			h.IsContinue = true
		}
	case "authorization":
		sp := strings.IndexByte(value, ' ')
		if sp >= 0 {
			scheme := value[:sp]
			rest := strings.TrimSpace(value[sp+1:])
			h.Authorization = rest
			if strings.EqualFold(scheme, "Digest") {
				h.IsDigest = true
			}
		}
	case "upgrade":
		if strings.EqualFold(strings.TrimSpace(value), "websocket") {
			h.ConnType = api.ConnWebSocket
		}
	case "accept":
		if strings.Contains(strings.ToLower(value), "text/event-stream") {
			h.ConnType = api.ConnEvent
		}
	case "sec-websocket-key":
		h.WSKey = value
	case "sec-websocket-version":
		h.WSVersion = value
	}
}

// extractBoundary pulls the boundary= value out of a Content-Type header,
// stripping surrounding quotes (spec §4.2).
func extractBoundary(contentType string) string {
	idx := strings.Index(strings.ToLower(contentType), "boundary=")
	if idx < 0 {
		return ""
	}
	b := contentType[idx+len("boundary="):]
	if sc := strings.IndexByte(b, ';'); sc >= 0 {
		b = b[:sc]
	}
	b = strings.TrimSpace(b)
	b = strings.Trim(b, `"`)
	return b
}

// percentDecode applies %XX hex and '+' → space decoding (spec §4.2). Unlike
// net/url.QueryUnescape it never errors on a malformed escape; it passes the
// literal bytes through, matching the permissive parsing the embedded
// original performs.
func percentDecode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			b.WriteByte(' ')
		case '%':
			if i+2 < len(s) {
				if v, ok := hexByte(s[i+1], s[i+2]); ok {
					b.WriteByte(v)
					i += 2
					continue
				}
			}
			b.WriteByte('%')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexDigit(hi)
	l, ok2 := hexDigit(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
