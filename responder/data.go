// File: responder/data.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package responder

// Data serves a fixed in-memory blob (spec §4.7 "Data").
type Data struct {
	contentType string
	blob        []byte
	sent        int
}

// NewData constructs a Data responder over blob with the given content
// type, captured at construction time (spec §4.7).
func NewData(contentType string, blob []byte) *Data {
	return &Data{contentType: contentType, blob: blob}
}

func (d *Data) ContentType() string          { return d.contentType }
func (d *Data) ContentLength() int64         { return int64(len(d.blob)) }
func (d *Data) LeavesConnectionOpen() bool   { return false }
func (d *Data) NeedsStandardHeaders() bool   { return true }
func (d *Data) StartResponding() error       { return nil }
func (d *Data) HandleData(data []byte) error { return nil }

func (d *Data) NextResponseChunk(buf []byte) (int, bool) {
	remaining := len(d.blob) - d.sent
	if remaining <= 0 {
		return 0, false
	}
	n := copy(buf, d.blob[d.sent:])
	d.sent += n
	return n, d.sent < len(d.blob)
}

var (
	_ Responder = (*Data)(nil)
)
