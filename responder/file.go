// File: responder/file.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package responder

import "strings"

// FileChunker abstracts reading successive chunks from backing storage,
// grounded on the dropped distillation detail restored from
// FileSystemChunker.h: a file responder never holds the whole file in
// memory, it pulls one chunk at a time.
type FileChunker interface {
	// NextChunk copies up to len(buf) bytes and reports bytes written plus
	// whether more data remains.
	NextChunk(buf []byte) (n int, more bool, err error)
	// Size reports the total file size, or -1 if unknown.
	Size() int64
	Close() error
}

// extensionMIME is the fixed suffix→MIME table (spec §4.7); unmatched
// suffixes default to text/plain.
var extensionMIME = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".json":  "application/json",
	".js":    "application/javascript",
	".png":   "image/png",
	".gif":   "image/gif",
	".jpg":   "image/jpeg",
	".ico":   "image/x-icon",
	".svg":   "image/svg+xml",
	".eot":   "application/vnd.ms-fontobject",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".xml":   "text/xml",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".gz":    "application/gzip",
}

// MIMEForFile returns the MIME type inferred from name's suffix (spec
// §4.7), defaulting to text/plain.
func MIMEForFile(name string) string {
	for ext, mime := range extensionMIME {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return mime
		}
	}
	return "text/plain"
}

// File serves a chunked file via an external FileChunker (spec §4.7
// "File").
type File struct {
	contentType string
	chunker     FileChunker
	active      bool
}

// NewFile constructs a File responder; name is used only to infer the
// content type.
func NewFile(name string, chunker FileChunker) *File {
	return &File{contentType: MIMEForFile(name), chunker: chunker, active: true}
}

func (f *File) ContentType() string  { return f.contentType }
func (f *File) ContentLength() int64 { return f.chunker.Size() }
func (f *File) LeavesConnectionOpen() bool { return false }
func (f *File) NeedsStandardHeaders() bool { return true }
func (f *File) StartResponding() error     { return nil }
func (f *File) HandleData(data []byte) error { return nil }

func (f *File) NextResponseChunk(buf []byte) (int, bool) {
	if !f.active {
		return 0, false
	}
	n, more, err := f.chunker.NextChunk(buf)
	if err != nil || !more {
		f.active = false
		_ = f.chunker.Close()
	}
	return n, f.active
}

var _ Responder = (*File)(nil)
