// File: responder/restapi.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package responder

import (
	"github.com/momentics/weblet/wire"
)

// HandlerFunc is invoked exactly once, after the full request body has
// arrived, to produce the JSON response body (spec §4.7 "RestAPI").
type HandlerFunc func(header *wire.RequestHeader, params string) (string, error)

// BodyFunc receives successive non-multipart body slices.
type BodyFunc func(header *wire.RequestHeader, data []byte, pos, total int64) error

// UploadFunc receives successive multipart data slices.
type UploadFunc func(filename string, totalLen, pos int64, data []byte, isFinal bool)

// RestAPI dispatches a matched endpoint's body/upload callbacks as bytes
// arrive, then calls handlerFn exactly once with the accumulated request
// (spec §4.7 "RestAPI").
type RestAPI struct {
	header     *wire.RequestHeader
	params     string
	handlerFn  HandlerFunc
	bodyFn     BodyFunc
	uploadFn   UploadFunc
	mp         *wire.MultipartParser
	received   int64
	response   string
	sent       int
	ready      bool
	handlerErr error
}

// NewRestAPI constructs a RestAPI responder for a matched endpoint.
func NewRestAPI(header *wire.RequestHeader, params string, handlerFn HandlerFunc, bodyFn BodyFunc, uploadFn UploadFunc) *RestAPI {
	r := &RestAPI{
		header:    header,
		params:    params,
		handlerFn: handlerFn,
		bodyFn:    bodyFn,
		uploadFn:  uploadFn,
	}
	if header.IsMultipart {
		r.mp = wire.NewMultipartParser(header.MultipartBound, func(data []byte, form wire.FormInfo, pos int64, final bool) {
			if r.uploadFn != nil {
				r.uploadFn(form.Filename, header.ContentLength, pos, data, final)
			}
		})
	}
	return r
}

func (r *RestAPI) ContentType() string          { return "text/json" }
func (r *RestAPI) ContentLength() int64         { return -1 }
func (r *RestAPI) LeavesConnectionOpen() bool   { return false }
func (r *RestAPI) NeedsStandardHeaders() bool   { return true }

// StartResponding triggers the handler immediately for bodyless requests
// (content length 0 or unknown and no bytes ever arrive).
func (r *RestAPI) StartResponding() error {
	if r.header.ContentLength <= 0 {
		return r.runHandler()
	}
	return nil
}

func (r *RestAPI) HandleData(data []byte) error {
	if r.header.IsMultipart {
		r.mp.Feed(data)
	} else if r.bodyFn != nil {
		if err := r.bodyFn(r.header, data, r.received, r.header.ContentLength); err != nil {
			return err
		}
	}
	r.received += int64(len(data))
	if r.received >= r.header.ContentLength {
		return r.runHandler()
	}
	return nil
}

func (r *RestAPI) runHandler() error {
	if r.ready {
		return nil
	}
	resp, err := r.handlerFn(r.header, r.params)
	if err != nil {
		r.handlerErr = err
		r.ready = true
		return err
	}
	r.response = resp
	r.ready = true
	return nil
}

func (r *RestAPI) NextResponseChunk(buf []byte) (int, bool) {
	if !r.ready {
		return 0, true
	}
	remaining := len(r.response) - r.sent
	if remaining <= 0 {
		return 0, false
	}
	n := copy(buf, r.response[r.sent:])
	r.sent += n
	return n, r.sent < len(r.response)
}

var _ Responder = (*RestAPI)(nil)
