// File: handler/staticdata.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handler

import (
	"strings"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// StaticData serves a single fixed in-memory blob at baseURI, matching the
// policy of spec §4.8 "StaticData".
type StaticData struct {
	name        string
	baseURI     string
	contentType string
	blob        []byte
}

// NewStaticData constructs a StaticData handler.
func NewStaticData(name, baseURI, contentType string, blob []byte) *StaticData {
	return &StaticData{name: name, baseURI: baseURI, contentType: contentType, blob: blob}
}

func (s *StaticData) Name() string             { return s.name }
func (s *StaticData) IsFileHandler() bool      { return false }
func (s *StaticData) IsWebSocketHandler() bool { return false }

func (s *StaticData) TryBuildResponder(header *wire.RequestHeader) responder.Responder {
	if header.Method != wire.MethodGET || header.ConnType != api.ConnHTTP {
		return nil
	}
	if header.URL != s.baseURI &&
		!strings.HasPrefix(header.URL, s.baseURI+"/") &&
		!(header.URL == "/" && s.baseURI == "/") {
		return nil
	}
	return responder.NewData(s.contentType, s.blob)
}

var _ Handler = (*StaticData)(nil)
