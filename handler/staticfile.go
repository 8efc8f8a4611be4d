// File: handler/staticfile.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handler

import (
	"strings"

	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// FileStore abstracts the backing storage a StaticFile handler resolves
// paths against, grounded on the same dropped distillation detail as
// responder.FileChunker (original FileSystemChunker.h).
type FileStore interface {
	Exists(path string) bool
	Open(path string) (responder.FileChunker, error)
}

// StaticFile resolves a URL under baseURI to a file in a backing folder
// (spec §4.8 "StaticFile").
type StaticFile struct {
	name        string
	baseURI     string
	baseFolder  string
	defaultPath string
	store       FileStore
}

// NewStaticFile constructs a StaticFile handler.
func NewStaticFile(name, baseURI, baseFolder, defaultPath string, store FileStore) *StaticFile {
	return &StaticFile{name: name, baseURI: baseURI, baseFolder: baseFolder, defaultPath: defaultPath, store: store}
}

func (s *StaticFile) Name() string             { return s.name }
func (s *StaticFile) IsFileHandler() bool      { return true }
func (s *StaticFile) IsWebSocketHandler() bool { return false }

func (s *StaticFile) TryBuildResponder(header *wire.RequestHeader) responder.Responder {
	if header.Method != wire.MethodGET || header.ConnType != api.ConnHTTP {
		return nil
	}
	if !strings.HasPrefix(header.URL, s.baseURI) {
		return nil
	}

	var path string
	rest := strings.TrimPrefix(header.URL, s.baseURI)
	if rest == "" || rest == "/" {
		path = s.defaultPath
	} else {
		path = s.baseFolder + rest
	}
	if !s.store.Exists(path) {
		return nil
	}
	chunker, err := s.store.Open(path)
	if err != nil {
		return nil
	}
	return responder.NewFile(path, chunker)
}

var _ Handler = (*StaticFile)(nil)
