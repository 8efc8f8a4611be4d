// File: handler/restapi.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handler

import (
	"strings"

	"github.com/momentics/weblet/responder"
	"github.com/momentics/weblet/wire"
)

// Endpoint bundles the three callbacks a matched REST endpoint supplies
// (spec §4.7 "RestAPI").
type Endpoint struct {
	HandlerFn responder.HandlerFunc
	BodyFn    responder.BodyFunc
	UploadFn  responder.UploadFunc
}

// EndpointMatcher resolves a stripped path and method to an Endpoint (spec
// §4.8 "RestAPI").
type EndpointMatcher func(path string, method wire.Method) (Endpoint, bool)

// RestAPI dispatches requests under /<prefix> to a caller-supplied
// EndpointMatcher (spec §4.8 "RestAPI").
type RestAPI struct {
	name    string
	prefix  string
	matcher EndpointMatcher
}

// NewRestAPI constructs a RestAPI handler; prefix is matched without its
// leading slash duplicated (e.g. "api").
func NewRestAPI(name, prefix string, matcher EndpointMatcher) *RestAPI {
	return &RestAPI{name: name, prefix: "/" + strings.TrimPrefix(prefix, "/"), matcher: matcher}
}

func (r *RestAPI) Name() string             { return r.name }
func (r *RestAPI) IsFileHandler() bool      { return false }
func (r *RestAPI) IsWebSocketHandler() bool { return false }

func (r *RestAPI) TryBuildResponder(header *wire.RequestHeader) responder.Responder {
	if !strings.HasPrefix(header.URL, r.prefix) {
		return nil
	}
	stripped := strings.TrimPrefix(header.URL, r.prefix)
	ep, ok := r.matcher(stripped, header.Method)
	if !ok {
		return nil
	}
	return responder.NewRestAPI(header, header.Params, ep.HandlerFn, ep.BodyFn, ep.UploadFn)
}

var _ Handler = (*RestAPI)(nil)
