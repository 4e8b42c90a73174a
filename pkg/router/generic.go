package router

import (
	"net/http"

	"github.com/strataweb/strata/pkg/codec"
	"github.com/strataweb/strata/pkg/web"
)

// TypedHandler is a handler with typed request and response data. The raw
// request is still available for headers, params and context.
type TypedHandler[Req any, Resp any] func(r *web.Request, data Req) (Resp, error)

// HandleTyped registers a route whose body is decoded into Req by the codec
// and whose result is encoded from Resp. This is a standalone function rather
// than a method because Go methods cannot have type parameters.
//
// A body that fails to decode produces 400 without invoking the handler; a
// handler error propagates to the enclosing middleware as usual.
func HandleTyped[Req any, Resp any](r *Router, method, path string, c codec.Codec[Req, Resp], h TypedHandler[Req, Resp]) {
	r.Handle(method, path, func(req *web.Request) (*web.Response, error) {
		data, err := c.Decode(req)
		if err != nil {
			return web.Text(http.StatusBadRequest, "bad request: "+err.Error()), nil
		}
		out, err := h(req, data)
		if err != nil {
			return nil, err
		}
		return c.Encode(http.StatusOK, out)
	})
}
