// Package web provides the request and response value types that flow through
// the middleware pipeline. A Request is fully materialized before dispatch
// (headers, query, body) so middleware and handlers never touch the transport.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Request represents a single inbound HTTP request. It is constructed once by
// the transport adapter (or a test harness) and then handed to the dispatcher.
// A Request must not be shared across dispatches; per-request state belongs in
// its context, never in package-level storage.
type Request struct {
	// Method is the HTTP method (GET, POST, etc.).
	Method string

	// Path is the URL path component (e.g. "/api/users/42").
	Path string

	// Header holds the request headers. Keys are in canonical MIME form.
	Header http.Header

	// Query holds the parsed query string parameters.
	Query url.Values

	// Params holds path parameters extracted by the router. It is populated
	// during routing and is empty before the terminal handler runs.
	Params Params

	// Body is the complete request body. The transport adapter reads the
	// body to completion before constructing the Request.
	Body []byte

	// RemoteAddr is the network address of the client, in "host:port" form
	// when set by the transport adapter.
	RemoteAddr string

	ctx context.Context
}

// NewRequest creates a Request with the given method, path and body.
// The query string, if present in rawPath, is parsed into Query.
func NewRequest(method, rawPath string, body []byte) *Request {
	path := rawPath
	query := url.Values{}
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		path = rawPath[:i]
		if q, err := url.ParseQuery(rawPath[i+1:]); err == nil {
			query = q
		}
	}
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Query:  query,
		Body:   body,
		ctx:    context.Background(),
	}
}

// Context returns the request's context. It carries cancellation from the
// transport (client disconnect, deadline) and any per-request values set by
// middleware. It is never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of the request with its context replaced
// by ctx. The original request is not modified.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("web: nil context")
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// WithValue returns a shallow copy of the request whose context carries the
// given key/value pair. This is the mechanism for attaching per-request state
// inside middleware.
func (r *Request) WithValue(key, val any) *Request {
	return r.WithContext(context.WithValue(r.Context(), key, val))
}

// Text returns the request body decoded as a UTF-8 string.
func (r *Request) Text() string {
	return string(r.Body)
}

// JSON unmarshals the request body into v.
func (r *Request) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// ContentType returns the media type of the request body, without any
// parameters (e.g. "application/json").
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// FormValues parses the request body as URL-encoded form data.
func (r *Request) FormValues() (url.Values, error) {
	return url.ParseQuery(string(r.Body))
}

// Cookie returns the named cookie provided in the request, or
// http.ErrNoCookie if not found.
func (r *Request) Cookie(name string) (*http.Cookie, error) {
	return (&http.Request{Header: r.Header}).Cookie(name)
}

// Cookies parses and returns the cookies sent with the request.
func (r *Request) Cookies() []*http.Cookie {
	return (&http.Request{Header: r.Header}).Cookies()
}
