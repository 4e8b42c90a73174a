package web

import (
	"encoding/json"
	"net/http"
)

// Response represents a complete HTTP response: status code, headers and a
// fully materialized body. Handlers and middleware build Response values; the
// transport adapter writes them to the wire.
type Response struct {
	// StatusCode is the HTTP status code (e.g. 200, 404).
	StatusCode int

	// Header holds the response headers. Keys are in canonical MIME form.
	Header http.Header

	// Body is the response body.
	Body []byte
}

// NewResponse creates an empty response with the given status code.
func NewResponse(status int) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	r := NewResponse(status)
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// HTML creates an HTML response.
func HTML(status int, body string) *Response {
	r := NewResponse(status)
	r.Header.Set("Content-Type", "text/html; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// JSON creates a JSON response by marshaling v.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	r := NewResponse(status)
	r.Header.Set("Content-Type", "application/json")
	r.Body = data
	return r, nil
}

// Empty creates a response with no body.
func Empty(status int) *Response {
	return NewResponse(status)
}

// Error creates a plain-text response carrying the default status text for
// the given code (e.g. "Internal Server Error" for 500).
func Error(status int) *Response {
	return Text(status, http.StatusText(status))
}

// SetCookie adds a Set-Cookie header for the given cookie.
func (r *Response) SetCookie(c *http.Cookie) {
	if v := c.String(); v != "" {
		r.Header.Add("Set-Cookie", v)
	}
}

// Write writes the response to an http.ResponseWriter.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, vv := range r.Header {
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	w.WriteHeader(r.StatusCode)
	_, err := w.Write(r.Body)
	return err
}
