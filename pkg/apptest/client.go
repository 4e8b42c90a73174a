// Package apptest provides a test client for driving requests through an
// application's middleware pipeline without a network listener.
//
// The client performs the explicit build the pipeline contract requires of
// harnesses: constructing one compiles the chain from whatever is registered
// at that point, without freezing, so tests can still rebuild. There is no
// implicit build-on-first-request.
package apptest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/strataweb/strata/pkg/app"
	"github.com/strataweb/strata/pkg/web"
)

// Client drives requests through an App's compiled chain.
type Client struct {
	app *app.App
}

// New builds the app's pipeline and returns a client for it. It fails if the
// pipeline is already frozen with no chain, or any other build error.
func New(a *app.App) (*Client, error) {
	if err := a.Build(); err != nil {
		return nil, err
	}
	return &Client{app: a}, nil
}

// Do dispatches a fully constructed request.
func (c *Client) Do(req *web.Request) (*Response, error) {
	resp, err := c.app.Dispatch(req)
	if err != nil {
		return nil, err
	}
	return &Response{Response: resp}, nil
}

// Get dispatches a GET request to the given path (which may carry a query
// string).
func (c *Client) Get(path string, opts ...Option) (*Response, error) {
	return c.Request(http.MethodGet, path, nil, opts...)
}

// Post dispatches a POST request with the given body.
func (c *Client) Post(path string, body []byte, opts ...Option) (*Response, error) {
	return c.Request(http.MethodPost, path, body, opts...)
}

// PostJSON dispatches a POST request with v marshaled as the JSON body.
func (c *Client) PostJSON(path string, v any, opts ...Option) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithHeader("Content-Type", "application/json")}, opts...)
	return c.Request(http.MethodPost, path, body, opts...)
}

// Request dispatches a request with the given method, path and body.
func (c *Client) Request(method, path string, body []byte, opts ...Option) (*Response, error) {
	req := web.NewRequest(method, path, body)
	req.RemoteAddr = "192.0.2.1:1234"
	for _, opt := range opts {
		opt(req)
	}
	return c.Do(req)
}

// Option customizes a request built by the client.
type Option func(*web.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(r *web.Request) { r.Header.Set(key, value) }
}

// WithRemoteAddr sets the client address seen by IP-keyed middleware.
func WithRemoteAddr(addr string) Option {
	return func(r *web.Request) { r.RemoteAddr = addr }
}

// Response wraps a web.Response with assertion helpers.
type Response struct {
	*web.Response
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// ExpectStatus returns an error if the response status differs from want.
func (r *Response) ExpectStatus(want int) error {
	if r.StatusCode != want {
		return fmt.Errorf("apptest: status = %d, want %d", r.StatusCode, want)
	}
	return nil
}
