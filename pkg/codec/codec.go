// Package codec provides encoding and decoding functionality for typed route
// handlers over different wire formats.
package codec

import (
	"github.com/strataweb/strata/pkg/web"
)

// Codec decodes request bodies into typed values and encodes typed values
// into responses. Req is the request data type, Resp the response data type.
// Implementations for JSON and Protocol Buffers are provided.
type Codec[Req any, Resp any] interface {
	// Decode extracts a value of type Req from the request body. If the body
	// cannot be deserialized it returns an error.
	Decode(r *web.Request) (Req, error)

	// Encode serializes resp into a response, setting the appropriate
	// Content-Type header.
	Encode(status int, resp Resp) (*web.Response, error)
}
