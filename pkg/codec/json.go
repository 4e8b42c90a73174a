package codec

import (
	"encoding/json"

	"github.com/strataweb/strata/pkg/web"
)

// JSONCodec is a codec that uses JSON for marshaling and unmarshaling.
type JSONCodec[Req any, Resp any] struct{}

// NewJSONCodec creates a new JSONCodec for the specified types.
func NewJSONCodec[Req any, Resp any]() *JSONCodec[Req, Resp] {
	return &JSONCodec[Req, Resp]{}
}

// Decode unmarshals the request body from JSON into a value of type Req.
func (c *JSONCodec[Req, Resp]) Decode(r *web.Request) (Req, error) {
	var data Req
	if err := json.Unmarshal(r.Body, &data); err != nil {
		var zero Req
		return zero, err
	}
	return data, nil
}

// Encode marshals resp to JSON and returns a response with the given status
// and an application/json content type.
func (c *JSONCodec[Req, Resp]) Encode(status int, resp Resp) (*web.Response, error) {
	return web.JSON(status, resp)
}
