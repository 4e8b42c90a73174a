package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"

	"github.com/strataweb/strata/pkg/web"
)

// ProtoCodec is a codec that uses Protocol Buffers for marshaling and
// unmarshaling. Both type parameters must be pointer types implementing
// proto.Message.
type ProtoCodec[Req proto.Message, Resp proto.Message] struct {
	// NewReq allocates an empty request message to unmarshal into.
	NewReq func() Req
}

// NewProtoCodec creates a new ProtoCodec. newReq must allocate a fresh,
// empty request message on each call.
func NewProtoCodec[Req proto.Message, Resp proto.Message](newReq func() Req) *ProtoCodec[Req, Resp] {
	return &ProtoCodec[Req, Resp]{NewReq: newReq}
}

// Decode unmarshals the request body from protobuf wire format into a fresh
// message allocated by NewReq.
func (c *ProtoCodec[Req, Resp]) Decode(r *web.Request) (Req, error) {
	var zero Req
	if c.NewReq == nil {
		return zero, errors.New("codec: ProtoCodec requires a NewReq allocator")
	}
	msg := c.NewReq()
	if err := proto.Unmarshal(r.Body, msg); err != nil {
		return zero, err
	}
	return msg, nil
}

// Encode marshals resp to protobuf wire format and returns a response with
// the given status and an application/x-protobuf content type.
func (c *ProtoCodec[Req, Resp]) Encode(status int, resp Resp) (*web.Response, error) {
	body, err := proto.Marshal(resp)
	if err != nil {
		return nil, err
	}
	out := web.NewResponse(status)
	out.Header.Set("Content-Type", "application/x-protobuf")
	out.Body = body
	return out, nil
}
