// Package dangogrpc provides the gRPC transport for dango queries,
// using cramberry for deterministic binary framing.
//
// No protobuf code generation is required. The query itself travels as
// the node's JSON encoding inside a cramberry envelope, so the same
// bytes a contract sees are the bytes on the wire.
package dangogrpc

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"google.golang.org/grpc/encoding"
)

const codecName = "cramberry"

// CramberryCodec frames QueryEnvelope and ResponseEnvelope messages.
// Clients force it on every call; servers find it by the "cramberry"
// content subtype it is registered under.
type CramberryCodec struct{}

// Marshal encodes an envelope. Anything else is rejected so a query
// cannot reach the wire without its JSON body and height.
func (CramberryCodec) Marshal(v any) ([]byte, error) {
	switch v.(type) {
	case *QueryEnvelope, *ResponseEnvelope:
	default:
		return nil, fmt.Errorf("dango codec: cannot encode %T", v)
	}
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dango codec: encode %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal decodes into an envelope.
func (CramberryCodec) Unmarshal(data []byte, v any) error {
	switch v.(type) {
	case *QueryEnvelope, *ResponseEnvelope:
	default:
		return fmt.Errorf("dango codec: cannot decode into %T", v)
	}
	if err := cramberry.Unmarshal(data, v); err != nil {
		return fmt.Errorf("dango codec: decode %T: %w", v, err)
	}
	return nil
}

func (CramberryCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(CramberryCodec{})
}
