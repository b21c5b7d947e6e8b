package dangogrpc

import (
	"encoding/json"
	"fmt"

	"github.com/blockberries/dango/types"
)

// QueryEnvelope is the request message of the Query RPC.
type QueryEnvelope struct {
	// Request is the JSON encoding of a types.QueryRequest.
	Request []byte `cramberry:"1"`
	Height  uint64 `cramberry:"2"`
}

// ResponseEnvelope is the response message of the Query RPC.
type ResponseEnvelope struct {
	// Response is the JSON encoding of a types.QueryResponse.
	Response []byte `cramberry:"1"`
}

func encodeRequest(req types.QueryRequest, height types.Height) (*QueryEnvelope, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Kind(), err)
	}
	return &QueryEnvelope{Request: data, Height: height}, nil
}

func (e *QueryEnvelope) decode() (types.QueryRequest, error) {
	var req types.QueryRequest
	if err := json.Unmarshal(e.Request, &req); err != nil {
		return types.QueryRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func encodeResponse(resp types.QueryResponse) (*ResponseEnvelope, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return &ResponseEnvelope{Response: data}, nil
}

func (e *ResponseEnvelope) decode() (types.QueryResponse, error) {
	var resp types.QueryResponse
	if err := json.Unmarshal(e.Response, &resp); err != nil {
		return types.QueryResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
