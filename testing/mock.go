// Package dangotest provides test utilities for code built on the dango
// query client: a configurable mock transport, an in-memory versioned
// chain backend, a harness wiring them to a client, and a transport
// compliance suite.
package dangotest

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

// Compile-time interface check.
var _ dango.Transport = (*MockTransport)(nil)

// RecordedQuery is one call observed by MockTransport.
type RecordedQuery struct {
	Request types.QueryRequest
	Height  types.Height
}

// MockTransport is a configurable dango.Transport for client testing.
//
// ExecuteFn, when set, answers every query. Otherwise AppConfigFn and
// WasmSmartFn answer their kinds, and Responses answers the rest by
// kind. Anything left unconfigured fails with dango.ErrQueryFailed.
type MockTransport struct {
	mu       sync.Mutex
	recorded []RecordedQuery

	ExecuteFn func(context.Context, types.QueryRequest, types.Height) (types.QueryResponse, error)

	// AppConfigFn returns the registry; the value is JSON-encoded.
	AppConfigFn func(ctx context.Context, height types.Height) (any, error)

	// WasmSmartFn answers a smart query; the value is JSON-encoded
	// unless it already is a json.RawMessage.
	WasmSmartFn func(ctx context.Context, contract types.Addr, msg json.RawMessage, height types.Height) (any, error)

	// Responses answers by kind when no function field applies.
	Responses map[types.QueryKind]types.QueryResponse

	// Call counters (atomic for concurrent access).
	Calls          atomic.Int64
	AppConfigCalls atomic.Int64
	WasmSmartCalls atomic.Int64
}

// Execute implements dango.Transport.
func (m *MockTransport) Execute(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error) {
	m.Calls.Add(1)
	m.mu.Lock()
	m.recorded = append(m.recorded, RecordedQuery{Request: req, Height: height})
	m.mu.Unlock()

	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, req, height)
	}

	switch {
	case req.AppConfig != nil && m.AppConfigFn != nil:
		m.AppConfigCalls.Add(1)
		v, err := m.AppConfigFn(ctx, height)
		if err != nil {
			return types.QueryResponse{}, err
		}
		raw, err := toRaw(v)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.AppConfigResult(raw), nil

	case req.WasmSmart != nil && m.WasmSmartFn != nil:
		m.WasmSmartCalls.Add(1)
		v, err := m.WasmSmartFn(ctx, req.WasmSmart.Contract, req.WasmSmart.Msg, height)
		if err != nil {
			return types.QueryResponse{}, err
		}
		raw, err := toRaw(v)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.WasmSmartResult(types.WasmSmartResponse{Contract: req.WasmSmart.Contract, Data: raw}), nil
	}

	if resp, ok := m.Responses[req.Kind()]; ok {
		return resp, nil
	}
	return types.QueryResponse{}, errorsmod.Wrapf(dango.ErrQueryFailed, "mock: no response configured for %s", req.Kind())
}

// Recorded returns a copy of every query seen so far, in call order.
func (m *MockTransport) Recorded() []RecordedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedQuery(nil), m.recorded...)
}

// LastSmartMsg returns the message of the most recent wasm_smart query
// decoded as a generic JSON object, or nil if none was seen.
func (m *MockTransport) LastSmartMsg() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.recorded) - 1; i >= 0; i-- {
		if ws := m.recorded[i].Request.WasmSmart; ws != nil {
			var out map[string]any
			if err := json.Unmarshal(ws.Msg, &out); err != nil {
				return nil
			}
			return out
		}
	}
	return nil
}

func toRaw(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
