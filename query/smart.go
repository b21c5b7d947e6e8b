// Package query provides the smart-query primitive and typed helpers
// for every chain-level query variant. Each helper is one round trip
// through a dango.Querier; nothing is cached here.
package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

// Smart sends msg to contract's query entry point at height (0 =
// latest) and decodes the contract's answer as R.
//
// msg is JSON-encoded unless it already is a json.RawMessage; its shape
// is not validated. Answers that do not decode as R fail with
// *dango.DecodeError.
func Smart[R any](ctx context.Context, q dango.Querier, contract types.Addr, msg any, height types.Height) (R, error) {
	var zero R

	raw, err := encodeMsg(msg)
	if err != nil {
		return zero, err
	}

	resp, err := run(ctx, q, types.QueryWasmSmartRequest{
		Contract: contract,
		Msg:      raw,
	}, height)
	if err != nil {
		return zero, err
	}

	var out R
	if err := json.Unmarshal(resp.WasmSmart.Data, &out); err != nil {
		return zero, dango.NewDecodeError(fmt.Sprintf("smart query response from %s", contract), err)
	}
	return out, nil
}

func encodeMsg(msg any) (json.RawMessage, error) {
	if raw, ok := msg.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode smart query message: %w", err)
	}
	return raw, nil
}

// SmartRequest is a contract query message that declares the type of
// its answer. Implementations embed Returns[R].
type SmartRequest[R any] interface {
	// SmartMsg returns the JSON-encodable query message.
	SmartMsg() any
	ResponseType(*R)
}

// Returns marks a SmartRequest as answered by an R.
type Returns[R any] struct{}

func (Returns[R]) ResponseType(*R) {}

// SmartTyped runs a SmartRequest and decodes its answer as the declared
// type.
func SmartTyped[R any](ctx context.Context, q dango.Querier, contract types.Addr, req SmartRequest[R], height types.Height) (R, error) {
	return Smart[R](ctx, q, contract, req.SmartMsg(), height)
}
