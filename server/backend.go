package server

import (
	"context"
	"encoding/json"

	"github.com/blockberries/dango/types"
)

// Backend supplies chain state at a height. A height of 0 means the
// latest committed state; heights the backend does not retain fail
// with dango.ErrNotFound.
//
// Paginated methods receive the request record as-is; the backend owns
// the default page size.
type Backend interface {
	Info(ctx context.Context, height types.Height) (types.InfoResponse, error)
	Balance(ctx context.Context, height types.Height, req types.QueryBalanceRequest) (types.Coin, error)
	Balances(ctx context.Context, height types.Height, req types.QueryBalancesRequest) (types.Coins, error)
	Supply(ctx context.Context, height types.Height, req types.QuerySupplyRequest) (types.Coin, error)
	Supplies(ctx context.Context, height types.Height, req types.QuerySuppliesRequest) (types.Coins, error)
	Code(ctx context.Context, height types.Height, req types.QueryCodeRequest) (types.Binary, error)
	Codes(ctx context.Context, height types.Height, req types.QueryCodesRequest) ([]types.Hash, error)
	Account(ctx context.Context, height types.Height, req types.QueryAccountRequest) (types.AccountResponse, error)
	Accounts(ctx context.Context, height types.Height, req types.QueryAccountsRequest) ([]types.AccountResponse, error)
	WasmRaw(ctx context.Context, height types.Height, req types.QueryWasmRawRequest) (types.WasmRawResponse, error)
	WasmSmart(ctx context.Context, height types.Height, req types.QueryWasmSmartRequest) (types.WasmSmartResponse, error)
	AppConfig(ctx context.Context, height types.Height) (json.RawMessage, error)
}

// Contract answers smart queries for one deployed contract. msg is the
// contract's JSON query message; the returned bytes are its JSON
// answer.
//
// Unknown messages should fail with dango.ErrQueryFailed and absent
// entities with dango.ErrNotFound.
type Contract interface {
	QuerySmart(ctx context.Context, msg json.RawMessage) (json.RawMessage, error)
}

// Cloner is implemented by contracts with mutable state. Versioned
// backends clone contracts when committing a new height so that older
// heights keep answering from their own snapshot.
type Cloner interface {
	Clone() Contract
}

// HandleBackend registers a handler for every query kind, each
// forwarding to the matching Backend method.
func (r *Router) HandleBackend(b Backend) {
	r.Handle(types.KindInfo, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Info(ctx, h)
		return types.InfoResult(v), err
	})
	r.Handle(types.KindBalance, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Balance(ctx, h, *req.Balance)
		return types.BalanceResult(v), err
	})
	r.Handle(types.KindBalances, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Balances(ctx, h, *req.Balances)
		return types.BalancesResult(v), err
	})
	r.Handle(types.KindSupply, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Supply(ctx, h, *req.Supply)
		return types.SupplyResult(v), err
	})
	r.Handle(types.KindSupplies, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Supplies(ctx, h, *req.Supplies)
		return types.SuppliesResult(v), err
	})
	r.Handle(types.KindCode, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Code(ctx, h, *req.Code)
		return types.CodeResult(v), err
	})
	r.Handle(types.KindCodes, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Codes(ctx, h, *req.Codes)
		return types.CodesResult(v), err
	})
	r.Handle(types.KindAccount, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Account(ctx, h, *req.Account)
		return types.AccountResult(v), err
	})
	r.Handle(types.KindAccounts, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.Accounts(ctx, h, *req.Accounts)
		return types.AccountsResult(v), err
	})
	r.Handle(types.KindWasmRaw, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.WasmRaw(ctx, h, *req.WasmRaw)
		return types.WasmRawResult(v), err
	})
	r.Handle(types.KindWasmSmart, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.WasmSmart(ctx, h, *req.WasmSmart)
		return types.WasmSmartResult(v), err
	})
	r.Handle(types.KindAppConfig, func(ctx context.Context, req types.QueryRequest, h types.Height) (types.QueryResponse, error) {
		v, err := b.AppConfig(ctx, h)
		return types.AppConfigResult(v), err
	})
}
