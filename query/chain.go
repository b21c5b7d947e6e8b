package query

import (
	"context"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

func run(ctx context.Context, q dango.Querier, v types.RequestVariant, height types.Height) (types.QueryResponse, error) {
	resp, err := q.Query(ctx, types.NewQueryRequest(v), height)
	if err != nil {
		return types.QueryResponse{}, err
	}
	if err := dango.CheckResponse(resp, v.Kind()); err != nil {
		return types.QueryResponse{}, err
	}
	return resp, nil
}

// Info returns the chain info at height.
func Info(ctx context.Context, q dango.Querier, height types.Height) (types.InfoResponse, error) {
	resp, err := run(ctx, q, types.QueryInfoRequest{}, height)
	if err != nil {
		return types.InfoResponse{}, err
	}
	return *resp.Info, nil
}

// Balance returns the amount of denom held by address.
func Balance(ctx context.Context, q dango.Querier, address types.Addr, denom types.Denom, height types.Height) (types.Coin, error) {
	resp, err := run(ctx, q, types.QueryBalanceRequest{Address: address, Denom: denom}, height)
	if err != nil {
		return types.Coin{}, err
	}
	return *resp.Balance, nil
}

// Balances returns one page of the coins held by address.
func Balances(ctx context.Context, q dango.Querier, req types.QueryBalancesRequest, height types.Height) (types.Coins, error) {
	resp, err := run(ctx, q, req, height)
	if err != nil {
		return nil, err
	}
	return *resp.Balances, nil
}

// Supply returns the total supply of denom.
func Supply(ctx context.Context, q dango.Querier, denom types.Denom, height types.Height) (types.Coin, error) {
	resp, err := run(ctx, q, types.QuerySupplyRequest{Denom: denom}, height)
	if err != nil {
		return types.Coin{}, err
	}
	return *resp.Supply, nil
}

// Supplies returns one page of total supplies.
func Supplies(ctx context.Context, q dango.Querier, req types.QuerySuppliesRequest, height types.Height) (types.Coins, error) {
	resp, err := run(ctx, q, req, height)
	if err != nil {
		return nil, err
	}
	return *resp.Supplies, nil
}

// Code returns the code stored under hash.
func Code(ctx context.Context, q dango.Querier, hash types.Hash, height types.Height) (types.Binary, error) {
	resp, err := run(ctx, q, types.QueryCodeRequest{Hash: hash}, height)
	if err != nil {
		return nil, err
	}
	return *resp.Code, nil
}

// Codes returns one page of stored code hashes.
func Codes(ctx context.Context, q dango.Querier, req types.QueryCodesRequest, height types.Height) ([]types.Hash, error) {
	resp, err := run(ctx, q, req, height)
	if err != nil {
		return nil, err
	}
	return *resp.Codes, nil
}

// Account returns the account or contract at address.
func Account(ctx context.Context, q dango.Querier, address types.Addr, height types.Height) (types.AccountResponse, error) {
	resp, err := run(ctx, q, types.QueryAccountRequest{Address: address}, height)
	if err != nil {
		return types.AccountResponse{}, err
	}
	return *resp.Account, nil
}

// Accounts returns one page of accounts.
func Accounts(ctx context.Context, q dango.Querier, req types.QueryAccountsRequest, height types.Height) ([]types.AccountResponse, error) {
	resp, err := run(ctx, q, req, height)
	if err != nil {
		return nil, err
	}
	return *resp.Accounts, nil
}

// WasmRaw reads one raw storage entry of contract. The returned value
// is nil if the key is absent.
func WasmRaw(ctx context.Context, q dango.Querier, contract types.Addr, key types.Binary, height types.Height) (*types.Binary, error) {
	resp, err := run(ctx, q, types.QueryWasmRawRequest{Contract: contract, Key: key}, height)
	if err != nil {
		return nil, err
	}
	return resp.WasmRaw.Value, nil
}

// AppConfig returns the raw app-config registry, uncached. Use an
// appconfig.Resolver for repeated lookups.
func AppConfig(ctx context.Context, q dango.Querier, height types.Height) (types.AppConfig, error) {
	resp, err := run(ctx, q, types.QueryAppConfigRequest{}, height)
	if err != nil {
		return nil, err
	}
	cfg, err := types.ParseAppConfig(*resp.AppConfig)
	if err != nil {
		return nil, dango.NewDecodeError("app config", err)
	}
	return cfg, nil
}
