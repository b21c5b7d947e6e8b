package actions

import (
	"context"

	"github.com/blockberries/dango/appconfig"
	"github.com/blockberries/dango/query"
	"github.com/blockberries/dango/types"
)

type GetAppConfigParams struct {
	Height types.Height
}

// GetAppConfig returns the whole registry, served from the resolver's
// cache.
func (a *Actions) GetAppConfig(ctx context.Context, p GetAppConfigParams) (types.AppConfig, error) {
	return a.resolver.Config(ctx, a.q, p.Height)
}

// GetAppConfigValue returns the registry value under key decoded as T.
func GetAppConfigValue[T any](ctx context.Context, a *Actions, key string, height types.Height) (T, error) {
	return appconfig.Lookup[T](ctx, a.resolver, a.q, key, height)
}

type GetChainInfoParams struct {
	Height types.Height
}

// GetChainInfo returns the chain ID, config and last finalized block.
func (a *Actions) GetChainInfo(ctx context.Context, p GetChainInfoParams) (types.InfoResponse, error) {
	return query.Info(ctx, a.q, p.Height)
}

type GetBalanceParams struct {
	Address types.Addr
	Denom   types.Denom
	Height  types.Height
}

// GetBalance returns how much of Denom Address holds. Absent balances
// are zero, not an error.
func (a *Actions) GetBalance(ctx context.Context, p GetBalanceParams) (types.Coin, error) {
	return query.Balance(ctx, a.q, p.Address, p.Denom, p.Height)
}

type GetBalancesParams struct {
	Address    types.Addr
	StartAfter *types.Denom
	Limit      *uint32
	Height     types.Height
}

// GetBalances returns one page of the coins held by Address.
func (a *Actions) GetBalances(ctx context.Context, p GetBalancesParams) (types.Coins, error) {
	return query.Balances(ctx, a.q, types.QueryBalancesRequest{
		Address:    p.Address,
		StartAfter: p.StartAfter,
		Limit:      p.Limit,
	}, p.Height)
}

type GetSupplyParams struct {
	Denom  types.Denom
	Height types.Height
}

// GetSupply returns the total supply of Denom.
func (a *Actions) GetSupply(ctx context.Context, p GetSupplyParams) (types.Coin, error) {
	return query.Supply(ctx, a.q, p.Denom, p.Height)
}

type GetContractInfoParams struct {
	Address types.Addr
	Height  types.Height
}

// GetContractInfo returns the code hash and admin of the contract at
// Address.
func (a *Actions) GetContractInfo(ctx context.Context, p GetContractInfoParams) (types.AccountResponse, error) {
	return query.Account(ctx, a.q, p.Address, p.Height)
}
