package actions

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/query"
	"github.com/blockberries/dango/types"
)

// TokenAdminRequest asks the token factory for the admin of a denom.
// The node answers null for denoms it does not know.
type TokenAdminRequest struct {
	query.Returns[*types.Addr]
	Denom types.Denom `json:"denom"`
}

func (r TokenAdminRequest) SmartMsg() any {
	return map[string]any{"admin": r}
}

// TokenAdminsRequest lists one page of denom admins.
type TokenAdminsRequest struct {
	query.Returns[map[types.Denom]types.Addr]
	StartAfter *types.Denom `json:"start_after,omitempty"`
	Limit      *uint32      `json:"limit,omitempty"`
}

func (r TokenAdminsRequest) SmartMsg() any {
	return map[string]any{"admins": r}
}

// TokenFactoryConfigRequest fetches the token factory configuration.
type TokenFactoryConfigRequest struct {
	query.Returns[TokenFactoryConfig]
}

func (TokenFactoryConfigRequest) SmartMsg() any {
	return map[string]any{"config": struct{}{}}
}

// TokenFactoryConfig is the token factory configuration.
type TokenFactoryConfig struct {
	DenomCreationFee *types.Coin `json:"denom_creation_fee,omitempty"`
}

type GetTokenAdminParams struct {
	Denom  types.Denom
	Height types.Height
}

// GetTokenAdmin returns the admin of Denom. A denom with no admin fails
// with dango.ErrNotFound.
func (a *Actions) GetTokenAdmin(ctx context.Context, p GetTokenAdminParams) (types.Addr, error) {
	factory, err := a.contract(ctx, KeyTokenFactory, p.Height)
	if err != nil {
		return "", err
	}
	admin, err := query.SmartTyped[*types.Addr](ctx, a.q, factory, TokenAdminRequest{Denom: p.Denom}, p.Height)
	if err != nil {
		return "", err
	}
	if admin == nil || *admin == "" {
		return "", errorsmod.Wrapf(dango.ErrNotFound, "denom %s has no admin", p.Denom)
	}
	return *admin, nil
}

type GetAllTokenAdminsParams struct {
	StartAfter *types.Denom
	Limit      *uint32
	Height     types.Height
}

// GetAllTokenAdmins returns one page of denom admins exactly as the
// node pages them.
func (a *Actions) GetAllTokenAdmins(ctx context.Context, p GetAllTokenAdminsParams) (map[types.Denom]types.Addr, error) {
	factory, err := a.contract(ctx, KeyTokenFactory, p.Height)
	if err != nil {
		return nil, err
	}
	req := TokenAdminsRequest{StartAfter: p.StartAfter, Limit: p.Limit}
	return query.SmartTyped[map[types.Denom]types.Addr](ctx, a.q, factory, req, p.Height)
}

type GetTokenFactoryConfigParams struct {
	Height types.Height
}

// GetTokenFactoryConfig returns the token factory configuration.
func (a *Actions) GetTokenFactoryConfig(ctx context.Context, p GetTokenFactoryConfigParams) (TokenFactoryConfig, error) {
	factory, err := a.contract(ctx, KeyTokenFactory, p.Height)
	if err != nil {
		return TokenFactoryConfig{}, err
	}
	return query.SmartTyped[TokenFactoryConfig](ctx, a.q, factory, TokenFactoryConfigRequest{}, p.Height)
}
