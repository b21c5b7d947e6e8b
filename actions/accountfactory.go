package actions

import (
	"context"
	"fmt"

	"github.com/blockberries/dango/query"
	"github.com/blockberries/dango/types"
)

// NextAccountAddressRequest asks the account factory for the address
// the next account of a user would get.
type NextAccountAddressRequest struct {
	query.Returns[types.Addr]
	Username    types.Username    `json:"username"`
	AccountType types.AccountType `json:"account_type"`
}

func (r NextAccountAddressRequest) SmartMsg() any {
	return map[string]any{"next_account_address": r}
}

// AccountsByUserRequest lists the accounts owned by a user.
type AccountsByUserRequest struct {
	query.Returns[map[types.Addr]AccountInfo]
	Username types.Username `json:"username"`
}

func (r AccountsByUserRequest) SmartMsg() any {
	return map[string]any{"accounts_by_user": r}
}

// UserRequest fetches a registered user.
type UserRequest struct {
	query.Returns[UserInfo]
	Username types.Username `json:"username"`
}

func (r UserRequest) SmartMsg() any {
	return map[string]any{"user": r}
}

// AccountInfo describes an account created by the account factory.
type AccountInfo struct {
	Index uint32            `json:"index"`
	Type  types.AccountType `json:"type"`
}

// UserInfo is a registered user and their accounts.
type UserInfo struct {
	Username types.Username             `json:"username"`
	Accounts map[types.Addr]AccountInfo `json:"accounts"`
}

type GetNextAccountAddressParams struct {
	Username    types.Username
	AccountType types.AccountType
	Height      types.Height
}

// GetNextAccountAddress returns the address the account factory would
// assign to the next account of the given type created by Username.
func (a *Actions) GetNextAccountAddress(ctx context.Context, p GetNextAccountAddressParams) (types.Addr, error) {
	if p.Username == "" {
		return "", fmt.Errorf("get next account address: username is required")
	}
	if !p.AccountType.Valid() {
		return "", fmt.Errorf("get next account address: invalid account type %q", p.AccountType)
	}

	factory, err := a.contract(ctx, KeyAccountFactory, p.Height)
	if err != nil {
		return "", err
	}

	req := NextAccountAddressRequest{Username: p.Username, AccountType: p.AccountType}
	return query.SmartTyped[types.Addr](ctx, a.q, factory, req, p.Height)
}

type GetAccountsByUsernameParams struct {
	Username types.Username
	Height   types.Height
}

// GetAccountsByUsername lists the accounts owned by Username. A user
// with no accounts gets an empty map.
func (a *Actions) GetAccountsByUsername(ctx context.Context, p GetAccountsByUsernameParams) (map[types.Addr]AccountInfo, error) {
	factory, err := a.contract(ctx, KeyAccountFactory, p.Height)
	if err != nil {
		return nil, err
	}
	return query.SmartTyped[map[types.Addr]AccountInfo](ctx, a.q, factory, AccountsByUserRequest{Username: p.Username}, p.Height)
}

type GetUserParams struct {
	Username types.Username
	Height   types.Height
}

// GetUser fetches a registered user. Unknown users fail with
// dango.ErrNotFound.
func (a *Actions) GetUser(ctx context.Context, p GetUserParams) (UserInfo, error) {
	factory, err := a.contract(ctx, KeyAccountFactory, p.Height)
	if err != nil {
		return UserInfo{}, err
	}
	return query.SmartTyped[UserInfo](ctx, a.q, factory, UserRequest{Username: p.Username}, p.Height)
}
