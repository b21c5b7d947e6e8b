// Package accountfactory implements a mock account-factory contract.
// Accounts are numbered by a global index; the address of each new
// account is derived from the factory address, the owner's username,
// the account type and that index, so it can be predicted before the
// account is created.
package accountfactory

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/btcutil/bech32"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// AddrPrefix is the bech32 human-readable part of derived addresses.
const AddrPrefix = "dango"

// Compile-time interface checks.
var (
	_ server.Contract = (*Contract)(nil)
	_ server.Cloner   = (*Contract)(nil)
)

// QueryMsg is the contract's query interface.
type QueryMsg struct {
	NextAccountIndex   *struct{}                `json:"next_account_index,omitempty"`
	NextAccountAddress *NextAccountAddressQuery `json:"next_account_address,omitempty"`
	AccountsByUser     *UserQuery               `json:"accounts_by_user,omitempty"`
	User               *UserQuery               `json:"user,omitempty"`
}

type NextAccountAddressQuery struct {
	Username    types.Username    `json:"username"`
	AccountType types.AccountType `json:"account_type"`
}

type UserQuery struct {
	Username types.Username `json:"username"`
}

// Account is an account owned by a user.
type Account struct {
	Index uint32            `json:"index"`
	Type  types.AccountType `json:"type"`
}

// User is a registered user and the accounts they own.
type User struct {
	Username types.Username         `json:"username"`
	Accounts map[types.Addr]Account `json:"accounts"`
}

// Contract is the account-factory state.
type Contract struct {
	mu        sync.RWMutex
	self      types.Addr
	nextIndex uint32
	users     map[types.Username]map[types.Addr]Account
}

// New creates a factory deployed at self.
func New(self types.Addr) *Contract {
	return &Contract{
		self:  self,
		users: make(map[types.Username]map[types.Addr]Account),
	}
}

// DeriveAddress returns the address the factory at factory assigns to
// the account with the given owner, type and index.
func DeriveAddress(factory types.Addr, username types.Username, accountType types.AccountType, index uint32) types.Addr {
	h := sha256.New()
	h.Write([]byte(factory))
	h.Write([]byte(username))
	h.Write([]byte(accountType))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], index)
	h.Write(buf[:])
	sum := h.Sum(nil)

	conv, err := bech32.ConvertBits(sum[:20], 8, 5, true)
	if err != nil {
		panic(err)
	}
	addr, err := bech32.Encode(AddrPrefix, conv)
	if err != nil {
		panic(err)
	}
	return types.Addr(addr)
}

// Register creates an account of accountType for username and returns
// its address.
func (c *Contract) Register(username types.Username, accountType types.AccountType) (types.Addr, error) {
	if !accountType.Valid() {
		return "", fmt.Errorf("invalid account type %q", accountType)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	addr := DeriveAddress(c.self, username, accountType, c.nextIndex)
	accounts, ok := c.users[username]
	if !ok {
		accounts = make(map[types.Addr]Account)
		c.users[username] = accounts
	}
	accounts[addr] = Account{Index: c.nextIndex, Type: accountType}
	c.nextIndex++
	return addr, nil
}

// Clone implements server.Cloner.
func (c *Contract) Clone() server.Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := New(c.self)
	out.nextIndex = c.nextIndex
	for u, accounts := range c.users {
		m := make(map[types.Addr]Account, len(accounts))
		for a, acc := range accounts {
			m[a] = acc
		}
		out.users[u] = m
	}
	return out
}

// QuerySmart implements server.Contract.
func (c *Contract) QuerySmart(_ context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var msg QueryMsg
	if err := server.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case msg.NextAccountIndex != nil:
		return server.EncodeAnswer(c.nextIndex)

	case msg.NextAccountAddress != nil:
		q := msg.NextAccountAddress
		if !q.AccountType.Valid() {
			return nil, errorsmod.Wrapf(dango.ErrQueryFailed, "invalid account type %q", q.AccountType)
		}
		return server.EncodeAnswer(DeriveAddress(c.self, q.Username, q.AccountType, c.nextIndex))

	case msg.AccountsByUser != nil:
		accounts, ok := c.users[msg.AccountsByUser.Username]
		if !ok {
			accounts = map[types.Addr]Account{}
		}
		return server.EncodeAnswer(accounts)

	default:
		accounts, ok := c.users[msg.User.Username]
		if !ok {
			return nil, errorsmod.Wrapf(dango.ErrNotFound, "user %s", msg.User.Username)
		}
		return server.EncodeAnswer(User{Username: msg.User.Username, Accounts: accounts})
	}
}
