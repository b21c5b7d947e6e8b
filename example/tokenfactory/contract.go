// Package tokenfactory implements a mock token-factory contract that
// records the admin of each denom. It answers the same smart queries
// as the on-chain contract: admin, admins and config.
package tokenfactory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// DefaultLimit is the page size of the admins query when the caller
// omits a limit.
const DefaultLimit = 30

// Compile-time interface checks.
var (
	_ server.Contract = (*Contract)(nil)
	_ server.Cloner   = (*Contract)(nil)
)

// Config is the contract configuration.
type Config struct {
	DenomCreationFee *types.Coin `json:"denom_creation_fee,omitempty"`
}

// QueryMsg is the contract's query interface.
type QueryMsg struct {
	Config *struct{}    `json:"config,omitempty"`
	Admin  *AdminQuery  `json:"admin,omitempty"`
	Admins *AdminsQuery `json:"admins,omitempty"`
}

type AdminQuery struct {
	Denom types.Denom `json:"denom"`
}

type AdminsQuery struct {
	StartAfter *types.Denom `json:"start_after,omitempty"`
	Limit      *uint32      `json:"limit,omitempty"`
}

// Contract is the token-factory state.
type Contract struct {
	mu     sync.RWMutex
	config Config
	admins map[types.Denom]types.Addr
}

// New creates a contract with no denoms.
func New(config Config) *Contract {
	return &Contract{
		config: config,
		admins: make(map[types.Denom]types.Addr),
	}
}

// SetAdmin records admin as the admin of denom.
func (c *Contract) SetAdmin(denom types.Denom, admin types.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admins[denom] = admin
}

// Clone implements server.Cloner.
func (c *Contract) Clone() server.Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := New(c.config)
	for d, a := range c.admins {
		out.admins[d] = a
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
	case msg.Config != nil:
		return server.EncodeAnswer(c.config)

	case msg.Admin != nil:
		admin, ok := c.admins[msg.Admin.Denom]
		if !ok {
			return nil, errorsmod.Wrapf(dango.ErrNotFound, "denom %s has no admin", msg.Admin.Denom)
		}
		return server.EncodeAnswer(admin)

	default:
		return server.EncodeAnswer(c.page(msg.Admins))
	}
}

func (c *Contract) page(q *AdminsQuery) map[types.Denom]types.Addr {
	denoms := make([]types.Denom, 0, len(c.admins))
	for d := range c.admins {
		if q.StartAfter == nil || d > *q.StartAfter {
			denoms = append(denoms, d)
		}
	}
	sort.Slice(denoms, func(i, j int) bool { return denoms[i] < denoms[j] })

	limit := DefaultLimit
	if q.Limit != nil {
		limit = int(*q.Limit)
	}
	if len(denoms) > limit {
		denoms = denoms[:limit]
	}

	out := make(map[types.Denom]types.Addr, len(denoms))
	for _, d := range denoms {
		out[d] = c.admins[d]
	}
	return out
}
