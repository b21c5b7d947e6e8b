// Package actions is the catalog of typed query actions: each one
// resolves its target contract through the app-config registry when it
// needs to, sends a single smart query and reshapes the answer.
//
// Actions never retry, never loop over pages and never return partial
// data: pagination parameters are passed through to the node and every
// failure reaches the caller classified.
package actions

import (
	"context"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/appconfig"
	"github.com/blockberries/dango/types"
)

// Registry keys of the contracts actions talk to.
const (
	KeyAccountFactory = "addresses.account_factory"
	KeyTokenFactory   = types.AppConfigKeyTokenFactory
)

// Actions binds the action catalog to a client and a shared resolver.
// It is safe for concurrent use.
type Actions struct {
	q        dango.Querier
	resolver *appconfig.Resolver
}

// New binds actions to q. A nil resolver gets a private default one;
// share a resolver across Actions values to share its cache.
func New(q dango.Querier, resolver *appconfig.Resolver) *Actions {
	if resolver == nil {
		resolver = appconfig.NewResolver()
	}
	return &Actions{q: q, resolver: resolver}
}

// Querier returns the client the actions run through.
func (a *Actions) Querier() dango.Querier { return a.q }

// Resolver returns the app-config resolver.
func (a *Actions) Resolver() *appconfig.Resolver { return a.resolver }

// contract resolves the address stored under key. Contracts are
// resolved at the same height the action queries.
func (a *Actions) contract(ctx context.Context, key string, height types.Height) (types.Addr, error) {
	return appconfig.Lookup[types.Addr](ctx, a.resolver, a.q, key, height)
}
