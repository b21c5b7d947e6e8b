// Package local provides a zero-copy, in-process dango transport.
//
// For nodes compiled into the same binary as the client (tests,
// embedded tooling), this adapter hands requests straight to a
// server.Router with no serialization.
package local

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// Compile-time interface check.
var _ dango.Transport = (*Transport)(nil)

// Transport executes queries against an in-process router.
type Transport struct {
	router *server.Router
	guard  *server.Guard
}

// NewTransport creates an in-process transport over router.
func NewTransport(router *server.Router) *Transport {
	return &Transport{
		router: router,
		guard:  server.NewGuard("dango local transport"),
	}
}

// NewBackendTransport creates an in-process transport answering every
// query kind from b.
func NewBackendTransport(b server.Backend) *Transport {
	return NewTransport(server.NewBackendRouter(b))
}

// Execute implements dango.Transport. Errors the node did not classify
// are reported as dango.ErrQueryFailed, matching what a remote node
// would return.
func (t *Transport) Execute(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error) {
	if err := t.guard.Acquire(); err != nil {
		return types.QueryResponse{}, err
	}
	defer t.guard.Release()

	if err := ctx.Err(); err != nil {
		return types.QueryResponse{}, errorsmod.Wrap(dango.ErrTransport, err.Error())
	}

	resp, err := t.router.Serve(ctx, req, height)
	if err != nil {
		if dango.Classified(err) {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{}, errorsmod.Wrap(dango.ErrQueryFailed, err.Error())
	}
	return resp, nil
}

// Close marks the transport closed. The router keeps serving other
// transports.
func (t *Transport) Close() error {
	t.guard.Close()
	return nil
}

// Router returns the underlying router for advanced use cases.
func (t *Transport) Router() *server.Router {
	return t.router
}
