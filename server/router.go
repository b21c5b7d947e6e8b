// Package server provides the node-side half of the query protocol: a
// router that dispatches each request to the handler registered for
// its variant tag, and the Backend and Contract interfaces a node
// implements to answer them.
//
// Both the in-process transport (package local) and the gRPC server
// (package dangogrpc) serve queries through a Router.
package server

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

// Handler answers one query kind. It receives the validated request
// and the requested height (0 = latest).
type Handler func(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error)

// Router routes queries by variant tag. It is safe for concurrent use;
// handlers may be registered while serving.
type Router struct {
	mu       sync.RWMutex
	handlers map[types.QueryKind]Handler
	guard    *Guard
}

// NewRouter creates a router with no handlers.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[types.QueryKind]Handler),
		guard:    NewGuard("dango router"),
	}
}

// NewBackendRouter creates a router answering every query kind from b.
func NewBackendRouter(b Backend) *Router {
	r := NewRouter()
	r.HandleBackend(b)
	return r
}

// Handle registers h for kind, replacing any previous handler.
func (r *Router) Handle(kind types.QueryKind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Kinds returns the registered kinds in declaration order.
func (r *Router) Kinds() []types.QueryKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]types.QueryKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Serve dispatches req. Malformed requests, kinds with no handler and
// handler responses of the wrong kind fail with *dango.ProtocolError.
// After Close, Serve fails with dango.ErrTransport.
func (r *Router) Serve(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error) {
	if err := r.guard.Acquire(); err != nil {
		return types.QueryResponse{}, err
	}
	defer r.guard.Release()

	variant, err := req.Variant()
	if err != nil {
		return types.QueryResponse{}, &dango.ProtocolError{Expected: types.KindUnknown, Reason: err.Error()}
	}
	kind := variant.Kind()

	r.mu.RLock()
	h, ok := r.handlers[kind]
	r.mu.RUnlock()
	if !ok {
		return types.QueryResponse{}, &dango.ProtocolError{Expected: kind, Reason: "no handler registered"}
	}

	resp, err := h(ctx, req, height)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).
			Stringer("kind", kind).
			Uint64("height", height).
			Msg("query handler failed")
		return types.QueryResponse{}, err
	}

	if err := dango.CheckResponse(resp, kind); err != nil {
		return types.QueryResponse{}, err
	}
	return resp, nil
}

// Close stops the router. Queries already admitted run to completion.
func (r *Router) Close() {
	r.guard.Close()
}

// Closed reports whether Close has been called.
func (r *Router) Closed() bool {
	return r.guard.IsClosed()
}
