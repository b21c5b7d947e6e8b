// Package dango is a typed query client for a Grug/Dango node.
//
// Every query funnels through one generic dispatch primitive,
// [Client.Query], which sends a single [types.QueryRequest] variant to
// the node over a pluggable [Transport] and checks that the response
// carries the same variant. Typed helpers in package query and the
// action catalog in package actions are thin call sites on top of it.
package dango

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/blockberries/dango/types"
)

// Transport executes exactly one query against a node. It is the only
// contract the client requires from the network layer; gRPC and
// in-process implementations live in packages grpc and local.
//
// Implementations should classify failures with the sentinels in this
// package (ErrTransport, ErrNotFound, ...). Unclassified errors are
// treated as transport failures.
type Transport interface {
	Execute(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error)
}

// Querier is what the resolver, the query helpers and the actions
// consume. *Client satisfies it for any type arguments.
type Querier interface {
	// Query executes req at height (0 = latest) and returns the matching
	// response variant. Callers outside this package verify the variant
	// with CheckResponse before dereferencing it.
	Query(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error)

	// ID identifies the client. It is stable for the client's lifetime
	// and unique within the process.
	ID() string
}

// Chain is the chain-identity capability of a client.
type Chain interface {
	ChainID() string
}

// ChainInfo is a static chain identity.
type ChainInfo struct {
	ID   string
	Name string
}

func (c ChainInfo) ChainID() string { return c.ID }

// NoChain marks a client that is not bound to a particular chain.
type NoChain struct{}

func (NoChain) ChainID() string { return "" }

// Signer is the signer-identity capability of a client. Queries never
// consult it; it exists so write-side operations can share the client
// value.
type Signer interface {
	Username() types.Username
}

// NoSigner marks a read-only client.
type NoSigner struct{}

func (NoSigner) Username() types.Username { return "" }

var clientSeq atomic.Uint64

// Compile-time interface check.
var _ Querier = (*Client[Transport, NoChain, NoSigner])(nil)

// Client composes a transport with chain and signer identities. The
// type parameters are capability markers: a Client[T, ChainInfo,
// NoSigner] can only be passed where a read-only client is accepted.
//
// Client holds no mutable query state and is safe for concurrent use.
type Client[T Transport, C Chain, S Signer] struct {
	transport T
	chain     C
	signer    S
	id        string
}

// NewClient creates a client over the given transport.
func NewClient[T Transport, C Chain, S Signer](transport T, chain C, signer S) *Client[T, C, S] {
	seq := clientSeq.Add(1)
	id := strconv.FormatUint(seq, 10)
	if chainID := chain.ChainID(); chainID != "" {
		id = chainID + "/" + id
	}
	return &Client[T, C, S]{
		transport: transport,
		chain:     chain,
		signer:    signer,
		id:        id,
	}
}

// NewPublicClient creates a read-only client not bound to a chain.
func NewPublicClient[T Transport](transport T) *Client[T, NoChain, NoSigner] {
	return NewClient(transport, NoChain{}, NoSigner{})
}

func (c *Client[T, C, S]) ID() string { return c.id }

func (c *Client[T, C, S]) Transport() T { return c.transport }

func (c *Client[T, C, S]) Chain() C { return c.chain }

func (c *Client[T, C, S]) Signer() S { return c.signer }

// Query executes req at height and returns the response variant
// matching the request's.
//
// A malformed request, or a response carrying any other variant, fails
// with a *ProtocolError. Failures reported by the transport keep their
// classification; anything unclassified becomes ErrTransport.
func (c *Client[T, C, S]) Query(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error) {
	variant, err := req.Variant()
	if err != nil {
		return types.QueryResponse{}, &ProtocolError{Expected: types.KindUnknown, Reason: err.Error()}
	}
	kind := variant.Kind()

	logger := zerolog.Ctx(ctx).With().
		Str("client", c.id).
		Stringer("kind", kind).
		Uint64("height", height).
		Logger()

	if err := ctx.Err(); err != nil {
		return types.QueryResponse{}, errorsmod.Wrapf(ErrTransport, "%s query: %s", kind, err)
	}

	resp, err := c.transport.Execute(ctx, req, height)
	if err != nil {
		logger.Debug().Err(err).Msg("query failed")
		if Classified(err) {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{}, errorsmod.Wrapf(ErrTransport, "%s query: %s", kind, err)
	}

	if err := CheckResponse(resp, kind); err != nil {
		logger.Debug().Err(err).Msg("response variant mismatch")
		return types.QueryResponse{}, err
	}

	logger.Debug().Msg("query ok")
	return resp, nil
}

// CheckResponse fails with a *ProtocolError unless resp carries exactly
// the variant of kind. Client.Query applies it to every response; code
// reading variants from an arbitrary Querier applies it again.
func CheckResponse(resp types.QueryResponse, kind types.QueryKind) error {
	got, err := resp.Kind()
	if err != nil {
		return &ProtocolError{Expected: kind, Reason: err.Error()}
	}
	if got != kind {
		return NewProtocolError(kind, got)
	}
	return nil
}

// String implements fmt.Stringer.
func (c *Client[T, C, S]) String() string {
	return fmt.Sprintf("dango.Client(%s)", c.id)
}
