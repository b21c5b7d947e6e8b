package dangogrpc

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"google.golang.org/grpc"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// Compile-time interface check.
var _ dango.Transport = (*Client)(nil)

// Client implements dango.Transport for remote nodes over gRPC. It is
// safe for concurrent use.
type Client struct {
	cc    *grpc.ClientConn
	guard *server.Guard
}

// Dial connects to a remote dango node. The cramberry codec is forced
// on every call; callers supply credentials and any other options.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, errorsmod.Wrapf(dango.ErrTransport, "dial %s: %s", addr, err)
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection. The connection must use the
// cramberry codec.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{
		cc:    cc,
		guard: server.NewGuard("dango grpc client"),
	}
}

// Close closes the connection. Later calls to Execute fail with
// dango.ErrTransport.
func (c *Client) Close() error {
	if !c.guard.Close() {
		return nil
	}
	return c.cc.Close()
}

// Target returns the dialed address.
func (c *Client) Target() string { return c.cc.Target() }

// Execute implements dango.Transport.
func (c *Client) Execute(ctx context.Context, req types.QueryRequest, height types.Height) (types.QueryResponse, error) {
	if err := c.guard.Acquire(); err != nil {
		return types.QueryResponse{}, err
	}
	defer c.guard.Release()

	kind := req.Kind()
	env, err := encodeRequest(req, height)
	if err != nil {
		return types.QueryResponse{}, &dango.ProtocolError{Expected: kind, Reason: err.Error()}
	}

	out := new(ResponseEnvelope)
	if err := c.cc.Invoke(ctx, fullMethod("Query"), env, out); err != nil {
		return types.QueryResponse{}, fromStatus(kind, err)
	}

	resp, err := out.decode()
	if err != nil {
		return types.QueryResponse{}, &dango.ProtocolError{Expected: kind, Reason: err.Error()}
	}
	return resp, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("dangogrpc.Client(%s)", c.cc.Target())
}
