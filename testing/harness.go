package dangotest

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/blockberries/dango"
	dangogrpc "github.com/blockberries/dango/grpc"
	"github.com/blockberries/dango/local"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// LocalClient is the client type the harness hands out.
type LocalClient = dango.Client[*local.Transport, dango.ChainInfo, dango.NoSigner]

// Harness wires an in-memory chain to a dango client through the
// in-process transport.
type Harness struct {
	t *testing.T

	Chain     *Chain
	Router    *server.Router
	Transport *local.Transport
	Client    *LocalClient
}

// NewHarness creates a harness around a fresh chain.
func NewHarness(t *testing.T, chainID string) *Harness {
	t.Helper()
	chain := NewChain(chainID)
	router := server.NewBackendRouter(chain)
	transport := local.NewTransport(router)
	return &Harness{
		t:         t,
		Chain:     chain,
		Router:    router,
		Transport: transport,
		Client:    dango.NewClient(transport, dango.ChainInfo{ID: chainID}, dango.NoSigner{}),
	}
}

// Commit advances the chain by one height.
func (h *Harness) Commit(fn func(s *State)) types.Height {
	h.t.Helper()
	return h.Chain.Commit(fn)
}

// Query runs v through the client, failing the test on error.
func (h *Harness) Query(v types.RequestVariant, height types.Height) types.QueryResponse {
	h.t.Helper()
	resp, err := h.Client.Query(context.Background(), types.NewQueryRequest(v), height)
	if err != nil {
		h.t.Fatalf("%s query at height %d failed: %v", v.Kind(), height, err)
	}
	return resp
}

// StartGRPC serves router on a random local port and returns a
// connected gRPC transport. Both are torn down when the test ends.
func StartGRPC(t *testing.T, router *server.Router) *dangogrpc.Client {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	gs := dangogrpc.NewGRPCServer(router).NewServer()
	go func() {
		// Serve returns once the server is stopped.
		_ = gs.Serve(lis)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := dangogrpc.Dial(ctx, lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		gs.Stop()
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		gs.GracefulStop()
	})
	return client
}
