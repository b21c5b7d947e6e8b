package dangogrpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/dango/server"
)

// Compile-time interface check.
var _ QueryServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a node-side router as a gRPC query service.
type GRPCServer struct {
	router *server.Router
}

// NewGRPCServer creates a gRPC server answering from router.
func NewGRPCServer(router *server.Router) *GRPCServer {
	return &GRPCServer{router: router}
}

// Register adds the query service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterQueryServiceServer(gs, s)
}

// Serve starts a gRPC server on the given listener. It blocks until the
// returned server is stopped; use NewServer when the caller needs the
// *grpc.Server handle.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	return s.NewServer(opts...).Serve(lis)
}

// NewServer creates a *grpc.Server with the query service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

// Router returns the underlying router.
func (s *GRPCServer) Router() *server.Router {
	return s.router
}

// Query implements QueryServiceServer.
func (s *GRPCServer) Query(ctx context.Context, env *QueryEnvelope) (*ResponseEnvelope, error) {
	req, err := env.decode()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.router.Serve(ctx, req, env.Height)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := encodeResponse(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
