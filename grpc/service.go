package dangogrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const serviceName = "dango.v1.QueryService"

// QueryServiceServer is the server-side interface for the dango query
// service.
type QueryServiceServer interface {
	Query(context.Context, *QueryEnvelope) (*ResponseEnvelope, error)
}

// RegisterQueryServiceServer registers the QueryServiceServer on a gRPC
// server.
func RegisterQueryServiceServer(s *grpc.Server, srv QueryServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func handlerQuery(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(QueryEnvelope)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Query(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: fullMethod("Query"),
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServiceServer).Query(ctx, req.(*QueryEnvelope))
	}
	return interceptor(ctx, req, info, handler)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor for the query
// service.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: handlerQuery},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dango/v1/query.cram",
}
