package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Method builds the descriptor for one unary method. call is a method
// expression on the service's server interface, e.g. (TillServiceServer).OpenTill.
func Method[S, Req, Resp any](service, name string, call func(S, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod is the wire path of a method, as used by ClientConn.Invoke.
func FullMethod(service, name string) string {
	return "/" + service + "/" + name
}
