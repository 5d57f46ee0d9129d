package grpc

import (
	"context"

	ggrpc "google.golang.org/grpc"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// dispatchFunc is the shape every hand-written handler method above
// implements: decode the request via the codec-provided dec, call the
// engine, and return a response or a gRPC status error.
type dispatchFunc func(ctx context.Context, dec func(any) error) (any, error)

// unaryMethod adapts a dispatchFunc-returning method into a grpc.MethodDesc,
// the glue a hand-rolled ServiceDesc needs in place of protoc-generated
// per-method stubs.
func unaryMethod(name string, bind func(srv any) dispatchFunc) ggrpc.MethodDesc {
	return ggrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor ggrpc.UnaryServerInterceptor) (any, error) {
			fn := bind(srv)
			if interceptor == nil {
				return fn(ctx, dec)
			}
			fullMethod := name
			if m, ok := ggrpc.Method(ctx); ok {
				fullMethod = m
			}
			info := &ggrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(ctx, dec)
			}
			return interceptor(ctx, nil, info, handler)
		},
	}
}

// authFailedForTransport mirrors the engine's opaque authentication-failure
// error for handlers that reject a request before ever calling the engine
// (a missing access_token header).
func authFailedForTransport() error {
	return domain.Unauthenticated("authentication failed")
}
