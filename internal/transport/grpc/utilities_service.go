package grpc

import (
	"context"

	ggrpc "google.golang.org/grpc"
)

// UtilitiesServer is the contract UtilitiesServiceDesc dispatches to.
type UtilitiesServer interface {
	Ping(ctx context.Context) string
}

type utilitiesHandler struct {
	srv UtilitiesServer
}

func (h utilitiesHandler) ping(ctx context.Context, dec func(any) error) (any, error) {
	var req PingRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	return &PingResponse{Message: h.srv.Ping(ctx)}, nil
}

// UtilitiesServiceDesc exposes an unauthenticated liveness probe as a gRPC
// unary call.
var UtilitiesServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "authentication.UtilitiesService",
	HandlerType: (*UtilitiesServer)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("Ping", func(h any) dispatchFunc { return h.(utilitiesHandler).ping }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "utilities.proto",
}

// RegisterUtilitiesServer registers the parameterless Ping RPC.
func RegisterUtilitiesServer(s *ggrpc.Server, srv UtilitiesServer) {
	s.RegisterService(&UtilitiesServiceDesc, utilitiesHandler{srv: srv})
}

// StaticPing is the trivial UtilitiesServer the real server wires: no
// dependency needs a liveness probe beyond "the process is scheduling
// goroutines".
type StaticPing struct{}

func (StaticPing) Ping(ctx context.Context) string { return "pong" }
