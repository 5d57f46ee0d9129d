// Package grpc is the gRPC transport surface the authentication engine and
// admin facades are dispatched through. No .proto file is
// compiled here; every ServiceDesc is hand-written against the real
// google.golang.org/grpc API and every request/response is a plain struct
// marshaled by the "json" codec registered in codec.go. proto/*.proto
// documents the same wire contract for any client generated the usual way.
package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
	"github.com/authnsvc/authentication-service/internal/authentication/engine"
	"github.com/authnsvc/authentication-service/internal/authentication/store"
	sharedlogger "github.com/authnsvc/authentication-service/internal/shared/logger"
	"github.com/authnsvc/authentication-service/internal/shared/metrics"
	"github.com/authnsvc/authentication-service/internal/shared/tracing"
)

// Dependencies bundles everything Serve needs to stand up the transport
// layer: the engine for the authentication surface, the four stores for
// the admin facades, and the signing material AuthInterceptor decodes
// access tokens with.
type Dependencies struct {
	Engine             *engine.Engine
	Users              store.UserStore
	Sessions           store.SessionStore
	Logins             store.LoginStore
	EmailVerifications store.EmailVerificationStore
	Secret             domain.Secret[string]
	Issuer             string
	Logger             *logrus.Logger
	Metrics            *metrics.PrometheusMetrics
}

// NewServer builds the *grpc.Server with the json codec forced, the
// authorization interceptor wired for the admin-facade services, every
// ServiceDesc registered, and a real protobuf-backed health service plus
// server reflection.
//
// Reflection can only describe the pre-compiled health service's
// FileDescriptor; the hand-rolled AuthenticationService/UsersService/etc.
// ServiceDescs carry no .proto-derived descriptor, so grpcurl-style
// introspection only ever shows Check/Watch. Clients for the other
// services need the proto/*.proto files checked into this repo.
func NewServer(deps Dependencies) *ggrpc.Server {
	interceptor := NewAuthInterceptor(TokenVerifier{Secret: deps.Secret, Issuer: deps.Issuer, Logger: deps.Logger})

	chain := []ggrpc.UnaryServerInterceptor{tracingInterceptor(), loggingInterceptor(deps.Logger)}
	if deps.Metrics != nil {
		chain = append(chain, metrics.UnaryServerInterceptor(deps.Metrics))
	}
	chain = append(chain, interceptor)

	s := ggrpc.NewServer(
		ggrpc.ForceServerCodec(jsonCodec{}),
		ggrpc.ChainUnaryInterceptor(chain...),
	)

	RegisterAuthenticationServer(s, deps.Engine, deps.Logger)
	RegisterUtilitiesServer(s, StaticPing{})
	RegisterUsersServer(s, NewUserAdminFacade(deps.Users), deps.Logger)
	RegisterSessionsServer(s, NewSessionAdminFacade(deps.Sessions), deps.Logger)
	RegisterLoginsServer(s, NewLoginAdminFacade(deps.Logins), deps.Logger)
	RegisterEmailVerificationsServer(s, NewEmailVerificationAdminFacade(deps.EmailVerifications), deps.Logger)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	reflection.Register(s)

	return s
}

// loggingInterceptor logs every RPC's method and latency, tagged with a
// correlation ID carried in (or generated for) the "x-correlation-id"
// incoming metadata entry so a client-supplied or newly-minted ID threads
// through every log line for the call.
func loggingInterceptor(logger *logrus.Logger) ggrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *ggrpc.UnaryServerInfo, handler ggrpc.UnaryHandler) (any, error) {
		correlationID := correlationIDFromMetadata(ctx)
		ctx = sharedlogger.WithCorrelationID(ctx, correlationID)

		start := time.Now()
		resp, err := handler(ctx, req)

		fields := sharedlogger.RequestContextFields(correlationID, "")
		fields[sharedlogger.FieldMethod] = info.FullMethod
		fields[sharedlogger.FieldLatencyMs] = time.Since(start).Milliseconds()
		if err != nil {
			fields[sharedlogger.FieldError] = err
			logger.WithFields(fields).Warn("rpc failed")
		} else {
			logger.WithFields(fields).Debug("rpc completed")
		}
		return resp, err
	}
}

// correlationIDFromMetadata returns the caller-supplied "x-correlation-id",
// or mints a fresh one when the call carries none.
func correlationIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-correlation-id"); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return sharedlogger.GenerateCorrelationID()
}

// tracingInterceptor opens an opentracing span named "<Service>.<Method>"
// around every RPC, using whatever tracer tracing.InitTracer registered as
// the global tracer (a no-op tracer if tracing is disabled).
func tracingInterceptor() ggrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *ggrpc.UnaryServerInfo, handler ggrpc.UnaryHandler) (any, error) {
		span, ctx := tracing.StartSpan(ctx, spanName(info.FullMethod))
		resp, err := handler(ctx, req)
		tracing.FinishSpan(span, err)
		return resp, err
	}
}

// spanName turns a gRPC FullMethod ("/authentication.UsersService/Index")
// into "UsersService.Index".
func spanName(fullMethod string) string {
	service, method, found := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	if !found {
		return fullMethod
	}
	if idx := strings.LastIndex(service, "."); idx >= 0 {
		service = service[idx+1:]
	}
	return service + "." + method
}

// Listen opens addr and serves s on it, blocking until the listener fails
// or the caller stops s.
func Listen(s *ggrpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}
