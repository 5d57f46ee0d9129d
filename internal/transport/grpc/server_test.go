package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	sharedlogger "github.com/authnsvc/authentication-service/internal/shared/logger"
)

func TestSpanName(t *testing.T) {
	assert.Equal(t, "UsersService.Index", spanName("/authentication.UsersService/Index"))
	assert.Equal(t, "AuthenticationService.Login", spanName("/authentication.AuthenticationService/Login"))
	assert.Equal(t, "malformed", spanName("malformed"))
}

func TestTracingInterceptorInvokesHandler(t *testing.T) {
	interceptor := tracingInterceptor()
	info := &ggrpc.UnaryServerInfo{FullMethod: "/authentication.UsersService/Index"}

	resp, err := interceptor(context.Background(), "req", info, okHandler)

	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestCorrelationIDFromMetadataUsesIncomingValue(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-correlation-id", "corr-abc"))
	assert.Equal(t, "corr-abc", correlationIDFromMetadata(ctx))
}

func TestCorrelationIDFromMetadataGeneratesWhenMissing(t *testing.T) {
	assert.NotEmpty(t, correlationIDFromMetadata(context.Background()))
}

func TestLoggingInterceptorPropagatesCorrelationID(t *testing.T) {
	logger := discardLogger()
	interceptor := loggingInterceptor(logger)
	info := &ggrpc.UnaryServerInfo{FullMethod: "/authentication.UsersService/Index"}

	var sawCorrelationID string
	handler := func(ctx context.Context, req any) (any, error) {
		sawCorrelationID = sharedlogger.GetCorrelationID(ctx)
		return "ok", nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-correlation-id", "corr-xyz"))
	resp, err := interceptor(ctx, "req", info, handler)

	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "corr-xyz", sawCorrelationID)
}
