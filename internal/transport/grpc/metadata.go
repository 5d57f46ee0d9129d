package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

func metadataValue(ctx context.Context, key string) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(key)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func accessTokenFromContext(ctx context.Context) (string, bool) {
	return metadataValue(ctx, "access_token")
}

func refreshTokenFromContext(ctx context.Context) (string, bool) {
	return metadataValue(ctx, "refresh_token")
}
