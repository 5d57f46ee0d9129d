package grpc

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// claimContextKey is the request-scoped context key AuthInterceptor attaches
// a decoded access-token claim under, for admin-facade handlers to read.
type claimContextKey struct{}

// adminServices lists the fully-qualified service names the authorization
// interceptor guards; AuthenticationService and UtilitiesService issue or
// consume tokens themselves and are not gated by it.
var adminServices = map[string]bool{
	"authentication.UsersService":              true,
	"authentication.SessionsService":           true,
	"authentication.LoginsService":             true,
	"authentication.EmailVerificationsService": true,
}

// TokenVerifier is the narrow slice of engine configuration the interceptor
// needs to decode an access token: the signing secret and issuer.
type TokenVerifier struct {
	Secret domain.Secret[string]
	Issuer string
	Logger *logrus.Logger
}

// NewAuthInterceptor builds the unary server interceptor gating the
// admin-facade services: read the access_token header, decode it, assert
// it is an access token carrying the admin role, and attach the claim to
// the context. It never touches the database — the role was baked into the
// claim at issue time by the engine's issuePair.
func NewAuthInterceptor(v TokenVerifier) ggrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *ggrpc.UnaryServerInfo, handler ggrpc.UnaryHandler) (any, error) {
		if !adminServices[serviceNameFromFullMethod(info.FullMethod)] {
			return handler(ctx, req)
		}

		raw, ok := accessTokenFromContext(ctx)
		if !ok || raw == "" {
			return nil, status.Error(codes.Unauthenticated, "authentication failed")
		}

		token, err := domain.TryAccessTokenFromString(raw, v.Secret, v.Issuer)
		if err != nil {
			v.Logger.WithField("error", err).Debug("admin RPC rejected: token decode failed")
			return nil, status.Error(codes.Unauthenticated, "authentication failed")
		}

		if !token.Claim.Role.IsAdmin() {
			return nil, status.Error(codes.Unauthenticated, "admin required")
		}

		ctx = context.WithValue(ctx, claimContextKey{}, token.Claim)
		return handler(ctx, req)
	}
}

func serviceNameFromFullMethod(fullMethod string) string {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// claimFromContext retrieves the claim AuthInterceptor attached.
func claimFromContext(ctx context.Context) (domain.TokenClaim, bool) {
	claim, ok := ctx.Value(claimContextKey{}).(domain.TokenClaim)
	return claim, ok
}
