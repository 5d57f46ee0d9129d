package grpc

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/authnsvc/authentication-service/internal/authentication/engine"
)

// AuthenticationServer is the engine-facing contract the hand-written
// AuthenticationService ServiceDesc dispatches to. engine.Engine satisfies
// it directly.
type AuthenticationServer interface {
	Login(ctx context.Context, email, password, peerIP string) (engine.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (engine.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) (int64, error)
	Register(ctx context.Context, email, name, password string) (string, error)
	ResetPassword(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, accessToken, oldPassword, newPassword string) (engine.AuthResult, error)
	ConsumeEmailVerification(ctx context.Context, token string) error
}

type authenticationHandler struct {
	srv    AuthenticationServer
	logger *logrus.Logger
}

// peerIPFromContext returns the bare IP of the connected peer. peer.Addr.String()
// carries a "host:port" suffix for every real TCP/gRPC connection, which
// net.ParseIP rejects outright further down the stack in ipv4OrNil, so the
// port has to come off here before the address goes anywhere near it.
func peerIPFromContext(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (h *authenticationHandler) login(ctx context.Context, dec func(any) error) (any, error) {
	var req LoginRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	result, err := h.srv.Login(ctx, req.Email, req.Password, peerIPFromContext(ctx))
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &AuthTokenResponse{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}, nil
}

func (h *authenticationHandler) refresh(ctx context.Context, dec func(any) error) (any, error) {
	var req RefreshRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	result, err := h.srv.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &AuthTokenResponse{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}, nil
}

func (h *authenticationHandler) logout(ctx context.Context, dec func(any) error) (any, error) {
	var req LogoutRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.Logout(ctx, req.RefreshToken)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &LogoutResponse{RowsAffected: affected}, nil
}

func (h *authenticationHandler) register(ctx context.Context, dec func(any) error) (any, error) {
	var req RegisterRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	userID, err := h.srv.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &RegisterResponse{UserID: userID}, nil
}

func (h *authenticationHandler) resetPassword(ctx context.Context, dec func(any) error) (any, error) {
	var req ResetPasswordRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	if _, err := h.srv.ResetPassword(ctx, req.Email); err != nil {
		return nil, statusFromDomainError(err)
	}
	return &ResetPasswordResponse{}, nil
}

func (h *authenticationHandler) updatePassword(ctx context.Context, dec func(any) error) (any, error) {
	var req UpdatePasswordRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	accessToken, ok := accessTokenFromContext(ctx)
	if !ok {
		return nil, statusFromDomainError(authFailedForTransport())
	}
	result, err := h.srv.UpdatePassword(ctx, accessToken, req.PasswordOriginal, req.PasswordNew)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &AuthTokenResponse{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}, nil
}

func (h *authenticationHandler) verifyEmail(ctx context.Context, dec func(any) error) (any, error) {
	var req VerifyEmailRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	if err := h.srv.ConsumeEmailVerification(ctx, req.Token); err != nil {
		return nil, statusFromDomainError(err)
	}
	return &VerifyEmailResponse{}, nil
}

// AuthenticationServiceDesc is the hand-written grpc.ServiceDesc standing in
// for a protoc-generated one (see codec.go): every method decodes its
// request through the server's registered "json" codec instead of
// protobuf wire bytes.
var AuthenticationServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "authentication.AuthenticationService",
	HandlerType: (*AuthenticationServer)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("Login", func(h any) dispatchFunc { return h.(*authenticationHandler).login }),
		unaryMethod("Refresh", func(h any) dispatchFunc { return h.(*authenticationHandler).refresh }),
		unaryMethod("Logout", func(h any) dispatchFunc { return h.(*authenticationHandler).logout }),
		unaryMethod("Register", func(h any) dispatchFunc { return h.(*authenticationHandler).register }),
		unaryMethod("ResetPassword", func(h any) dispatchFunc { return h.(*authenticationHandler).resetPassword }),
		unaryMethod("UpdatePassword", func(h any) dispatchFunc { return h.(*authenticationHandler).updatePassword }),
		unaryMethod("VerifyEmail", func(h any) dispatchFunc { return h.(*authenticationHandler).verifyEmail }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "authentication.proto",
}

// RegisterAuthenticationServer registers srv against the server's
// AuthenticationServiceDesc.
func RegisterAuthenticationServer(s *ggrpc.Server, srv AuthenticationServer, logger *logrus.Logger) {
	s.RegisterService(&AuthenticationServiceDesc, &authenticationHandler{srv: srv, logger: logger})
}
