package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"

	"github.com/authnsvc/authentication-service/internal/authentication/store"
)

// LoginsServer is the admin facade over the append-only login journal.
type LoginsServer interface {
	Create(ctx context.Context, userID string, loginIP *string) (store.Login, error)
	IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]store.Login, error)
	Index(ctx context.Context, limit, offset int64) ([]store.Login, error)
}

type loginsHandler struct {
	srv    LoginsServer
	logger *logrus.Logger
}

func loginToDTO(l store.Login) LoginDTO {
	return LoginDTO{
		ID:      l.ID,
		UserID:  l.UserID,
		LoginOn: l.LoginOn.Format(time.RFC3339),
		LoginIP: l.LoginIP,
	}
}

func (h *loginsHandler) create(ctx context.Context, dec func(any) error) (any, error) {
	var req CreateLoginRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	l, err := h.srv.Create(ctx, req.UserID, req.LoginIP)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &LoginResponse{Login: loginToDTO(l)}, nil
}

func (h *loginsHandler) indexByUser(ctx context.Context, dec func(any) error) (any, error) {
	var req struct {
		UserID string `json:"user_id"`
		IndexRequest
	}
	if err := dec(&req); err != nil {
		return nil, err
	}
	limit, offset, warn, boundsErr := store.ValidateQueryBounds(req.Limit, req.Offset)
	if boundsErr != nil {
		return nil, statusFromDomainError(boundsErr)
	}
	if warn {
		h.logger.WithField("limit", req.Limit).Warn("logins index requested an oversized page")
	}
	logins, err := h.srv.IndexByUser(ctx, req.UserID, limit, offset)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &LoginIndexResponse{Logins: loginsToDTOs(logins)}, nil
}

func (h *loginsHandler) index(ctx context.Context, dec func(any) error) (any, error) {
	var req IndexRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	limit, offset, warn, boundsErr := store.ValidateQueryBounds(req.Limit, req.Offset)
	if boundsErr != nil {
		return nil, statusFromDomainError(boundsErr)
	}
	if warn {
		h.logger.WithField("limit", req.Limit).Warn("logins index requested an oversized page")
	}
	logins, err := h.srv.Index(ctx, limit, offset)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &LoginIndexResponse{Logins: loginsToDTOs(logins)}, nil
}

func loginsToDTOs(logins []store.Login) []LoginDTO {
	dtos := make([]LoginDTO, 0, len(logins))
	for _, l := range logins {
		dtos = append(dtos, loginToDTO(l))
	}
	return dtos
}

// LoginsServiceDesc is the admin facade's hand-written ServiceDesc.
var LoginsServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "authentication.LoginsService",
	HandlerType: (*LoginsServer)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("Create", func(h any) dispatchFunc { return h.(*loginsHandler).create }),
		unaryMethod("IndexByUser", func(h any) dispatchFunc { return h.(*loginsHandler).indexByUser }),
		unaryMethod("Index", func(h any) dispatchFunc { return h.(*loginsHandler).index }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "logins.proto",
}

// RegisterLoginsServer registers srv against LoginsServiceDesc.
func RegisterLoginsServer(s *ggrpc.Server, srv LoginsServer, logger *logrus.Logger) {
	s.RegisterService(&LoginsServiceDesc, &loginsHandler{srv: srv, logger: logger})
}

// loginAdminFacade adapts store.LoginStore to LoginsServer.
type loginAdminFacade struct {
	logins store.LoginStore
}

// NewLoginAdminFacade builds the LoginsServer the transport layer registers.
func NewLoginAdminFacade(logins store.LoginStore) LoginsServer {
	return &loginAdminFacade{logins: logins}
}

func (f *loginAdminFacade) Create(ctx context.Context, userID string, loginIP *string) (store.Login, error) {
	return f.logins.Insert(ctx, store.Login{UserID: userID, LoginOn: time.Now().UTC(), LoginIP: loginIP})
}

func (f *loginAdminFacade) IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]store.Login, error) {
	return f.logins.IndexByUser(ctx, userID, limit, offset)
}

func (f *loginAdminFacade) Index(ctx context.Context, limit, offset int64) ([]store.Login, error) {
	return f.logins.Index(ctx, limit, offset)
}
