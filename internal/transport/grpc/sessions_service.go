package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"

	"github.com/authnsvc/authentication-service/internal/authentication/store"
)

// SessionsServer is the admin facade over SessionStore.
type SessionsServer interface {
	Read(ctx context.Context, id string) (store.Session, error)
	IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]store.Session, error)
	RevokeByID(ctx context.Context, id string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	RevokeAll(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteUser(ctx context.Context, userID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type sessionsHandler struct {
	srv    SessionsServer
	logger *logrus.Logger
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func sessionToDTO(s store.Session) SessionDTO {
	return SessionDTO{
		ID:          s.ID,
		UserID:      s.UserID,
		LoggedInAt:  s.LoggedInAt.Format(time.RFC3339),
		ExpiresAt:   s.ExpiresAt.Format(time.RFC3339),
		IsActive:    s.IsActive,
		LoginIP:     s.LoginIP,
		LoggedOutAt: formatTimePtr(s.LoggedOutAt),
		LogoutIP:    s.LogoutIP,
	}
}

func (h *sessionsHandler) read(ctx context.Context, dec func(any) error) (any, error) {
	var req IDRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	s, err := h.srv.Read(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &SessionResponse{Session: sessionToDTO(s)}, nil
}

func (h *sessionsHandler) indexByUser(ctx context.Context, dec func(any) error) (any, error) {
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
		h.logger.WithField("limit", req.Limit).Warn("sessions index requested an oversized page")
	}
	sessions, err := h.srv.IndexByUser(ctx, req.UserID, limit, offset)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	dtos := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		dtos = append(dtos, sessionToDTO(s))
	}
	return &SessionIndexResponse{Sessions: dtos}, nil
}

func (h *sessionsHandler) revoke(ctx context.Context, dec func(any) error) (any, error) {
	var req IDRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.RevokeByID(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &RevokeResponse{RowsAffected: affected}, nil
}

func (h *sessionsHandler) revokeUser(ctx context.Context, dec func(any) error) (any, error) {
	var req RevokeUserRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.RevokeAllForUser(ctx, req.UserID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &RevokeResponse{RowsAffected: affected}, nil
}

func (h *sessionsHandler) revokeAll(ctx context.Context, dec func(any) error) (any, error) {
	affected, err := h.srv.RevokeAll(ctx)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &RevokeResponse{RowsAffected: affected}, nil
}

func (h *sessionsHandler) delete(ctx context.Context, dec func(any) error) (any, error) {
	var req IDRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.Delete(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

func (h *sessionsHandler) deleteUser(ctx context.Context, dec func(any) error) (any, error) {
	var req RevokeUserRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.DeleteUser(ctx, req.UserID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

func (h *sessionsHandler) deleteAll(ctx context.Context, dec func(any) error) (any, error) {
	affected, err := h.srv.DeleteAll(ctx)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

// SessionsServiceDesc is the admin facade's hand-written ServiceDesc.
var SessionsServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "authentication.SessionsService",
	HandlerType: (*SessionsServer)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("Read", func(h any) dispatchFunc { return h.(*sessionsHandler).read }),
		unaryMethod("IndexByUser", func(h any) dispatchFunc { return h.(*sessionsHandler).indexByUser }),
		unaryMethod("Revoke", func(h any) dispatchFunc { return h.(*sessionsHandler).revoke }),
		unaryMethod("RevokeUser", func(h any) dispatchFunc { return h.(*sessionsHandler).revokeUser }),
		unaryMethod("RevokeAll", func(h any) dispatchFunc { return h.(*sessionsHandler).revokeAll }),
		unaryMethod("Delete", func(h any) dispatchFunc { return h.(*sessionsHandler).delete }),
		unaryMethod("DeleteUser", func(h any) dispatchFunc { return h.(*sessionsHandler).deleteUser }),
		unaryMethod("DeleteAll", func(h any) dispatchFunc { return h.(*sessionsHandler).deleteAll }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "sessions.proto",
}

// RegisterSessionsServer registers srv against SessionsServiceDesc.
func RegisterSessionsServer(s *ggrpc.Server, srv SessionsServer, logger *logrus.Logger) {
	s.RegisterService(&SessionsServiceDesc, &sessionsHandler{srv: srv, logger: logger})
}

// sessionAdminFacade adapts store.SessionStore to SessionsServer. Revocation
// performed through this facade never carries a logout IP: it is an
// administrative action, not a client-originated logout.
type sessionAdminFacade struct {
	sessions store.SessionStore
}

// NewSessionAdminFacade builds the SessionsServer the transport layer
// registers.
func NewSessionAdminFacade(sessions store.SessionStore) SessionsServer {
	return &sessionAdminFacade{sessions: sessions}
}

func (f *sessionAdminFacade) Read(ctx context.Context, id string) (store.Session, error) {
	return f.sessions.FindByID(ctx, id)
}

func (f *sessionAdminFacade) IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]store.Session, error) {
	return f.sessions.IndexByUser(ctx, userID, limit, offset)
}

func (f *sessionAdminFacade) RevokeByID(ctx context.Context, id string) (int64, error) {
	return f.sessions.RevokeByID(ctx, id, nil)
}

func (f *sessionAdminFacade) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return f.sessions.RevokeAllForUser(ctx, userID, nil)
}

func (f *sessionAdminFacade) RevokeAll(ctx context.Context) (int64, error) {
	return f.sessions.RevokeAll(ctx)
}

func (f *sessionAdminFacade) Delete(ctx context.Context, id string) (int64, error) {
	return f.sessions.DeleteByID(ctx, id)
}

func (f *sessionAdminFacade) DeleteUser(ctx context.Context, userID string) (int64, error) {
	return f.sessions.DeleteAllForUser(ctx, userID)
}

func (f *sessionAdminFacade) DeleteAll(ctx context.Context) (int64, error) {
	return f.sessions.DeleteAll(ctx)
}
