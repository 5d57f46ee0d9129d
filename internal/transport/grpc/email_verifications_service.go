package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"

	"github.com/authnsvc/authentication-service/internal/authentication/store"
)

// EmailVerificationsServer is the admin facade over EmailVerificationStore.
// It exposes only read/index and the bulk-cleanup deletes; issuance itself
// stays inside the authentication engine.
type EmailVerificationsServer interface {
	IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]store.EmailVerification, error)
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteUsed(ctx context.Context) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type emailVerificationsHandler struct {
	srv    EmailVerificationsServer
	logger *logrus.Logger
}

func emailVerificationToDTO(e store.EmailVerification) EmailVerificationDTO {
	return EmailVerificationDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Token:     e.Token,
		ExpiresAt: e.ExpiresAt.Format(time.RFC3339),
		IsUsed:    e.IsUsed,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func (h *emailVerificationsHandler) indexByUser(ctx context.Context, dec func(any) error) (any, error) {
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
		h.logger.WithField("limit", req.Limit).Warn("email verifications index requested an oversized page")
	}
	rows, err := h.srv.IndexByUser(ctx, req.UserID, limit, offset)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	dtos := make([]EmailVerificationDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, emailVerificationToDTO(r))
	}
	return &EmailVerificationIndexResponse{EmailVerifications: dtos}, nil
}

func (h *emailVerificationsHandler) deleteExpired(ctx context.Context, dec func(any) error) (any, error) {
	affected, err := h.srv.DeleteExpired(ctx)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

func (h *emailVerificationsHandler) deleteUsed(ctx context.Context, dec func(any) error) (any, error) {
	affected, err := h.srv.DeleteUsed(ctx)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

func (h *emailVerificationsHandler) deleteUser(ctx context.Context, dec func(any) error) (any, error) {
	var req IDRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.DeleteAllForUser(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

// EmailVerificationsServiceDesc is the admin facade's hand-written
// ServiceDesc.
var EmailVerificationsServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "authentication.EmailVerificationsService",
	HandlerType: (*EmailVerificationsServer)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("IndexByUser", func(h any) dispatchFunc { return h.(*emailVerificationsHandler).indexByUser }),
		unaryMethod("DeleteExpired", func(h any) dispatchFunc { return h.(*emailVerificationsHandler).deleteExpired }),
		unaryMethod("DeleteUsed", func(h any) dispatchFunc { return h.(*emailVerificationsHandler).deleteUsed }),
		unaryMethod("DeleteUser", func(h any) dispatchFunc { return h.(*emailVerificationsHandler).deleteUser }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "email_verifications.proto",
}

// RegisterEmailVerificationsServer registers srv against
// EmailVerificationsServiceDesc.
func RegisterEmailVerificationsServer(s *ggrpc.Server, srv EmailVerificationsServer, logger *logrus.Logger) {
	s.RegisterService(&EmailVerificationsServiceDesc, &emailVerificationsHandler{srv: srv, logger: logger})
}

// emailVerificationAdminFacade adapts store.EmailVerificationStore to
// EmailVerificationsServer.
type emailVerificationAdminFacade struct {
	emailVerifications store.EmailVerificationStore
}

// NewEmailVerificationAdminFacade builds the EmailVerificationsServer the
// transport layer registers.
func NewEmailVerificationAdminFacade(emailVerifications store.EmailVerificationStore) EmailVerificationsServer {
	return &emailVerificationAdminFacade{emailVerifications: emailVerifications}
}

func (f *emailVerificationAdminFacade) IndexByUser(ctx context.Context, userID string, limit, offset int64) ([]store.EmailVerification, error) {
	return f.emailVerifications.IndexByUser(ctx, userID, limit, offset)
}

func (f *emailVerificationAdminFacade) DeleteExpired(ctx context.Context) (int64, error) {
	return f.emailVerifications.DeleteExpired(ctx, time.Now().UTC())
}

func (f *emailVerificationAdminFacade) DeleteUsed(ctx context.Context) (int64, error) {
	return f.emailVerifications.DeleteUsed(ctx)
}

func (f *emailVerificationAdminFacade) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	return f.emailVerifications.DeleteAllForUser(ctx, userID)
}
