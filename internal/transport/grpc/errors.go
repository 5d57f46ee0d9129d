package grpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

// statusFromDomainError applies status mapping: authentication
// failures to Unauthenticated, validation to InvalidArgument, constraint
// violations to AlreadyExists, storage/internal errors to Internal, with no
// SQL detail ever reaching the client.
func statusFromDomainError(err error) error {
	if err == nil {
		return nil
	}
	de, ok := domain.AsError(err)
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}

	switch de.Code() {
	case domain.CodeValidation:
		return status.Error(codes.InvalidArgument, de.Error())
	case domain.CodeUnauthenticated, domain.CodeTokenExpired, domain.CodeInvalidToken:
		return status.Error(codes.Unauthenticated, "authentication failed")
	case domain.CodeNotFound:
		return status.Error(codes.NotFound, de.Error())
	case domain.CodeConstraintViolation:
		return status.Error(codes.AlreadyExists, de.Error())
	case domain.CodeStorageError:
		return status.Error(codes.Internal, "storage error")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
