package logger

import (
	"context"

	"github.com/google/uuid"
)

// correlationIDKey is the context key for correlation ID
type correlationIDKey struct{}

// userIDKey is the context key for user ID
type userIDKey struct{}

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// WithUserID adds a user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetCorrelationID retrieves the correlation ID from the context
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetUserID retrieves the user ID from the context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID creates a new correlation ID
func GenerateCorrelationID() string {
	return uuid.New().String()
}

// RequestLoggerContext stamps ctx with a correlation ID, generating one if
// incoming is empty, and with userID when one is already known.
func RequestLoggerContext(ctx context.Context, correlationID, userID string) context.Context {
	if correlationID == "" {
		correlationID = GenerateCorrelationID()
	}
	ctx = WithCorrelationID(ctx, correlationID)
	if userID != "" {
		ctx = WithUserID(ctx, userID)
	}
	return ctx
}
