package metrics

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a gRPC unary interceptor that records
// rpc_requests_total and rpc_request_duration_seconds for every call.
func UnaryServerInterceptor(m *PrometheusMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// DatabaseMiddleware records gorm query duration and error counts against a
// PrometheusMetrics instance.
type DatabaseMiddleware struct {
	metrics *PrometheusMetrics
}

// NewDatabaseMiddleware creates a new database middleware instance.
func NewDatabaseMiddleware(metrics *PrometheusMetrics) *DatabaseMiddleware {
	return &DatabaseMiddleware{metrics: metrics}
}

// RecordQuery records a database query against table/operation.
func (dm *DatabaseMiddleware) RecordQuery(table, operation string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	dm.metrics.dbQueryDuration.WithLabelValues(table, operation).Observe(duration.Seconds())
	dm.metrics.dbQueriesTotal.WithLabelValues(table, operation, status).Inc()
}

// RecordConnectionError records a database connection error.
func (dm *DatabaseMiddleware) RecordConnectionError() {
	dm.metrics.dbConnectionErrors.Inc()
}

// UpdateConnectionCount updates the active database connections gauge.
func (dm *DatabaseMiddleware) UpdateConnectionCount(count float64) {
	dm.metrics.dbConnections.Set(count)
}
