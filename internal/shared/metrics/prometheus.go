package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics holds the authentication service's collectors: RPC
// traffic, login outcomes, token issuance, and the database pool beneath
// them.
type PrometheusMetrics struct {
	rpcRequestsTotal   *prometheus.CounterVec
	rpcRequestDuration *prometheus.HistogramVec

	loginAttemptsTotal    *prometheus.CounterVec
	tokensIssuedTotal     *prometheus.CounterVec
	sessionsRevokedTotal  *prometheus.CounterVec

	uptimeCounter prometheus.Counter
	startTime     time.Time

	dbConnections      prometheus.Gauge
	dbQueryDuration    *prometheus.HistogramVec
	dbQueriesTotal     *prometheus.CounterVec
	dbConnectionErrors prometheus.Counter

	customMetrics map[string]prometheus.Collector
}

// NewPrometheusMetrics creates a new Prometheus metrics instance scoped to
// serviceName.
func NewPrometheusMetrics(serviceName string) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		startTime:     time.Now(),
		customMetrics: make(map[string]prometheus.Collector),
	}

	pm.rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "rpc_requests_total",
			Help:        "Total number of gRPC unary requests",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"method", "code"},
	)

	pm.rpcRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "rpc_request_duration_seconds",
			Help:        "gRPC unary request duration in seconds",
			ConstLabels: prometheus.Labels{"service": serviceName},
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "code"},
	)

	pm.loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "login_attempts_total",
			Help:        "Total number of login attempts",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"outcome"},
	)

	pm.tokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "tokens_issued_total",
			Help:        "Total number of JWTs issued, by kind",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"kind"},
	)

	pm.sessionsRevokedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "sessions_revoked_total",
			Help:        "Total number of sessions revoked, by reason",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"reason"},
	)

	pm.uptimeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "uptime_seconds",
			Help:        "Service uptime in seconds",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
	)

	pm.dbConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "db_connections_active",
			Help:        "Active database connections",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
	)

	pm.dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: prometheus.Labels{"service": serviceName},
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"table", "operation"},
	)

	pm.dbQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"table", "operation", "status"},
	)

	pm.dbConnectionErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "db_connection_errors_total",
			Help:        "Total number of database connection errors",
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
	)

	return pm
}

// Register registers all metrics with the default Prometheus registry.
func (pm *PrometheusMetrics) Register() error {
	collectors := []prometheus.Collector{
		pm.rpcRequestsTotal,
		pm.rpcRequestDuration,
		pm.loginAttemptsTotal,
		pm.tokensIssuedTotal,
		pm.sessionsRevokedTotal,
		pm.uptimeCounter,
		pm.dbConnections,
		pm.dbQueryDuration,
		pm.dbQueriesTotal,
		pm.dbConnectionErrors,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	for _, metric := range pm.customMetrics {
		if err := prometheus.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// Unregister unregisters all metrics from the default Prometheus registry.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.rpcRequestsTotal)
	prometheus.Unregister(pm.rpcRequestDuration)
	prometheus.Unregister(pm.loginAttemptsTotal)
	prometheus.Unregister(pm.tokensIssuedTotal)
	prometheus.Unregister(pm.sessionsRevokedTotal)
	prometheus.Unregister(pm.uptimeCounter)
	prometheus.Unregister(pm.dbConnections)
	prometheus.Unregister(pm.dbQueryDuration)
	prometheus.Unregister(pm.dbQueriesTotal)
	prometheus.Unregister(pm.dbConnectionErrors)

	for _, metric := range pm.customMetrics {
		prometheus.Unregister(metric)
	}
}

// UpdateUptime updates the uptime counter.
func (pm *PrometheusMetrics) UpdateUptime() {
	pm.uptimeCounter.Add(time.Since(pm.startTime).Seconds())
}

// RecordRPC records one completed gRPC unary call.
func (pm *PrometheusMetrics) RecordRPC(method, code string, duration time.Duration) {
	pm.rpcRequestsTotal.WithLabelValues(method, code).Inc()
	pm.rpcRequestDuration.WithLabelValues(method, code).Observe(duration.Seconds())
}

// RecordLoginAttempt records a login outcome ("success" or "failure").
func (pm *PrometheusMetrics) RecordLoginAttempt(outcome string) {
	pm.loginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenIssued records a JWT of the given kind being issued.
func (pm *PrometheusMetrics) RecordTokenIssued(kind string) {
	pm.tokensIssuedTotal.WithLabelValues(kind).Inc()
}

// RecordSessionsRevoked records rows revoked for reason ("logout",
// "rotation", "password_change", "admin").
func (pm *PrometheusMetrics) RecordSessionsRevoked(reason string, count int64) {
	pm.sessionsRevokedTotal.WithLabelValues(reason).Add(float64(count))
}

// MetricsHandler returns the Prometheus metrics HTTP handler for the
// ambient gin router.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// GetMetricNames returns a list of all registered metric names.
func (pm *PrometheusMetrics) GetMetricNames() []string {
	names := []string{
		"rpc_requests_total",
		"rpc_request_duration_seconds",
		"login_attempts_total",
		"tokens_issued_total",
		"sessions_revoked_total",
		"uptime_seconds",
		"db_connections_active",
		"db_query_duration_seconds",
		"db_queries_total",
		"db_connection_errors_total",
	}

	for name := range pm.customMetrics {
		names = append(names, name)
	}

	return names
}
