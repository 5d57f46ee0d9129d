// Package health exposes the ambient HTTP readiness/liveness surface that
// sits alongside the gRPC server's grpc_health_v1 service: orchestrators
// that speak plain HTTP (load balancers, Kubernetes probes without a gRPC
// health-check sidecar) hit this instead.
package health

import (
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/authnsvc/authentication-service/internal/authentication/config"
)

// HealthStatus is one of healthy/unhealthy/degraded.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// HealthResponse is the full readiness/detailed-health payload.
type HealthResponse struct {
	Status      HealthStatus           `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Uptime      time.Duration          `json:"uptime"`
	Checks      map[string]CheckResult `json:"checks"`
	System      SystemInfo             `json:"system"`
}

// CheckResult is one named check's outcome.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Details interface{}  `json:"details,omitempty"`
}

// SystemInfo is a snapshot of the Go runtime's resource usage.
type SystemInfo struct {
	GoVersion    string     `json:"go_version"`
	NumGoroutine int        `json:"num_goroutine"`
	MemoryUsage  MemoryInfo `json:"memory"`
}

// MemoryInfo is runtime.MemStats trimmed to what an operator cares about.
type MemoryInfo struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

// HealthChecker serves /health routes against the service's database
// connection and configuration surface.
type HealthChecker struct {
	db        *sql.DB
	config    *config.Config
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthChecker builds a HealthChecker. db may be nil (readiness then
// always reports the database check unhealthy).
func NewHealthChecker(db *sql.DB, cfg *config.Config, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		db:        db,
		config:    cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RegisterRoutes mounts /health, /health/live, /health/ready, and
// /health/detailed on router.
func (h *HealthChecker) RegisterRoutes(router *gin.Engine) {
	g := router.Group("/health")
	{
		g.GET("/", h.BasicHealth)
		g.GET("/live", h.Liveness)
		g.GET("/ready", h.Readiness)
		g.GET("/detailed", h.DetailedHealth)
	}
}

// BasicHealth always reports healthy if the process can respond.
func (h *HealthChecker) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
		"message":   "authentication service is healthy",
	})
}

// Liveness is the Kubernetes liveness probe target.
func (h *HealthChecker) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// Readiness is the Kubernetes readiness probe target: reports 503 when the
// database is unreachable.
func (h *HealthChecker) Readiness(c *gin.Context) {
	checks := map[string]CheckResult{"database": h.checkDatabase()}
	status := StatusHealthy
	if checks["database"].Status != StatusHealthy {
		status = StatusUnhealthy
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Environment: h.config.Application.RuntimeEnvironment,
		Uptime:      time.Since(h.startTime),
		Checks:      checks,
	}

	if status == StatusHealthy {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// DetailedHealth reports database, configuration, and runtime-resource
// checks together.
func (h *HealthChecker) DetailedHealth(c *gin.Context) {
	checks := map[string]CheckResult{
		"database":      h.checkDatabase(),
		"configuration": h.checkConfiguration(),
		"system":        h.checkSystemResources(),
	}

	status := StatusHealthy
	if checks["database"].Status != StatusHealthy || checks["configuration"].Status != StatusHealthy {
		status = StatusDegraded
	}
	if checks["system"].Status == StatusUnhealthy {
		status = StatusUnhealthy
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Environment: h.config.Application.RuntimeEnvironment,
		Uptime:      time.Since(h.startTime),
		Checks:      checks,
		System:      h.getSystemInfo(),
	}

	httpStatus := http.StatusOK
	if status == StatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, response)
}

func (h *HealthChecker) checkDatabase() CheckResult {
	if h.db == nil {
		return CheckResult{Status: StatusUnhealthy, Message: "database connection not initialized"}
	}

	if err := h.db.Ping(); err != nil {
		h.logger.WithError(err).Error("database health check failed")
		return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("database connection failed: %v", err)}
	}

	stats := h.db.Stats()
	details := map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}

	if stats.WaitCount > 100 && stats.WaitDuration > time.Second {
		return CheckResult{Status: StatusDegraded, Message: "database connection pool experiencing high wait times", Details: details}
	}
	return CheckResult{Status: StatusHealthy, Message: "database connection healthy", Details: details}
}

func (h *HealthChecker) checkConfiguration() CheckResult {
	if h.config.Application.JWTSecret == "" {
		return CheckResult{Status: StatusUnhealthy, Message: "application.jwt_secret not configured"}
	}
	if h.config.Application.RuntimeEnvironment == "production" && len(h.config.Application.JWTSecret) < 32 {
		return CheckResult{Status: StatusDegraded, Message: "jwt_secret looks too short for production use"}
	}
	return CheckResult{Status: StatusHealthy, Message: "configuration valid"}
}

func (h *HealthChecker) checkSystemResources() CheckResult {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := bToMb(m.Alloc)
	details := map[string]interface{}{
		"alloc_mb":      allocMB,
		"sys_mb":        bToMb(m.Sys),
		"num_goroutine": runtime.NumGoroutine(),
	}

	if allocMB > 500 {
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("high memory usage: %d MB", allocMB), Details: details}
	}
	if runtime.NumGoroutine() > 1000 {
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("high goroutine count: %d", runtime.NumGoroutine()), Details: details}
	}
	return CheckResult{Status: StatusHealthy, Message: "system resources healthy", Details: details}
}

func (h *HealthChecker) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemoryUsage: MemoryInfo{
			Alloc:      bToMb(m.Alloc),
			TotalAlloc: bToMb(m.TotalAlloc),
			Sys:        bToMb(m.Sys),
			NumGC:      m.NumGC,
		},
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// SetupDefaultHealthRoutes wires a HealthChecker and registers its routes on
// router in one call.
func SetupDefaultHealthRoutes(router *gin.Engine, db *sql.DB, cfg *config.Config, logger *logrus.Logger) {
	NewHealthChecker(db, cfg, logger).RegisterRoutes(router)
}
