package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/authnsvc/authentication-service/internal/authentication/config"
	"github.com/authnsvc/authentication-service/internal/authentication/domain"
	"github.com/authnsvc/authentication-service/internal/authentication/engine"
	"github.com/authnsvc/authentication-service/internal/authentication/store"
	apimiddleware "github.com/authnsvc/authentication-service/internal/shared/auth"
	"github.com/authnsvc/authentication-service/internal/shared/cache"
	"github.com/authnsvc/authentication-service/internal/shared/health"
	sharedlogger "github.com/authnsvc/authentication-service/internal/shared/logger"
	"github.com/authnsvc/authentication-service/internal/shared/metrics"
	"github.com/authnsvc/authentication-service/internal/shared/tracing"
	grpctransport "github.com/authnsvc/authentication-service/internal/transport/grpc"
	"github.com/gin-gonic/gin"
)

// serviceVersion is the structured logger's configured Version, which its
// field helpers add as "version"; plain logrus calls on the underlying
// *logrus.Logger do not carry it.
const serviceVersion = "1.0.0"

func main() {
	bootLogger := logrus.New()
	bootLogger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(configDir(), bootLogger)
	if err != nil {
		bootLogger.WithError(err).Fatal("failed to load configuration")
	}

	structured := sharedlogger.NewLogger(&sharedlogger.Config{
		Level:       cfg.Application.LogLevel,
		Format:      "json",
		ServiceName: "authentication-service",
		Version:     serviceVersion,
		Environment: cfg.Application.RuntimeEnvironment,
	})
	logger := structured.Logger

	logger.WithFields(logrus.Fields{
		"environment": cfg.Application.RuntimeEnvironment,
		"port":        cfg.Application.Port,
	}).Info("starting authentication service")

	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("failed to reach underlying sql.DB")
	}
	defer sqlDB.Close()

	if err := store.AutoMigrate(db); err != nil {
		logger.WithError(err).Fatal("failed to run database migrations")
	}
	logger.Info("database migrations completed")

	users := store.NewUserStore(db, logger)
	sessions := store.NewSessionStore(db, logger)
	logins := store.NewLoginStore(db, logger)
	emailVerifications := store.NewEmailVerificationStore(db, logger)

	authEngine := engine.New(users, sessions, logins, emailVerifications, engine.Config{
		Issuer:          cfg.Application.JWTIssuer,
		Secret:          domain.NewSecret(cfg.Application.JWTSecret),
		AccessTokenTTL:  time.Duration(cfg.Application.AccessTokenTTL) * time.Second,
		RefreshTokenTTL: time.Duration(cfg.Application.RefreshTokenTTL) * time.Second,
	}, logger)

	if cfg.Cache.Enabled {
		revocations, err := cache.NewRevocationCache(&cfg.Cache, logger)
		if err != nil {
			logger.WithError(err).Warn("failed to connect to revocation cache, continuing without it")
		} else {
			defer revocations.Close()
			authEngine.WithRevocationCache(revocations)
		}
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(&tracing.Config{
			ServiceName:  "authentication-service",
			AgentHost:    cfg.Tracing.AgentHost,
			AgentPort:    cfg.Tracing.AgentPort,
			SamplerType:  "const",
			SamplerParam: cfg.Tracing.SamplerParam,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to initialize jaeger tracer, continuing without tracing")
		} else {
			defer closer.Close()
			logger.WithField("agent", cfg.Tracing.AgentHost+":"+cfg.Tracing.AgentPort).Info("jaeger tracing enabled")
		}
	}

	promMetrics := metrics.NewPrometheusMetrics("authentication-service")
	if cfg.Metrics.Enabled {
		if err := promMetrics.Register(); err != nil {
			logger.WithError(err).Warn("failed to register prometheus metrics")
		} else {
			go func() {
				logger.WithField("port", cfg.Metrics.Port).Info("ambient http listener starting")
				if err := startAmbientServer(cfg.Metrics.Port, sqlDB, cfg, logger); err != nil {
					logger.WithError(err).Warn("ambient http listener stopped")
				}
			}()
		}
	}
	authEngine.WithMetrics(promMetrics)

	if cfg.Metrics.Enabled {
		dbMetrics := metrics.NewDatabaseMiddleware(promMetrics)
		go reportConnectionPoolStats(sqlDB, dbMetrics)
	}

	server := grpctransport.NewServer(grpctransport.Dependencies{
		Engine:             authEngine,
		Users:              users,
		Sessions:           sessions,
		Logins:             logins,
		EmailVerifications: emailVerifications,
		Secret:             domain.NewSecret(cfg.Application.JWTSecret),
		Issuer:             cfg.Application.JWTIssuer,
		Logger:             logger,
		Metrics:            promMetrics,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Application.IPAddress, cfg.Application.Port)
	go func() {
		logger.WithField("addr", addr).Info("gRPC server listening")
		if err := grpctransport.Listen(server, addr); err != nil {
			logger.WithError(err).Fatal("gRPC server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down authentication service")

	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(30 * time.Second):
		logger.Warn("graceful stop timed out, forcing shutdown")
		server.Stop()
	}

	logger.Info("authentication service stopped")
}

// startAmbientServer serves /metrics and /health/* on the same port, for
// deployments that don't run a gRPC health-check sidecar. Liveness and
// readiness stay open for orchestrator probes; /metrics and the
// internals-revealing /health/detailed are gated behind an API key when one
// is configured.
func startAmbientServer(port string, sqlDB *sql.DB, cfg *config.Config, logger *logrus.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	checker := health.NewHealthChecker(sqlDB, cfg, logger)
	router.GET("/health/", checker.BasicHealth)
	router.GET("/health/live", checker.Liveness)
	router.GET("/health/ready", checker.Readiness)

	protected := router.Group("/")
	if len(cfg.Metrics.APIKeys) > 0 {
		protected.Use(apimiddleware.NewAPIKeyMiddleware(cfg.Metrics.APIKeys, "X-API-Key", logger).RequireAPIKey())
	}
	protected.GET("/metrics", metrics.MetricsHandler())
	protected.GET("/health/detailed", checker.DetailedHealth)

	return (&http.Server{
		Addr:    ":" + port,
		Handler: router,
	}).ListenAndServe()
}

// reportConnectionPoolStats samples sqlDB's connection pool every 15 seconds
// and exposes the open-connection count as a gauge, until the process exits.
func reportConnectionPoolStats(sqlDB *sql.DB, dbMetrics *metrics.DatabaseMiddleware) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		stats := sqlDB.Stats()
		dbMetrics.UpdateConnectionCount(float64(stats.OpenConnections))
	}
}

func configDir() string {
	if dir := os.Getenv("BACKEND_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

func openDatabase(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if logger.Level == logrus.DebugLevel || logger.Level == logrus.TraceLevel {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logLevel,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
