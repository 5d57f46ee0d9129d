// Package config loads the service's configuration surface by merging, in
// order, built-in defaults, a default.yaml file, a <runtime_environment>.yaml
// file, and environment variables prefixed BACKEND_ with __ as the nesting
// separator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
)

const (
	envPrefix    = "BACKEND_"
	envSeparator = "__"
)

// DefaultQueryConfig is application.default.{query_limit,query_offset}.
type DefaultQueryConfig struct {
	QueryLimit  int64 `yaml:"query_limit"`
	QueryOffset int64 `yaml:"query_offset"`
}

// ApplicationConfig is the application.* surface: listen address, log
// level, JWT signing material, and default pagination limits.
type ApplicationConfig struct {
	IPAddress          string             `yaml:"ip_address"`
	Port               int                `yaml:"port"`
	LogLevel           string             `yaml:"log_level"`
	RuntimeEnvironment string             `yaml:"runtime_environment"`
	JWTSecret          string             `yaml:"jwt_secret"`
	JWTIssuer          string             `yaml:"jwt_issuer"`
	AccessTokenTTL     int                `yaml:"access_token_ttl"`
	RefreshTokenTTL    int                `yaml:"refresh_token_ttl"`
	Default            DefaultQueryConfig `yaml:"default"`
}

// DatabaseConfig is the database.* surface: connection parameters for the
// Postgres instance the stores run against.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	DatabaseName string `yaml:"database_name"`
	RequireSSL   bool   `yaml:"require_ssl"`
}

// TracingConfig is the tracing.* surface controlling the Jaeger exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	AgentHost    string  `yaml:"agent_host"`
	AgentPort    string  `yaml:"agent_port"`
	SamplerParam float64 `yaml:"sampler_param"`
}

// MetricsConfig is the metrics.* surface controlling the ambient Prometheus
// and health listener. APIKeys, when non-empty, gates /metrics and
// /health/detailed behind the X-API-Key header so a stray open port doesn't
// leak connection-pool and runtime internals.
type MetricsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Port    string   `yaml:"port"`
	APIKeys []string `yaml:"api_keys"`
}

// CacheConfig is the cache.* surface controlling the Redis-backed
// revoked-refresh-token denylist. Disabled, the engine falls back to the
// database as the single source of truth for session state.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Config is the complete merged configuration record, held read-only and
// shared across all handlers ("single immutable configuration
// record").
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Database    DatabaseConfig    `yaml:"database"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Cache       CacheConfig       `yaml:"cache"`
}

func defaults() Config {
	return Config{
		Application: ApplicationConfig{
			IPAddress:          "0.0.0.0",
			Port:               50051,
			LogLevel:           "info",
			RuntimeEnvironment: "development",
			AccessTokenTTL:     domain.DefaultAccessTokenTTLSeconds,
			RefreshTokenTTL:    domain.DefaultRefreshTokenTTLSeconds,
			Default: DefaultQueryConfig{
				QueryLimit:  10,
				QueryOffset: 0,
			},
		},
		Database: DatabaseConfig{
			Host:       "localhost",
			Port:       5432,
			RequireSSL: false,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			AgentHost:    "localhost",
			AgentPort:    "6831",
			SamplerParam: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    "9090",
		},
		Cache: CacheConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     6379,
			DB:       0,
			PoolSize: 10,
		},
	}
}

// Load merges defaults -> configDir/default.yaml -> configDir/<env>.yaml ->
// BACKEND_-prefixed environment variables, then validates the result.
func Load(configDir string, logger *logrus.Logger) (*Config, error) {
	cfg := defaults()

	if err := mergeYAMLFile(filepath.Join(configDir, "default.yaml"), &cfg, logger); err != nil {
		return nil, fmt.Errorf("load default.yaml: %w", err)
	}

	envFile := filepath.Join(configDir, cfg.Application.RuntimeEnvironment+".yaml")
	if err := mergeYAMLFile(envFile, &cfg, logger); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	applyEnvOverlay(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeYAMLFile(path string, cfg *Config, logger *logrus.Logger) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from internal config, not user input
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("path", path).Debug("configuration file not found, skipping")
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	logger.WithField("path", path).Info("configuration merged")
	return nil
}

// applyEnvOverlay walks cfg's yaml-tagged fields and overwrites any that have
// a matching BACKEND_<PATH>__<TO>__<FIELD> environment variable set, with __
// joining nesting levels (e.g. BACKEND_APPLICATION__JWT_SECRET).
func applyEnvOverlay(cfg *Config) {
	walkEnvOverlay(reflect.ValueOf(cfg).Elem(), envPrefix)
}

func walkEnvOverlay(v reflect.Value, prefix string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if tag == "" {
			tag = strings.ToLower(field.Name)
		}
		key := prefix + strings.ToUpper(tag)
		fv := v.Field(i)

		if fv.Kind() == reflect.Struct {
			walkEnvOverlay(fv, key+envSeparator)
			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		setFromEnv(fv, raw)
	}
}

func setFromEnv(fv reflect.Value, raw string) {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			fv.SetInt(n)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			fv.SetBool(b)
		}
	}
}

var validLogLevels = map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
var validEnvironments = map[string]bool{"development": true, "testing": true, "production": true}

// Validate enforces the constrained fields of configuration
// surface.
func (c *Config) Validate() error {
	if !validLogLevels[c.Application.LogLevel] {
		return fmt.Errorf("invalid application.log_level: %q", c.Application.LogLevel)
	}
	if !validEnvironments[c.Application.RuntimeEnvironment] {
		return fmt.Errorf("invalid application.runtime_environment: %q", c.Application.RuntimeEnvironment)
	}
	if c.Application.JWTSecret == "" {
		return fmt.Errorf("application.jwt_secret is required")
	}
	if c.Application.JWTIssuer == "" {
		return fmt.Errorf("application.jwt_issuer is required")
	}
	if c.Application.Port < 1 || c.Application.Port > 65535 {
		return fmt.Errorf("invalid application.port: %d", c.Application.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port: %d", c.Database.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.DatabaseName == "" {
		return fmt.Errorf("database.database_name is required")
	}
	return nil
}

// GetLogLevel returns the logrus level corresponding to application.log_level,
// defaulting to Info if unparseable.
func (c *Config) GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Application.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// DSN returns the Postgres connection string for database/sql and gorm.
func (c *Config) DSN() string {
	sslmode := "disable"
	if c.Database.RequireSSL {
		sslmode = "require"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.Username, c.Database.Password,
		c.Database.DatabaseName, sslmode)
}
