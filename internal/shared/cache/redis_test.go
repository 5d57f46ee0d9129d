package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/authnsvc/authentication-service/internal/authentication/config"
)

func TestCacheConfig(t *testing.T) {
	cfg := &config.CacheConfig{
		Host:     "localhost",
		Port:     6379,
		Password: "",
		DB:       0,
		PoolSize: 10,
	}

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6379, cfg.Port)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
}

// TestRevocationCache_Integration requires a real Redis instance and is
// skipped in short mode.
func TestRevocationCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.CacheConfig{
		Host:     "localhost",
		Port:     6379,
		Password: "",
		DB:       1,
		PoolSize: 5,
	}

	rc, err := NewRevocationCache(cfg, logger)
	if err != nil {
		t.Skipf("Redis not available for integration test: %v", err)
		return
	}
	defer rc.Close()

	ctx := context.Background()
	token := "test-refresh-token"

	revoked, err := rc.IsRevoked(ctx, token)
	assert.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, rc.MarkRevoked(ctx, token, time.Minute))

	revoked, err = rc.IsRevoked(ctx, token)
	assert.NoError(t, err)
	assert.True(t, revoked)

	assert.NoError(t, rc.HealthCheck())
}

func TestRevocationCache_MarkRevokedNoopOnZeroTTL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.CacheConfig{Host: "localhost", Port: 6379, DB: 1, PoolSize: 5}
	rc, err := NewRevocationCache(cfg, logger)
	if err != nil {
		t.Skipf("Redis not available for integration test: %v", err)
		return
	}
	defer rc.Close()

	assert.NoError(t, rc.MarkRevoked(context.Background(), "unused-token", 0))
}
