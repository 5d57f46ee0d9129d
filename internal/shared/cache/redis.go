// Package cache provides the Redis-backed revoked-refresh-token denylist: a
// fast rejection path for Refresh so a rotated-away or logged-out token
// fails before the session store takes a round trip.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/authnsvc/authentication-service/internal/authentication/config"
)

const revokedKeyPrefix = "authn:revoked-refresh:"

// RevocationCache wraps a Redis client holding short-lived denylist entries
// for refresh tokens the session store has just revoked. It is an
// optimization, never the source of truth: a cache miss still falls through
// to the database.
type RevocationCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRevocationCache dials Redis per cfg and verifies the connection with a
// PING before returning.
func NewRevocationCache(cfg *config.CacheConfig, logger *logrus.Logger) (*RevocationCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	}).Info("revocation cache connected")

	return &RevocationCache{client: rdb, logger: logger}, nil
}

// MarkRevoked denylists refreshToken for ttl, the remaining lifetime the
// token would otherwise still verify for. Entries age out on their own; the
// cache never needs an explicit cleanup pass.
func (c *RevocationCache) MarkRevoked(ctx context.Context, refreshToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, revokedKeyPrefix+refreshToken, "1", ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to denylist revoked refresh token")
		return fmt.Errorf("mark refresh token revoked: %w", err)
	}
	return nil
}

// IsRevoked reports whether refreshToken is on the denylist. A Redis error
// is treated as "unknown", not "revoked" — callers fall through to the
// database rather than lock out a valid session on a cache outage.
func (c *RevocationCache) IsRevoked(ctx context.Context, refreshToken string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKeyPrefix+refreshToken).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked refresh token: %w", err)
	}
	return n > 0, nil
}

// Close releases the underlying connection pool.
func (c *RevocationCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// HealthCheck pings Redis with a 3-second timeout. The ambient
// /health/detailed view does not call it.
func (c *RevocationCache) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Stats returns the underlying connection pool statistics.
func (c *RevocationCache) Stats() *redis.PoolStats {
	return c.client.PoolStats()
}
