// Package cache stores short-lived keys (revoked tokens, reset tokens) in
// process memory or in redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"city-tours/internal/config"
)

// ErrNotFound is returned by Get when the key is absent or expired
var ErrNotFound = errors.New("cache: key not found")

// Store is a string key/value store with per-key expiry
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; a zero ttl never expires
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// New creates the store selected by cfg.Driver
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}

// Take reads and deletes key, so a value can be consumed only once
func Take(ctx context.Context, s Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if err := s.Delete(ctx, key); err != nil {
		return "", fmt.Errorf("failed to delete key: %w", err)
	}
	return v, nil
}
