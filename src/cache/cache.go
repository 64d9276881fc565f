// Package cache stores serialized ISIN data between requests, in process or in Redis.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// New builds the cache selected by backend.
func New(backend, redisAddr string, ttl time.Duration) (Cache, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(ttl), nil
	case BackendRedis:
		return NewRedis(redisAddr), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", backend)
}

// IsinKey is the key ISIN data with its rate history is stored under.
func IsinKey(isinID string) string {
	return "isin-data-" + isinID
}
