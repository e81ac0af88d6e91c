// Package cache stores prediction and analytics responses keyed by the
// graph they were computed for.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: never stores anything. The default when caching is off.
//   - [FileCache]: JSON files under a directory, for the CLI.
//   - [RedisCache]: a Redis server, shared by several server instances.
//
// Keys are built with a [Keyer] so every backend sees the same key layout:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), sessionID+":")
//	key := k.PredictionKey("Simple IOR Choice", cache.Hash(graphJSON))
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil). Errors are reserved for backend
// failures; callers treat them like a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
