package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that never hits.
func NewNullCache() Cache { return &NullCache{} }

func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (c *NullCache) Delete(context.Context, string) error { return nil }

func (c *NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
