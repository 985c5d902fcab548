package service

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// InstrumentedCache wraps a report cache and records hit/miss metrics
// for every lookup.
type InstrumentedCache struct {
	inner   reportCache
	metrics cacheMetrics
}

// NewInstrumentedCache constructs the wrapper. A nil metrics recorder
// degrades to plain delegation.
func NewInstrumentedCache(inner reportCache, metrics cacheMetrics) *InstrumentedCache {
	return &InstrumentedCache{inner: inner, metrics: metrics}
}

// Get delegates the lookup and records the outcome.
func (c *InstrumentedCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.inner.Get(ctx, key, dest)
	if c.metrics != nil && (err == nil || errors.Is(err, appErrors.ErrCacheMiss)) {
		c.metrics.RecordCacheOperation(err == nil)
	}
	return err
}

// Set delegates the write.
func (c *InstrumentedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}
