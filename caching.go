package strindex

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/strindex/cache"
	"github.com/hupe1980/strindex/model"
)

// CachingIndexer wraps an inner StringIndexer with a read-through/
// write-through cache. Reads consult the cache first and populate it on
// miss; writes go to the inner indexer (the store stays the source of
// truth) and the cache is updated afterwards.
//
// The cache is advisory: its failures are absorbed by the Cache
// implementation, so the only externally visible effect of a broken cache
// backend is latency.
type CachingIndexer struct {
	cache   cache.Cache
	inner   StringIndexer
	group   singleflight.Group
	metrics MetricsCollector
}

var _ StringIndexer = (*CachingIndexer)(nil)

// NewCachingIndexer composes a cache in front of inner.
func NewCachingIndexer(c cache.Cache, inner StringIndexer, opts ...Option) *CachingIndexer {
	o := options{
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &CachingIndexer{
		cache:   c,
		inner:   inner,
		metrics: o.metricsCollector,
	}
}

// Record returns the cached ID when present; otherwise delegates and
// caches the result. An ID in cache proves the mapping exists, so the
// write path can be skipped entirely.
func (c *CachingIndexer) Record(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	if id, ok := c.cache.Get(ctx, useCase, tenant, s); ok {
		c.metrics.RecordCache(1, 0)
		return id, nil
	}
	c.metrics.RecordCache(0, 1)

	id, err := c.inner.Record(ctx, useCase, tenant, s)
	if err != nil {
		return 0, err
	}
	c.cache.Set(ctx, useCase, tenant, s, id)
	return id, nil
}

// BulkRecord serves what it can from cache and delegates the rest in one
// batch, writing fresh results back.
func (c *CachingIndexer) BulkRecord(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error) {
	results := model.NewKeyResults()

	hits := c.cache.GetMany(ctx, useCase, keys)
	for key, id := range hits {
		results.Add(model.KeyResult{Tenant: key.Tenant, String: key.String, ID: id})
	}
	c.metrics.RecordCache(len(hits), keys.Size()-len(hits))

	missing := results.Unmapped(keys)
	if missing.Size() == 0 {
		return results, nil
	}

	fresh, err := c.inner.BulkRecord(ctx, useCase, missing)
	if err != nil {
		return nil, err
	}
	c.cache.SetMany(ctx, useCase, fresh.Mapped())
	results.Merge(fresh)
	return results, nil
}

// Resolve consults the cache first; misses fall through to the inner
// indexer and populate the cache. Concurrent misses for one key are
// deduplicated so the store sees a single lookup.
func (c *CachingIndexer) Resolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	if id, ok := c.cache.Get(ctx, useCase, tenant, s); ok {
		c.metrics.RecordCache(1, 0)
		return id, nil
	}
	c.metrics.RecordCache(0, 1)

	flightKey := fmt.Sprintf("%s\x00%d\x00%s", useCase, tenant, s)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		id, err := c.inner.Resolve(ctx, useCase, tenant, s)
		if err != nil {
			return nil, err
		}
		c.cache.Set(ctx, useCase, tenant, s, id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(model.ID), nil
}

// ReverseResolve delegates directly; only the forward direction is cached.
func (c *CachingIndexer) ReverseResolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID) (string, error) {
	return c.inner.ReverseResolve(ctx, useCase, tenant, id)
}
