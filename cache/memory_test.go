package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/strindex/model"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(16)

	_, ok := c.Get(ctx, "metrics", 1, "foo")
	assert.False(t, ok)

	c.Set(ctx, "metrics", 1, "foo", 100)
	id, ok := c.Get(ctx, "metrics", 1, "foo")
	require.True(t, ok)
	assert.EqualValues(t, 100, id)

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestMemoryCache_KeyIsolation(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(16)

	c.Set(ctx, "metrics", 1, "a", 2)
	c.Set(ctx, "metrics", 2, "a", 4)
	c.Set(ctx, "spans", 1, "a", 6)
	c.Set(ctx, "metrics", 1, "a:1", 8)
	c.Set(ctx, "metrics", 11, "a", 10)

	for _, tc := range []struct {
		useCase model.UseCase
		tenant  model.TenantID
		s       string
		want    model.ID
	}{
		{"metrics", 1, "a", 2},
		{"metrics", 2, "a", 4},
		{"spans", 1, "a", 6},
		{"metrics", 1, "a:1", 8},
		{"metrics", 11, "a", 10},
	} {
		id, ok := c.Get(ctx, tc.useCase, tc.tenant, tc.s)
		require.True(t, ok)
		assert.Equal(t, tc.want, id)
	}
	assert.Equal(t, 5, c.Len())
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(16, func(o *MemoryCacheOptions) {
		o.TTL = time.Minute
		o.TTLJitter = 0
		o.Clock = func() time.Time { return now }
	})

	c.Set(ctx, "metrics", 1, "foo", 100)

	_, ok := c.Get(ctx, "metrics", 1, "foo")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "metrics", 1, "foo")
	assert.False(t, ok, "expired entry must read as a miss")
	assert.Zero(t, c.Len(), "expired entry is dropped on access")
}

func TestMemoryCache_Eviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	c.Set(ctx, "metrics", 1, "a", 2)
	c.Set(ctx, "metrics", 1, "b", 4)

	// Touch "a" so "b" is the LRU victim.
	_, ok := c.Get(ctx, "metrics", 1, "a")
	require.True(t, ok)

	c.Set(ctx, "metrics", 1, "c", 6)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get(ctx, "metrics", 1, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "metrics", 1, "b")
	assert.False(t, ok, "least recently used entry is evicted")
}

func TestMemoryCache_GetManySetMany(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(16)

	c.SetMany(ctx, "metrics", map[model.TenantID]map[string]model.ID{
		1: {"a": 2, "b": 4},
		2: {"c": 6},
	})

	got := c.GetMany(ctx, "metrics", model.NewKeyCollection(map[model.TenantID][]string{
		1: {"a", "b", "missing"},
		2: {"c"},
	}))

	assert.Len(t, got, 3)
	assert.EqualValues(t, 4, got[model.Key{Tenant: 1, String: "b"}])
}

func TestMemoryCache_DeleteAndPurge(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(16)

	c.Set(ctx, "metrics", 1, "a", 2)
	c.Set(ctx, "metrics", 1, "b", 4)

	c.Delete(ctx, "metrics", 1, "a")
	_, ok := c.Get(ctx, "metrics", 1, "a")
	assert.False(t, ok)

	c.Purge()
	assert.Zero(t, c.Len())
	_, ok = c.Get(ctx, "metrics", 1, "b")
	assert.False(t, ok)
}

func TestMemoryCache_UpdateExisting(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(16)

	c.Set(ctx, "metrics", 1, "a", 2)
	c.Set(ctx, "metrics", 1, "a", 8)

	id, ok := c.Get(ctx, "metrics", 1, "a")
	require.True(t, ok)
	assert.EqualValues(t, 8, id)
	assert.Equal(t, 1, c.Len())
}
