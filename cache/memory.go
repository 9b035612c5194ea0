package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/strindex/model"
)

// MemoryCache is an in-process LRU cache with per-entry TTL.
// Capacity is bounded by entry count; expired entries are dropped lazily on
// access and during eviction.
type MemoryCache struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	jitter    time.Duration
	items     map[string]*list.Element
	evictList *list.List
	now       func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	key      string
	id       model.ID
	deadline time.Time
}

// MemoryCacheOptions configures a MemoryCache.
type MemoryCacheOptions struct {
	// TTL is the base lifetime of an entry. Zero means entries never expire.
	TTL time.Duration
	// TTLJitter randomizes each entry's lifetime by up to this much.
	TTLJitter time.Duration
	// Clock overrides wall-clock time, for tests.
	Clock func() time.Time
}

// NewMemoryCache creates an in-memory cache holding at most capacity entries.
func NewMemoryCache(capacity int, optFns ...func(*MemoryCacheOptions)) *MemoryCache {
	opts := MemoryCacheOptions{
		TTL:       time.Hour,
		TTLJitter: 10 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		capacity:  capacity,
		ttl:       opts.TTL,
		jitter:    opts.TTLJitter,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		now:       now,
	}
}

var _ Cache = (*MemoryCache)(nil)

// memoryKey is the process-local key shape. No partition or schema version
// slot: the cache dies with the process. NUL separators keep triples with
// embedded separators distinct without digesting.
func memoryKey(useCase model.UseCase, tenant model.TenantID, s string) string {
	return fmt.Sprintf("%s\x00%d\x00%s", useCase, tenant, s)
}

// Get returns a cached ID. ok=false if missing or expired.
func (c *MemoryCache) Get(_ context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, bool) {
	return c.get(memoryKey(useCase, tenant, s))
}

func (c *MemoryCache) get(key string) (model.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return 0, false
	}
	e := ent.Value.(*memoryEntry)
	if !e.deadline.IsZero() && c.now().After(e.deadline) {
		c.evictList.Remove(ent)
		delete(c.items, key)
		c.misses.Add(1)
		return 0, false
	}
	c.evictList.MoveToFront(ent)
	c.hits.Add(1)
	return e.id, true
}

// GetMany returns the cached subset of keys.
func (c *MemoryCache) GetMany(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) map[model.Key]model.ID {
	out := make(map[model.Key]model.ID)
	for tenant, set := range keys {
		for s := range set {
			if id, ok := c.Get(ctx, useCase, tenant, s); ok {
				out[model.Key{Tenant: tenant, String: s}] = id
			}
		}
	}
	return out
}

// Set caches one resolved ID.
func (c *MemoryCache) Set(_ context.Context, useCase model.UseCase, tenant model.TenantID, s string, id model.ID) {
	c.set(memoryKey(useCase, tenant, s), id)
}

func (c *MemoryCache) set(key string, id model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if c.ttl > 0 {
		deadline = c.now().Add(JitteredTTL(c.ttl, c.jitter))
	}

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*memoryEntry)
		e.id = id
		e.deadline = deadline
		return
	}

	ent := c.evictList.PushFront(&memoryEntry{key: key, id: id, deadline: deadline})
	c.items[key] = ent

	for c.capacity > 0 && c.evictList.Len() > c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*memoryEntry).key)
	}
}

// SetMany caches a batch of resolved IDs.
func (c *MemoryCache) SetMany(ctx context.Context, useCase model.UseCase, mapped map[model.TenantID]map[string]model.ID) {
	for tenant, byString := range mapped {
		for s, id := range byString {
			c.Set(ctx, useCase, tenant, s, id)
		}
	}
}

// Delete drops an entry.
func (c *MemoryCache) Delete(_ context.Context, useCase model.UseCase, tenant model.TenantID, s string) {
	key := memoryKey(useCase, tenant, s)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.Remove(ent)
		delete(c.items, key)
	}
}

// Purge drops every entry. Used by cache-transparency tests.
func (c *MemoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Stats returns hit/miss counters.
func (c *MemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of live entries, expired entries included until
// they are touched.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}
