package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/strindex/model"
)

// RedisCache is a Redis-backed Cache shared across processes.
//
// All Redis failures are absorbed: a failed read counts as a miss, a failed
// write is logged and dropped. The backing store stays authoritative either
// way.
type RedisCache struct {
	client redis.UniversalClient
	keyer  Keyer
	ttl    time.Duration
	jitter time.Duration
	logger *slog.Logger
}

// RedisCacheOptions configures a RedisCache.
type RedisCacheOptions struct {
	// TTL is the base lifetime of an entry.
	TTL time.Duration
	// TTLJitter randomizes each entry's lifetime by up to this much.
	TTLJitter time.Duration
	// Logger receives dropped-write and degraded-read notices. Nil disables
	// logging.
	Logger *slog.Logger
}

// NewRedisCache creates a Redis cache. The partition key separates multiple
// indexer deployments sharing one Redis.
func NewRedisCache(client redis.UniversalClient, partition string, optFns ...func(*RedisCacheOptions)) *RedisCache {
	opts := RedisCacheOptions{
		TTL:       time.Hour,
		TTLJitter: 10 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisCache{
		client: client,
		keyer:  NewKeyer(partition),
		ttl:    opts.TTL,
		jitter: opts.TTLJitter,
		logger: opts.Logger,
	}
}

var _ Cache = (*RedisCache)(nil)

// Get returns a cached ID. Any Redis error is a miss.
func (c *RedisCache) Get(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, bool) {
	val, err := c.client.Get(ctx, c.keyer.Key(useCase, tenant, s)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logDegraded("get", err)
		}
		return 0, false
	}
	return parseID(val)
}

// GetMany returns the cached subset of keys using a single MGET.
func (c *RedisCache) GetMany(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) map[model.Key]model.ID {
	ordered := keys.Keys()
	if len(ordered) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(ordered))
	for i, k := range ordered {
		cacheKeys[i] = c.keyer.Key(useCase, k.Tenant, k.String)
	}

	vals, err := c.client.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		c.logDegraded("mget", err)
		return nil
	}

	out := make(map[model.Key]model.ID, len(ordered))
	for i, v := range vals {
		if i >= len(ordered) || v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if id, ok := parseID(raw); ok {
			out[ordered[i]] = id
		}
	}
	return out
}

// Set caches one resolved ID. Failures are logged and dropped.
func (c *RedisCache) Set(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string, id model.ID) {
	key := c.keyer.Key(useCase, tenant, s)
	ttl := JitteredTTL(c.ttl, c.jitter)
	if err := c.client.Set(ctx, key, formatID(id), ttl).Err(); err != nil {
		c.logDegraded("set", err)
	}
}

// SetMany caches a batch of resolved IDs in one pipeline round trip.
func (c *RedisCache) SetMany(ctx context.Context, useCase model.UseCase, mapped map[model.TenantID]map[string]model.ID) {
	pipe := c.client.Pipeline()
	n := 0
	for tenant, byString := range mapped {
		for s, id := range byString {
			pipe.Set(ctx, c.keyer.Key(useCase, tenant, s), formatID(id), JitteredTTL(c.ttl, c.jitter))
			n++
		}
	}
	if n == 0 {
		return
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logDegraded("pipeline set", err)
	}
}

// Delete drops an entry.
func (c *RedisCache) Delete(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) {
	if err := c.client.Del(ctx, c.keyer.Key(useCase, tenant, s)).Err(); err != nil {
		c.logDegraded("del", err)
	}
}

func (c *RedisCache) logDegraded(op string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("indexer cache degraded to store",
		"op", op,
		"error", err,
	)
}

func formatID(id model.ID) string {
	return strconv.FormatInt(int64(id), 10)
}

func parseID(s string) (model.ID, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return model.ID(id), true
}
