// Package cache provides the read-through/write-through cache in front of
// the backing store.
//
// Cache entries are advisory: the store remains the source of truth, so a
// miss, an eviction or an unavailable cache backend only costs a slower
// path, never a wrong answer. Implementations therefore absorb their own
// failures and report misses instead of errors.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/strindex/model"
)

// Cache is a TTL'd key-value cache for resolved string IDs.
// Implementations must be safe for concurrent use and must never surface
// backend failures; a failed read is a miss, a failed write is dropped.
type Cache interface {
	// Get returns a cached ID. ok=false if missing.
	Get(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (id model.ID, ok bool)
	// GetMany returns the cached subset of keys.
	GetMany(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) map[model.Key]model.ID
	// Set caches one resolved ID.
	Set(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string, id model.ID)
	// SetMany caches a batch of resolved IDs.
	SetMany(ctx context.Context, useCase model.UseCase, mapped map[model.TenantID]map[string]model.ID)
	// Delete drops an entry. Used by tests and operational tooling.
	Delete(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string)
}

// schemaVersion is bumped when the key layout or value encoding changes,
// so stale entries from older deployments are never read.
const schemaVersion = 1

// maxPlainKeyLen is the longest raw string embedded verbatim in a cache
// key; anything longer (or containing a separator) is digested first.
const maxPlainKeyLen = 200

// Keyer formats namespaced cache keys.
//
// The partition key separates co-tenants of a shared cache backend (e.g.
// different indexer deployments); it is injected at construction rather
// than read from global state.
type Keyer struct {
	partition string
}

// NewKeyer creates a Keyer for the given cache partition.
func NewKeyer(partition string) Keyer {
	return Keyer{partition: partition}
}

// Key returns the namespaced cache key for a (use case, tenant, string)
// triple: strindex:<partition>:<version>:<use>:<tenant>:<digest>.
func (k Keyer) Key(useCase model.UseCase, tenant model.TenantID, s string) string {
	return fmt.Sprintf("strindex:%s:%d:%s:%d:%s", k.partition, schemaVersion, useCase, tenant, digest(s))
}

func digest(s string) string {
	if len(s) <= maxPlainKeyLen && clean(s) {
		return s
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// clean reports whether s is safe to embed in a cache key verbatim.
func clean(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c > '~' || c == ':' {
			return false
		}
	}
	return true
}

// JitteredTTL returns base extended by a random jitter of up to jitter, so
// entries written together do not expire in lockstep.
func JitteredTTL(base, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return base
	}
	return base + rand.N(jitter)
}
