package strindex

import (
	"github.com/hupe1980/strindex/cache"
	"github.com/hupe1980/strindex/idgen"
	"github.com/hupe1980/strindex/model"
)

// defaultBulkConcurrency bounds parallel store writes during BulkRecord.
const defaultBulkConcurrency = 16

type options struct {
	cache            cache.Cache
	staticStrings    map[string]model.ID
	logger           *Logger
	metricsCollector MetricsCollector
	bulkConcurrency  int
	generator        *idgen.Generator
}

// Option configures the composed Indexer.
type Option func(*options)

// WithCache fronts the backing store with the given cache. Without it reads
// and writes go straight to the store.
//
// The cache instance is injected explicitly; its partition key and TTL are
// fixed at its own construction, not read from global state.
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithStaticStrings layers a table of well-known strings with pre-assigned
// IDs above the cache. Static IDs must be positive and odd (store-assigned
// surrogates are always even); New rejects tables violating that.
func WithStaticStrings(table map[string]model.ID) Option {
	return func(o *options) {
		o.staticStrings = table
	}
}

// WithLogger configures structured logging. Defaults to a discard logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures metrics collection.
// Defaults to NoopMetricsCollector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithBulkConcurrency bounds parallel store writes during BulkRecord.
// Values below 1 fall back to the default.
func WithBulkConcurrency(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.bulkConcurrency = n
		}
	}
}

// WithGenerator overrides the ID generator. Primarily a test seam.
func WithGenerator(g *idgen.Generator) Option {
	return func(o *options) {
		if g != nil {
			o.generator = g
		}
	}
}
