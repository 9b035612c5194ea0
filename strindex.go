package strindex

import (
	"context"

	"github.com/hupe1980/strindex/model"
	"github.com/hupe1980/strindex/store"
)

// Convenience aliases so callers rarely need to import model directly.
type (
	// ID is the encoded surrogate key for an interned string.
	ID = model.ID
	// TenantID identifies an isolated customer/organization scope.
	TenantID = model.TenantID
	// UseCase is the namespace for a class of strings.
	UseCase = model.UseCase
	// Key identifies one (tenant, string) pair.
	Key = model.Key
	// KeyCollection is the batch input shape, tenant -> set of strings.
	KeyCollection = model.KeyCollection
	// KeyResult is the outcome of resolving one pair.
	KeyResult = model.KeyResult
	// KeyResults aggregates per-key outcomes across a batch.
	KeyResults = model.KeyResults
)

// NewKeyCollection builds a KeyCollection from tenant -> string slices.
func NewKeyCollection(keys map[TenantID][]string) KeyCollection {
	return model.NewKeyCollection(keys)
}

// StringIndexer turns free-form strings into compact integer surrogates,
// batched per tenant, with forward and reverse lookup.
//
// Implementations must be safe for concurrent use. Concurrent creation
// attempts for one (tenant, use case, string) triple converge on a single
// ID; the backing store's uniqueness constraint arbitrates, and losers of
// the race observe the winner's ID rather than an error.
type StringIndexer interface {
	// Record ensures a surrogate ID exists for the pair, creating one if
	// absent, and returns it.
	Record(ctx context.Context, useCase UseCase, tenant TenantID, s string) (ID, error)

	// BulkRecord does the same for every (tenant, string) pair across all
	// tenants. Per-key failures are captured in the returned KeyResults;
	// they never abort sibling keys.
	BulkRecord(ctx context.Context, useCase UseCase, keys KeyCollection) (*KeyResults, error)

	// Resolve is the read-only forward lookup; it never creates.
	// Returns ErrNotFound when no mapping exists.
	Resolve(ctx context.Context, useCase UseCase, tenant TenantID, s string) (ID, error)

	// ReverseResolve is the read-only reverse lookup.
	// Returns ErrNotFound when no mapping exists.
	ReverseResolve(ctx context.Context, useCase UseCase, tenant TenantID, id ID) (string, error)
}

// Indexer is the fully composed indexer: static table -> cache -> store,
// each layer optional except the store.
type Indexer struct {
	chain StringIndexer
	raw   *RawIndexer
}

var _ StringIndexer = (*Indexer)(nil)

// New composes an Indexer over the given backing store.
//
//	st := store.NewMemoryStore()
//	idx, err := strindex.New(st,
//	    strindex.WithCache(cache.NewMemoryCache(100_000)),
//	    strindex.WithLogger(strindex.NewJSONLogger(slog.LevelInfo)),
//	)
func New(s store.Store, opts ...Option) (*Indexer, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	raw := NewRawIndexer(s, opts...)
	var chain StringIndexer = raw

	if o.cache != nil {
		chain = NewCachingIndexer(o.cache, chain, opts...)
	}
	if len(o.staticStrings) > 0 {
		static, err := NewStaticStringIndexer(chain, o.staticStrings)
		if err != nil {
			return nil, err
		}
		chain = static
	}

	return &Indexer{
		chain: chain,
		raw:   raw,
	}, nil
}

// Record implements StringIndexer.
func (i *Indexer) Record(ctx context.Context, useCase UseCase, tenant TenantID, s string) (ID, error) {
	return i.chain.Record(ctx, useCase, tenant, s)
}

// BulkRecord implements StringIndexer.
func (i *Indexer) BulkRecord(ctx context.Context, useCase UseCase, keys KeyCollection) (*KeyResults, error) {
	return i.chain.BulkRecord(ctx, useCase, keys)
}

// Resolve implements StringIndexer.
func (i *Indexer) Resolve(ctx context.Context, useCase UseCase, tenant TenantID, s string) (ID, error) {
	return i.chain.Resolve(ctx, useCase, tenant, s)
}

// ReverseResolve implements StringIndexer.
func (i *Indexer) ReverseResolve(ctx context.Context, useCase UseCase, tenant TenantID, id ID) (string, error) {
	return i.chain.ReverseResolve(ctx, useCase, tenant, id)
}

// Validate verifies the backing store is reachable. Throttling is treated
// as benign (logged, not returned); other errors propagate.
func (i *Indexer) Validate(ctx context.Context) error {
	return i.raw.Validate(ctx)
}
