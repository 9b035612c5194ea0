package strindex

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/strindex/idcodec"
	"github.com/hupe1980/strindex/idgen"
	"github.com/hupe1980/strindex/model"
	"github.com/hupe1980/strindex/store"
)

// RawIndexer implements StringIndexer directly over a backing store,
// without any caching. It owns ID allocation: a miss on the write path
// draws a fresh ID from the generator, encodes it through idcodec and
// hands it to the store's insert-if-absent, which arbitrates races.
type RawIndexer struct {
	store           store.Store
	gen             *idgen.Generator
	logger          *Logger
	metrics         MetricsCollector
	bulkConcurrency int
}

var _ StringIndexer = (*RawIndexer)(nil)

// NewRawIndexer creates an indexer bound to the given store. Most callers
// want New, which composes caching and static layers around this one.
func NewRawIndexer(s store.Store, opts ...Option) *RawIndexer {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		bulkConcurrency:  defaultBulkConcurrency,
		generator:        idgen.New(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &RawIndexer{
		store:           s,
		gen:             o.generator,
		logger:          o.logger,
		metrics:         o.metricsCollector,
		bulkConcurrency: o.bulkConcurrency,
	}
}

// Record ensures a surrogate ID exists for the given pair, creating one if
// absent, and returns it.
func (r *RawIndexer) Record(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	start := time.Now()
	id, err := r.record(ctx, useCase, tenant, s)
	r.metrics.RecordRecord(time.Since(start), err)
	r.logger.LogRecord(ctx, useCase, tenant, err)
	return id, err
}

func (r *RawIndexer) record(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	id, err := r.store.Resolve(ctx, useCase, tenant, s)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	return r.store.Insert(ctx, useCase, tenant, s, r.newID())
}

// BulkRecord resolves every (tenant, string) pair across all tenants,
// creating IDs for pairs the store has never seen. Failures are captured
// per key; sibling keys are unaffected.
func (r *RawIndexer) BulkRecord(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error) {
	start := time.Now()

	results, err := r.resolveExisting(ctx, useCase, keys)
	if err != nil {
		return nil, err
	}

	// Keys without a mapping (including failed reads: insert-if-absent is
	// safe to attempt regardless) get a freshly allocated ID.
	missing := results.Unmapped(keys)
	if missing.Size() > 0 {
		r.insertMissing(ctx, useCase, missing, results)
	}

	r.metrics.RecordBulkRecord(keys.Size(), results.FailedCount(), time.Since(start))
	r.logger.LogBulkRecord(ctx, useCase, keys.Size(), results.FailedCount())
	return results, nil
}

func (r *RawIndexer) resolveExisting(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error) {
	results, err := r.store.ResolveMany(ctx, useCase, keys)
	if err == nil {
		return results, nil
	}
	if !errors.Is(err, store.ErrNotImplemented) {
		return nil, err
	}

	// Backend has no batched path; fall back to per-item lookups.
	results = model.NewKeyResults()
	for tenant, set := range keys {
		for s := range set {
			id, err := r.store.Resolve(ctx, useCase, tenant, s)
			switch {
			case err == nil:
				results.Add(model.KeyResult{Tenant: tenant, String: s, ID: id})
			case errors.Is(err, store.ErrNotFound):
				// Left unmapped; the insert phase picks it up.
			default:
				results.Add(model.KeyResult{Tenant: tenant, String: s, Err: err})
			}
		}
	}
	return results, nil
}

func (r *RawIndexer) insertMissing(ctx context.Context, useCase model.UseCase, missing model.KeyCollection, results *model.KeyResults) {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.bulkConcurrency)

	for _, key := range missing.Keys() {
		g.Go(func() error {
			id, err := r.store.Insert(ctx, useCase, key.Tenant, key.String, r.newID())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results.Add(model.KeyResult{Tenant: key.Tenant, String: key.String, Err: err})
			} else {
				results.Add(model.KeyResult{Tenant: key.Tenant, String: key.String, ID: id})
			}
			// Per-key failures are recorded, never returned: one bad key
			// must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()
}

// Resolve is the read-only forward lookup; it never creates.
// Returns ErrNotFound when no mapping exists.
func (r *RawIndexer) Resolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	start := time.Now()
	id, err := r.store.Resolve(ctx, useCase, tenant, s)
	r.metrics.RecordResolve(time.Since(start), err)
	return id, err
}

// ReverseResolve is the read-only reverse lookup.
// Returns ErrNotFound when no mapping exists.
func (r *RawIndexer) ReverseResolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID) (string, error) {
	start := time.Now()
	s, err := r.store.ReverseResolve(ctx, useCase, tenant, id)
	r.metrics.RecordReverseResolve(time.Since(start), err)
	r.logger.LogReverseResolve(ctx, useCase, tenant, id, err)
	return s, err
}

// Validate issues a trivial query against the backing store so operators
// can verify it is reachable before serving traffic. Throttling is a
// known-benign transient condition at this check: logged, not escalated.
// Anything else propagates.
func (r *RawIndexer) Validate(ctx context.Context) error {
	err := r.store.Ping(ctx)
	if err != nil && errors.Is(err, store.ErrThrottled) {
		r.logger.WarnContext(ctx, "store throttled during validation", "error", err)
		err = nil
	}
	r.logger.LogValidate(ctx, err)
	return err
}

func (r *RawIndexer) newID() model.ID {
	return model.ID(idcodec.Encode(r.gen.Next()))
}
