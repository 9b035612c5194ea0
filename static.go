package strindex

import (
	"context"
	"fmt"

	"github.com/hupe1980/strindex/model"
)

// StaticStringIndexer short-circuits a fixed table of well-known strings
// with pre-assigned IDs. Hits never touch the cache or the store; misses
// delegate to the inner indexer. The table is shared across tenants and
// use cases.
//
// Static IDs are odd. Generated IDs pass through idcodec, whose input is
// always below 2^63; the reversed bit pattern therefore has a zero low bit,
// so every store-assigned surrogate is even and the odd half of the ID
// space is free for static assignment.
type StaticStringIndexer struct {
	inner   StringIndexer
	forward map[string]model.ID
	reverse map[model.ID]string
}

var _ StringIndexer = (*StaticStringIndexer)(nil)

// NewStaticStringIndexer wraps inner with the given static table.
// Every ID in the table must be positive and odd.
func NewStaticStringIndexer(inner StringIndexer, table map[string]model.ID) (*StaticStringIndexer, error) {
	forward := make(map[string]model.ID, len(table))
	reverse := make(map[model.ID]string, len(table))
	for s, id := range table {
		if id < 1 || id%2 == 0 {
			return nil, fmt.Errorf("static id %d for %q must be positive and odd", id, s)
		}
		if prev, ok := reverse[id]; ok {
			return nil, fmt.Errorf("static id %d assigned to both %q and %q", id, prev, s)
		}
		forward[s] = id
		reverse[id] = s
	}
	return &StaticStringIndexer{
		inner:   inner,
		forward: forward,
		reverse: reverse,
	}, nil
}

// NewStaticTable assigns sequential odd IDs (1, 3, 5, ...) to the given
// strings, in order. Convenience for the common case where the caller just
// wants a stable table and does not care about the concrete IDs.
func NewStaticTable(strings ...string) map[string]model.ID {
	table := make(map[string]model.ID, len(strings))
	for i, s := range strings {
		table[s] = model.ID(2*i + 1)
	}
	return table
}

// Record returns the static ID when the string is well-known; otherwise
// delegates.
func (si *StaticStringIndexer) Record(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	if id, ok := si.forward[s]; ok {
		return id, nil
	}
	return si.inner.Record(ctx, useCase, tenant, s)
}

// BulkRecord answers well-known strings from the table and delegates the
// rest in one batch.
func (si *StaticStringIndexer) BulkRecord(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error) {
	results := model.NewKeyResults()
	rest := make(model.KeyCollection)

	for tenant, set := range keys {
		for s := range set {
			if id, ok := si.forward[s]; ok {
				results.Add(model.KeyResult{Tenant: tenant, String: s, ID: id})
			} else {
				rest.Add(tenant, s)
			}
		}
	}

	if rest.Size() > 0 {
		fresh, err := si.inner.BulkRecord(ctx, useCase, rest)
		if err != nil {
			return nil, err
		}
		results.Merge(fresh)
	}
	return results, nil
}

// Resolve checks the static table before delegating.
func (si *StaticStringIndexer) Resolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	if id, ok := si.forward[s]; ok {
		return id, nil
	}
	return si.inner.Resolve(ctx, useCase, tenant, s)
}

// ReverseResolve answers odd IDs from the static table. The store only
// ever holds even surrogates, so it is not consulted for an unknown odd ID.
func (si *StaticStringIndexer) ReverseResolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID) (string, error) {
	if id > 0 && id%2 == 1 {
		if s, ok := si.reverse[id]; ok {
			return s, nil
		}
		return "", ErrNotFound
	}
	return si.inner.ReverseResolve(ctx, useCase, tenant, id)
}
