// Package store defines the backing-store boundary for strindex.
//
// The indexer treats persistence as an opaque collaborator: point lookup by
// key, point lookup by value (reverse index), insert-if-absent under a
// uniqueness constraint, and a trivial liveness query. Implementations
// include an in-memory double for tests and a DynamoDB-backed store (see the
// ddb subpackage).
package store

import (
	"context"
	"errors"

	"github.com/hupe1980/strindex/model"
)

var (
	// ErrNotFound is returned when no mapping exists for a key.
	//
	// Implementations should return an error that satisfies
	// `errors.Is(err, ErrNotFound)`.
	ErrNotFound = errors.New("not found")

	// ErrNotImplemented is returned by a backend that has not wired up an
	// optional operation. Callers must not conflate it with ErrNotFound;
	// the indexer falls back to the non-batched path when it sees it.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrThrottled indicates the store rejected an operation due to
	// throughput limits. It is transient; the liveness check treats it as
	// benign.
	ErrThrottled = errors.New("store throttled")
)

// Store is the persistence contract for interned strings.
//
// A given (tenant, use case, string) triple, once assigned an ID, never
// changes; the store enforces uniqueness so that concurrent Insert calls
// for the same triple converge on a single ID.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Resolve returns the ID for a (use case, tenant, string) triple.
	// Returns ErrNotFound when no mapping exists.
	Resolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error)

	// ResolveMany resolves a batch of (tenant, string) pairs in as few
	// round trips as the backend allows. Pairs with no mapping are simply
	// absent from the result; per-key failures are recorded in it.
	// Backends without a batched path return ErrNotImplemented.
	ResolveMany(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error)

	// ReverseResolve returns the string stored under the given ID.
	// Returns ErrNotFound when no mapping exists.
	ReverseResolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID) (string, error)

	// Insert stores the triple under id if it is absent, and returns the
	// ID that ended up persisted: id itself on success, or the winner's ID
	// when a concurrent insert got there first. Losing the race is not an
	// error.
	Insert(ctx context.Context, useCase model.UseCase, tenant model.TenantID, s string, id model.ID) (model.ID, error)

	// Ping issues a trivial query to verify the store is reachable.
	Ping(ctx context.Context) error
}
