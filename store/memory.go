package store

import (
	"context"
	"sync"

	"github.com/hupe1980/strindex/model"
)

type memoryKey struct {
	useCase model.UseCase
	tenant  model.TenantID
	s       string
}

type memoryRev struct {
	useCase model.UseCase
	tenant  model.TenantID
	id      model.ID
}

// MemoryStore is an in-memory Store implementation for testing.
// It enforces the same uniqueness semantics as a real backend: concurrent
// inserts for one triple converge on the first writer's ID.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu      sync.RWMutex
	forward map[memoryKey]model.ID
	reverse map[memoryRev]string

	// FailInsert makes Insert fail deterministically for matching pairs,
	// for partial-batch failure tests. Nil means never fail.
	FailInsert func(tenant model.TenantID, s string) error
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		forward: make(map[memoryKey]model.ID),
		reverse: make(map[memoryRev]string),
	}
}

// Resolve returns the ID for a triple, or ErrNotFound.
func (m *MemoryStore) Resolve(_ context.Context, useCase model.UseCase, tenant model.TenantID, s string) (model.ID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.forward[memoryKey{useCase, tenant, s}]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

// ResolveMany resolves a batch under a single lock acquisition.
func (m *MemoryStore) ResolveMany(_ context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := model.NewKeyResults()
	for tenant, set := range keys {
		for s := range set {
			if id, ok := m.forward[memoryKey{useCase, tenant, s}]; ok {
				results.Add(model.KeyResult{Tenant: tenant, String: s, ID: id})
			}
		}
	}
	return results, nil
}

// ReverseResolve returns the string stored under id, or ErrNotFound.
func (m *MemoryStore) ReverseResolve(_ context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.reverse[memoryRev{useCase, tenant, id}]
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

// Insert stores the triple if absent; a lost race returns the winner's ID.
func (m *MemoryStore) Insert(_ context.Context, useCase model.UseCase, tenant model.TenantID, s string, id model.ID) (model.ID, error) {
	if m.FailInsert != nil {
		if err := m.FailInsert(tenant, s); err != nil {
			return 0, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{useCase, tenant, s}
	if existing, ok := m.forward[key]; ok {
		return existing, nil
	}
	m.forward[key] = id
	m.reverse[memoryRev{useCase, tenant, id}] = s
	return id, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.forward)
}
