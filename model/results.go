package model

// KeyCollection is the input shape for batch resolution:
// tenant -> set of strings to intern.
type KeyCollection map[TenantID]map[string]struct{}

// NewKeyCollection builds a KeyCollection from tenant -> string slices.
func NewKeyCollection(keys map[TenantID][]string) KeyCollection {
	kc := make(KeyCollection, len(keys))
	for tenant, strings := range keys {
		set := make(map[string]struct{}, len(strings))
		for _, s := range strings {
			set[s] = struct{}{}
		}
		kc[tenant] = set
	}
	return kc
}

// Add adds a (tenant, string) pair to the collection.
func (kc KeyCollection) Add(tenant TenantID, s string) {
	set, ok := kc[tenant]
	if !ok {
		set = make(map[string]struct{})
		kc[tenant] = set
	}
	set[s] = struct{}{}
}

// Size returns the total number of (tenant, string) pairs.
func (kc KeyCollection) Size() int {
	n := 0
	for _, set := range kc {
		n += len(set)
	}
	return n
}

// Keys returns the pairs in the collection. Order is unspecified.
func (kc KeyCollection) Keys() []Key {
	keys := make([]Key, 0, kc.Size())
	for tenant, set := range kc {
		for s := range set {
			keys = append(keys, Key{Tenant: tenant, String: s})
		}
	}
	return keys
}

// KeyResult is the outcome of resolving one (tenant, string) pair.
// ID carries the surrogate key; Err is set when resolution of this pair
// failed. Exactly one of the two is meaningful.
type KeyResult struct {
	Tenant TenantID
	String string
	ID     ID
	Err    error
}

// KeyResults aggregates per-key outcomes, keyed by (tenant, string).
// It is built incrementally as individual resolutions complete and supports
// merging partial result sets. Failures for individual keys are captured
// here rather than aborting sibling keys.
//
// KeyResults is not safe for concurrent use; batch workers report into
// per-worker instances that are merged afterwards.
type KeyResults struct {
	mapped map[TenantID]map[string]ID
	failed map[TenantID]map[string]error
}

// NewKeyResults creates an empty result aggregate.
func NewKeyResults() *KeyResults {
	return &KeyResults{
		mapped: make(map[TenantID]map[string]ID),
		failed: make(map[TenantID]map[string]error),
	}
}

// Add records one outcome. A later Add for the same (tenant, string)
// replaces the earlier one; a success replaces a prior failure.
func (kr *KeyResults) Add(res KeyResult) {
	if res.Err != nil {
		byString, ok := kr.failed[res.Tenant]
		if !ok {
			byString = make(map[string]error)
			kr.failed[res.Tenant] = byString
		}
		byString[res.String] = res.Err
		delete(kr.mapped[res.Tenant], res.String)
		return
	}

	byString, ok := kr.mapped[res.Tenant]
	if !ok {
		byString = make(map[string]ID)
		kr.mapped[res.Tenant] = byString
	}
	byString[res.String] = res.ID
	delete(kr.failed[res.Tenant], res.String)
}

// Merge folds other into kr. Entries in other win on overlap.
func (kr *KeyResults) Merge(other *KeyResults) {
	if other == nil {
		return
	}
	for tenant, byString := range other.mapped {
		for s, id := range byString {
			kr.Add(KeyResult{Tenant: tenant, String: s, ID: id})
		}
	}
	for tenant, byString := range other.failed {
		for s, err := range byString {
			kr.Add(KeyResult{Tenant: tenant, String: s, Err: err})
		}
	}
}

// Get returns the ID resolved for the given pair.
func (kr *KeyResults) Get(tenant TenantID, s string) (ID, bool) {
	id, ok := kr.mapped[tenant][s]
	return id, ok
}

// Mapped returns the resolved tenant -> string -> ID mapping.
// The returned maps are the aggregate's own; callers must not mutate them.
func (kr *KeyResults) Mapped() map[TenantID]map[string]ID {
	return kr.mapped
}

// Errors returns the per-key failures recorded so far.
func (kr *KeyResults) Errors() []KeyResult {
	var out []KeyResult
	for tenant, byString := range kr.failed {
		for s, err := range byString {
			out = append(out, KeyResult{Tenant: tenant, String: s, Err: err})
		}
	}
	return out
}

// Unmapped returns the subset of keys that have no resolved ID yet,
// i.e. keys absent from the mapped set. Failed keys count as unmapped so
// callers can retry exactly that subset.
func (kr *KeyResults) Unmapped(keys KeyCollection) KeyCollection {
	out := make(KeyCollection)
	for tenant, set := range keys {
		for s := range set {
			if _, ok := kr.mapped[tenant][s]; !ok {
				out.Add(tenant, s)
			}
		}
	}
	return out
}

// Size returns the number of resolved pairs.
func (kr *KeyResults) Size() int {
	n := 0
	for _, byString := range kr.mapped {
		n += len(byString)
	}
	return n
}

// FailedCount returns the number of failed pairs.
func (kr *KeyResults) FailedCount() int {
	n := 0
	for _, byString := range kr.failed {
		n += len(byString)
	}
	return n
}
