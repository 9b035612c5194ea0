package strindex

import (
	"github.com/hupe1980/strindex/store"
)

// ErrNotFound is returned by read-only lookups when no mapping exists.
// Absence is an explicit result, not a failure: callers distinguish it from
// store errors via errors.Is.
var ErrNotFound = store.ErrNotFound

// ErrNotImplemented is returned by a backend that has not wired up an
// operation. It is never conflated with ErrNotFound.
var ErrNotImplemented = store.ErrNotImplemented

// ErrThrottled indicates the backing store rejected an operation due to
// throughput limits. Validate treats it as benign; other paths surface it.
var ErrThrottled = store.ErrThrottled
