package model

// ID is the encoded surrogate key for an interned string.
// It is the value actually stored in the backing store and must fit a
// signed 64-bit column.
type ID int64

// TenantID identifies an isolated customer/organization scope.
// Strings are never shared across tenants.
type TenantID int64

// UseCase is a logical namespace distinguishing what kind of string is
// being indexed (e.g. metric name vs. tag value).
type UseCase string

// Key identifies one (tenant, string) pair within a batch.
type Key struct {
	Tenant TenantID
	String string
}
