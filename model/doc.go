// Package model defines core types used throughout strindex.
//
// # Identity Types
//
//   - ID: Encoded surrogate key as stored in the backing store (int64)
//   - TenantID: Isolated customer/organization scope (int64)
//   - UseCase: Logical namespace for a class of strings (string)
//
// # Result Types
//
//   - KeyResult: Outcome of resolving one (tenant, string) pair
//   - KeyResults: Aggregate of outcomes, built incrementally across a batch
//   - KeyCollection: Batch input shape, tenant -> set of strings
package model
