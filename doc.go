// Package strindex maps arbitrary tenant-scoped strings (metric names, tag
// keys, tag values) to compact integer surrogate keys, with forward and
// reverse lookup.
//
// Strindex is built from small composable layers:
//
//   - A backing store (see the store package) is the source of truth; its
//     uniqueness constraint arbitrates concurrent creation so one triple
//     always converges on one ID. Backends: in-memory and DynamoDB.
//   - An optional cache (see the cache package) fronts the store
//     read-through/write-through. Backends: in-process LRU and Redis. Cache
//     failures degrade to store access, never to wrong answers.
//   - An optional static table answers well-known strings with fixed odd
//     IDs without touching cache or store.
//   - The idcodec package bit-reverses generated IDs before storage so
//     roughly sequential allocations spread evenly across a
//     range-partitioned store instead of hotspotting one partition.
//
// # Quick Start
//
//	st := store.NewMemoryStore()
//	idx, err := strindex.New(st,
//	    strindex.WithCache(cache.NewMemoryCache(100_000)),
//	    strindex.WithStaticStrings(strindex.NewStaticTable("ok", "error")),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	results, err := idx.BulkRecord(ctx, "metrics", strindex.NewKeyCollection(map[strindex.TenantID][]string{
//	    42: {"http.server.duration", "region"},
//	}))
//
// Batches tolerate partial failure: each (tenant, string) pair carries its
// own outcome in KeyResults, so callers retry only the failed subset.
package strindex
