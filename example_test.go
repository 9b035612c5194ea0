package strindex_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/strindex"
	"github.com/hupe1980/strindex/cache"
	"github.com/hupe1980/strindex/store"
)

func Example() {
	ctx := context.Background()

	idx, err := strindex.New(store.NewMemoryStore(),
		strindex.WithCache(cache.NewMemoryCache(100_000)),
		strindex.WithStaticStrings(strindex.NewStaticTable("ok", "error")),
	)
	if err != nil {
		panic(err)
	}

	results, err := idx.BulkRecord(ctx, "metrics", strindex.NewKeyCollection(map[strindex.TenantID][]string{
		42: {"http.server.duration", "ok"},
	}))
	if err != nil {
		panic(err)
	}

	id, _ := results.Get(42, "http.server.duration")
	name, err := idx.ReverseResolve(ctx, "metrics", 42, id)
	if err != nil {
		panic(err)
	}

	staticID, _ := results.Get(42, "ok")
	fmt.Println(name, staticID)
	// Output: http.server.duration 1
}
