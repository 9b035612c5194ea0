package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyer_Key(t *testing.T) {
	k := NewKeyer("primary")

	assert.Equal(t, "strindex:primary:1:metrics:42:foo", k.Key("metrics", 42, "foo"))
}

func TestKeyer_DigestsDirtyStrings(t *testing.T) {
	k := NewKeyer("primary")

	// Separator and whitespace characters must not leak into the key.
	withColon := k.Key("metrics", 42, "a:b")
	assert.NotContains(t, strings.TrimPrefix(withColon, "strindex:primary:1:metrics:42:"), ":")

	withSpace := k.Key("metrics", 42, "a b")
	assert.NotContains(t, withSpace, " ")

	// Long strings get digested to a fixed-size key.
	long := k.Key("metrics", 42, strings.Repeat("x", 1000))
	assert.Less(t, len(long), 100)
}

func TestKeyer_DistinctKeys(t *testing.T) {
	k := NewKeyer("primary")

	keys := map[string]struct{}{
		k.Key("metrics", 1, "foo"): {},
		k.Key("metrics", 2, "foo"): {},
		k.Key("tags", 1, "foo"):    {},
		k.Key("metrics", 1, "bar"): {},
	}
	assert.Len(t, keys, 4)
}

func TestJitteredTTL(t *testing.T) {
	base := time.Hour
	jitter := 10 * time.Minute

	for i := 0; i < 100; i++ {
		ttl := JitteredTTL(base, jitter)
		assert.GreaterOrEqual(t, ttl, base)
		assert.Less(t, ttl, base+jitter)
	}

	assert.Equal(t, base, JitteredTTL(base, 0))
}
