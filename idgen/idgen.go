// Package idgen produces the 63-bit IDs that strindex assigns to newly
// interned strings.
//
// An ID packs a version, a coarse timestamp and random bits:
//
//	| version (4) | seconds since epoch (32) | random (27) |
//
// The layout keeps IDs roughly time-ordered (useful for operational
// archaeology) while the random tail avoids collisions between concurrent
// writers; the store's uniqueness constraint arbitrates the rare remaining
// collision. The version occupies the top bits, so every generated ID is at
// least 2^59 and the range [1, 2^59) stays free for statically assigned
// strings.
package idgen

import (
	"math/rand/v2"
	"time"
)

const (
	versionBits = 4
	timeBits    = 32
	randomBits  = 27

	// Version is the current ID layout version.
	Version = 1

	// epoch is 2023-01-01T00:00:00Z; the 32-bit seconds field rolls over
	// well past 2150.
	epoch = 1672531200

	randomMask = 1<<randomBits - 1
)

// Generator produces IDs. The zero value is not usable; construct with New.
// Safe for concurrent use.
type Generator struct {
	now func() time.Time
}

// New creates a Generator using wall-clock time.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock creates a Generator with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh ID. The result always lies in [2^59, 2^63).
func (g *Generator) Next() uint64 {
	seconds := uint64(g.now().Unix()-epoch) & (1<<timeBits - 1)

	id := uint64(Version)
	id <<= timeBits
	id |= seconds
	id <<= randomBits
	id |= rand.Uint64() & randomMask

	return id
}

// Time extracts the timestamp embedded in a generated ID.
func Time(id uint64) time.Time {
	seconds := (id >> randomBits) & (1<<timeBits - 1)
	return time.Unix(int64(seconds)+epoch, 0).UTC()
}

// IDVersion extracts the layout version embedded in a generated ID.
func IDVersion(id uint64) uint64 {
	return id >> (timeBits + randomBits)
}
