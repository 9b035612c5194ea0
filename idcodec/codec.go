// Package idcodec converts between internally generated 63-bit IDs and the
// 64-bit signed surrogate keys written to the backing store.
//
// IDs come out of the generator roughly in sequence. Stored as-is in a
// range-partitioned store they would concentrate writes on a handful of
// partitions, so the codec reverses the 64-bit bit pattern before storage:
// sequential inputs land uniformly across the key space, the transform is
// allocation-free, and it is exactly invertible.
//
// The transform is a bijection on [0, 2^63): after the bit reversal, 2^63 is
// subtracted (mod 2^64) so the result fits a signed 64-bit column.
package idcodec

import (
	"fmt"
	"math/bits"
)

// maxDecoded is the exclusive upper bound of the codec's input domain.
const maxDecoded = 1 << 63

// Encode maps a generated ID onto its storage representation.
//
// decoded must lie in [0, 2^63); the transform is only bijective on that
// domain, so out-of-range input is a programming error and panics.
func Encode(decoded uint64) int64 {
	if decoded >= maxDecoded {
		panic(fmt.Sprintf("idcodec: decoded id %d out of domain [0, 2^63)", decoded))
	}
	// Subtracting 2^63 mod 2^64 flips the top bit.
	return int64(bits.Reverse64(decoded) ^ maxDecoded)
}

// Decode recovers the generated ID from its storage representation.
// Decode(Encode(x)) == x for every x in [0, 2^63).
func Decode(encoded int64) uint64 {
	return bits.Reverse64(uint64(encoded) ^ maxDecoded)
}
