// Package hash wraps xxHash64 for the checksums of on-disk pages and input
// log frames.
package hash

import "github.com/cespare/xxhash/v2"

// Sum computes the xxHash64 of data.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify reports whether data hashes to want.
func Verify(data []byte, want uint64) bool {
	return xxhash.Sum64(data) == want
}
