// Package hash provides the 64-bit hashes used for fragment type names,
// schema fingerprints and payload digests.
package hash

import "github.com/cespare/xxhash/v2"

// ID returns the xxHash64 of a name or layout string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Sum returns the xxHash64 of a payload.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
