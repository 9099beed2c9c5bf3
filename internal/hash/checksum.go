// Package hash provides the hashes used by sermap block and envelope formats.
package hash

import (
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// DigestSize is the length in bytes of a key-block digest.
const DigestSize = 32

// Checksum64 computes the xxHash64 of data. It is written as the block trailer
// when checksums are enabled.
func Checksum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest computes the BLAKE3-256 digest of data.
func Digest(data []byte) [DigestSize]byte {
	return blake3.Sum256(data)
}
