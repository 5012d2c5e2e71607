// Package hash provides the 64-bit name hash used to key attribute lookup
// buckets, built on CRC32-Castagnoli (hardware accelerated on x86 SSE4.2
// and ARM CRC).
//
// The hash keys a probabilistic index: equal strings always hash equal
// (false negatives are impossible), distinct strings may collide into one
// bucket (candidates must be confirmed by the caller).
package hash

import "hash/crc32"

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// NameHashMask covers the low bits of a name hash that are reserved for
// intra-bucket disambiguation. Name-mode lookups mask them off before
// building scan keys; value-mode lookups use the full hash.
const NameHashMask = uint64(0xFF)

// Name64 returns the 64-bit hash of an attribute name or value. The high
// half chains a second Castagnoli pass off the first, so the two words
// disagree for colliding 32-bit inputs.
func Name64(b []byte) uint64 {
	lo := crc32.Checksum(b, crc32cTable)
	hi := crc32.Update(lo, crc32cTable, b)
	return uint64(hi)<<32 | uint64(lo)
}

// CRC32C computes the CRC32-Castagnoli checksum of data. Used for snapshot
// payload integrity.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}
