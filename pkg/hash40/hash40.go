// Package hash40 computes the 40-bit content hashes the host uses to key
// archive entries.
//
// A hash packs the byte length of the path into bits 32..39 and the IEEE
// CRC-32 of the path into bits 0..31. The same path always yields the same
// hash, so the hash of a logical asset path can be computed ahead of time and
// registered for interception before the host ever asks for it.
package hash40

import (
	"fmt"
	"hash/crc32"
)

// Hash is a 40-bit content hash stored in a uint64.
type Hash uint64

// Of returns the hash of path.
func Of(path string) Hash {
	return Hash(uint64(len(path)&0xff)<<32 | uint64(crc32.ChecksumIEEE([]byte(path))))
}

// Sum is Of returning a plain uint64. It satisfies the func(string) uint64
// shape used by the override engine.
func Sum(path string) uint64 {
	return uint64(Of(path))
}

// Uint64 returns h as a plain integer.
func (h Hash) Uint64() uint64 { return uint64(h) }

// String formats h as a zero-padded 10 digit hex literal (e.g. 0x1a2b3c4d5e).
func (h Hash) String() string {
	return fmt.Sprintf("0x%010x", uint64(h))
}
