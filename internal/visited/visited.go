// Package visited tracks inode numbers seen along one path-reconstruction
// branch, guarding the backlink walk against cycles from a corrupted index.
//
// Inode numbers are sparse 64-bit values, so the set is backed by a roaring
// bitmap rather than a dense bitset.
package visited

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Set records the inodes visited along a single path branch.
type Set struct {
	bm *roaring64.Bitmap
}

// New creates an empty set.
func New() *Set {
	return &Set{bm: roaring64.New()}
}

// Visit marks ino as visited. It returns false if ino was already in the
// set, which signals a cycle in the backlink chain.
func (s *Set) Visit(ino uint64) bool {
	return s.bm.CheckedAdd(ino)
}

// Visited reports whether ino is in the set.
func (s *Set) Visited(ino uint64) bool {
	return s.bm.Contains(ino)
}

// Len returns the number of visited inodes.
func (s *Set) Len() uint64 {
	return s.bm.GetCardinality()
}

// Clone returns an independent copy for a forked branch.
func (s *Set) Clone() *Set {
	return &Set{bm: s.bm.Clone()}
}
