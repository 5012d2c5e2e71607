package model

import (
	"encoding/binary"
	"fmt"
	"math"
)

// KeyType tags the logical class of an index key.
type KeyType uint8

const (
	// TypeInode keys hold inode metadata records.
	TypeInode KeyType = iota + 1
	// TypeBmap keys hold data-extent map records, one per mapped block range.
	TypeBmap
	// TypeXattrName keys form hash buckets over extended attribute names.
	TypeXattrName
	// TypeXattrVal keys form hash buckets over extended attribute values.
	TypeXattrVal
	// TypeLinkBackref keys record one hard link pointing at an inode.
	TypeLinkBackref

	maxKeyType = TypeLinkBackref
)

// String returns a short name for the key type.
func (t KeyType) String() string {
	switch t {
	case TypeInode:
		return "inode"
	case TypeBmap:
		return "bmap"
	case TypeXattrName:
		return "xattr-name"
	case TypeXattrVal:
		return "xattr-val"
	case TypeLinkBackref:
		return "link-backref"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// RootIno is the inode number of the filesystem root directory.
const RootIno uint64 = 1

// EncodedKeySize is the length of a key's binary encoding.
const EncodedKeySize = 17

// Key is the composite identifier the index is sorted by.
//
// Keys are globally unique within an index: no two records share a key.
type Key struct {
	Major uint64
	Type  KeyType
	Minor uint64
}

// InodeKey returns the key addressing inode-scoped records of the given type.
// Minor is zero; sub-records (e.g. bmap offsets) sort directly after it.
func InodeKey(ino uint64, t KeyType) Key {
	return Key{Major: ino, Type: t, Minor: 0}
}

// XattrKey returns the hash-bucket key for an attribute lookup.
func XattrKey(hash uint64, t KeyType, ino uint64) Key {
	return Key{Major: hash, Type: t, Minor: ino}
}

// BacklinkKey returns the key of one hard-link backref of an inode.
func BacklinkKey(ino, ordinal uint64) Key {
	return Key{Major: ino, Type: TypeLinkBackref, Minor: ordinal}
}

// Compare orders keys lexicographically over (Major, Type, Minor).
// It returns -1 if a < b, 0 if a == b, and 1 if a > b.
func Compare(a, b Key) int {
	switch {
	case a.Major < b.Major:
		return -1
	case a.Major > b.Major:
		return 1
	case a.Type < b.Type:
		return -1
	case a.Type > b.Type:
		return 1
	case a.Minor < b.Minor:
		return -1
	case a.Minor > b.Minor:
		return 1
	}
	return 0
}

// Less reports whether a sorts before b.
func Less(a, b Key) bool { return Compare(a, b) < 0 }

// maxKey is the largest representable key; Next saturates here.
var maxKey = Key{Major: math.MaxUint64, Type: math.MaxUint8, Minor: math.MaxUint64}

// Next returns the immediate successor of k under Compare. Overflow carries
// from Minor into Type and from Type into Major. At the maximum representable
// key the value saturates: Next returns k unchanged and ok == false.
func (k Key) Next() (next Key, ok bool) {
	next = k
	next.Minor++
	if next.Minor != 0 {
		return next, true
	}
	next.Type++
	if next.Type != 0 {
		return next, true
	}
	next.Major++
	if next.Major != 0 {
		return next, true
	}
	return maxKey, false
}

// Encode returns the big-endian binary form of k. Byte order over encoded
// keys equals Compare order, so byte-sorted stores sort keys correctly.
func (k Key) Encode() []byte {
	b := make([]byte, EncodedKeySize)
	binary.BigEndian.PutUint64(b[0:8], k.Major)
	b[8] = uint8(k.Type)
	binary.BigEndian.PutUint64(b[9:17], k.Minor)
	return b
}

// DecodeKey parses a key from its binary encoding.
func DecodeKey(b []byte) (Key, error) {
	if len(b) != EncodedKeySize {
		return Key{}, fmt.Errorf("key encoding must be %d bytes, got %d", EncodedKeySize, len(b))
	}
	return Key{
		Major: binary.BigEndian.Uint64(b[0:8]),
		Type:  KeyType(b[8]),
		Minor: binary.BigEndian.Uint64(b[9:17]),
	}, nil
}

// String formats k for logs and errors.
func (k Key) String() string {
	return fmt.Sprintf("%d.%s.%d", k.Major, k.Type, k.Minor)
}
