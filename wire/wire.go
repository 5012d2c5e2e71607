// Package wire defines the fixed-layout request/response boundary of the
// query engine and the dispatcher that gates, decodes, and runs operations.
//
// Requests are little-endian fixed-layout structs; responses are a status
// word followed by the packed result bytes. Five operations are exposed:
//
//	OpInodesSince     inode range + seq threshold → packed (ino, seq) pairs
//	OpDataSince       same, over data-extent records
//	OpFindXattrName   attribute name + range + cap → packed inode list
//	OpFindXattrVal    attribute value + range + cap → packed inode list
//	OpInodePaths      target inode + buffer budget → packed NUL paths
//
// Path reconstruction bypasses traversal permission checks and is denied
// before any work unless the caller holds CapPathLookup.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/metascan"
)

// Op identifies one boundary operation.
type Op uint8

const (
	// OpInodesSince lists inodes whose metadata changed since a sequence.
	OpInodesSince Op = iota + 1
	// OpDataSince lists inodes whose file data changed since a sequence.
	OpDataSince
	// OpFindXattrName lists inodes that might carry an attribute name.
	OpFindXattrName
	// OpFindXattrVal lists inodes that might carry an attribute value.
	OpFindXattrVal
	// OpInodePaths packs every root-to-inode hard-link path.
	OpInodePaths
)

// String returns a short name for the operation.
func (op Op) String() string {
	switch op {
	case OpInodesSince:
		return "inodes-since"
	case OpDataSince:
		return "data-since"
	case OpFindXattrName:
		return "find-xattr-name"
	case OpFindXattrVal:
		return "find-xattr-val"
	case OpInodePaths:
		return "inode-paths"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(op))
	}
}

// CapSet is a bitmask of caller capabilities.
type CapSet uint32

const (
	// CapPathLookup permits path reconstruction, which reveals paths the
	// caller might not otherwise be allowed to traverse.
	CapPathLookup CapSet = 1 << iota
)

// Has reports whether c includes all capabilities in want.
func (c CapSet) Has(want CapSet) bool { return c&want == want }

// MaxBufLen bounds the output budget a single request may name.
const MaxBufLen = 1 << 30

const (
	inodesSinceArgsSize = 32
	inodePathsArgsSize  = 16
	findXattrFixedSize  = 22
)

// InodesSinceArgs are the arguments of OpInodesSince and OpDataSince.
type InodesSinceArgs struct {
	FirstIno uint64
	LastIno  uint64
	Seq      uint64
	BufLen   uint64
}

// Encode returns the little-endian fixed layout of a.
func (a InodesSinceArgs) Encode() []byte {
	b := make([]byte, inodesSinceArgsSize)
	binary.LittleEndian.PutUint64(b[0:8], a.FirstIno)
	binary.LittleEndian.PutUint64(b[8:16], a.LastIno)
	binary.LittleEndian.PutUint64(b[16:24], a.Seq)
	binary.LittleEndian.PutUint64(b[24:32], a.BufLen)
	return b
}

// DecodeInodesSinceArgs parses OpInodesSince arguments.
func DecodeInodesSinceArgs(b []byte) (InodesSinceArgs, error) {
	if len(b) != inodesSinceArgsSize {
		return InodesSinceArgs{}, fmt.Errorf("%w: inodes-since args must be %d bytes, got %d",
			metascan.ErrInvalidArgument, inodesSinceArgsSize, len(b))
	}
	return InodesSinceArgs{
		FirstIno: binary.LittleEndian.Uint64(b[0:8]),
		LastIno:  binary.LittleEndian.Uint64(b[8:16]),
		Seq:      binary.LittleEndian.Uint64(b[16:24]),
		BufLen:   binary.LittleEndian.Uint64(b[24:32]),
	}, nil
}

// FindXattrArgs are the arguments of OpFindXattrName and OpFindXattrVal.
type FindXattrArgs struct {
	FirstIno   uint64
	LastIno    uint64
	MaxResults uint32
	Str        []byte
}

// Encode returns the little-endian layout of a: fixed fields, a 2-byte
// string length, then the string bytes.
func (a FindXattrArgs) Encode() []byte {
	b := make([]byte, findXattrFixedSize+len(a.Str))
	binary.LittleEndian.PutUint64(b[0:8], a.FirstIno)
	binary.LittleEndian.PutUint64(b[8:16], a.LastIno)
	binary.LittleEndian.PutUint32(b[16:20], a.MaxResults)
	binary.LittleEndian.PutUint16(b[20:22], uint16(len(a.Str)))
	copy(b[findXattrFixedSize:], a.Str)
	return b
}

// DecodeFindXattrArgs parses OpFindXattrName/OpFindXattrVal arguments.
func DecodeFindXattrArgs(b []byte) (FindXattrArgs, error) {
	if len(b) < findXattrFixedSize {
		return FindXattrArgs{}, fmt.Errorf("%w: find-xattr args too short: %d bytes",
			metascan.ErrInvalidArgument, len(b))
	}
	n := int(binary.LittleEndian.Uint16(b[20:22]))
	if len(b) != findXattrFixedSize+n {
		return FindXattrArgs{}, fmt.Errorf("%w: find-xattr string length %d disagrees with payload %d",
			metascan.ErrInvalidArgument, n, len(b))
	}
	str := make([]byte, n)
	copy(str, b[findXattrFixedSize:])
	return FindXattrArgs{
		FirstIno:   binary.LittleEndian.Uint64(b[0:8]),
		LastIno:    binary.LittleEndian.Uint64(b[8:16]),
		MaxResults: binary.LittleEndian.Uint32(b[16:20]),
		Str:        str,
	}, nil
}

// InodePathsArgs are the arguments of OpInodePaths.
type InodePathsArgs struct {
	Ino    uint64
	BufLen uint64
}

// Encode returns the little-endian fixed layout of a.
func (a InodePathsArgs) Encode() []byte {
	b := make([]byte, inodePathsArgsSize)
	binary.LittleEndian.PutUint64(b[0:8], a.Ino)
	binary.LittleEndian.PutUint64(b[8:16], a.BufLen)
	return b
}

// DecodeInodePathsArgs parses OpInodePaths arguments.
func DecodeInodePathsArgs(b []byte) (InodePathsArgs, error) {
	if len(b) != inodePathsArgsSize {
		return InodePathsArgs{}, fmt.Errorf("%w: inode-paths args must be %d bytes, got %d",
			metascan.ErrInvalidArgument, inodePathsArgsSize, len(b))
	}
	return InodePathsArgs{
		Ino:    binary.LittleEndian.Uint64(b[0:8]),
		BufLen: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}
