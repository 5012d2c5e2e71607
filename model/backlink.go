package model

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxNameLen is the maximum length of a single path component.
	MaxNameLen = 255

	// MaxPathLen bounds the byte length of one assembled path, including
	// its terminating NUL.
	MaxPathLen = 4096
)

// PathBufSizeHint approximates the output buffer size needed by a path
// reconstruction for an inode with the given link count: one MaxPathLen per
// hard link plus the trailing list terminator.
func PathBufSizeHint(nlink int) int {
	return nlink*MaxPathLen + 1
}

// Backlink is the decoded value of a TypeLinkBackref record: the directory
// that holds one hard link to the target inode, and the link's name in that
// directory.
type Backlink struct {
	Parent uint64
	Name   string
}

// Encode returns the little-endian binary form of l:
// parent (8 bytes), name length (2 bytes), name bytes.
func (l Backlink) Encode() ([]byte, error) {
	if len(l.Name) == 0 || len(l.Name) > MaxNameLen {
		return nil, fmt.Errorf("backlink name length %d out of range [1,%d]", len(l.Name), MaxNameLen)
	}
	b := make([]byte, 10+len(l.Name))
	binary.LittleEndian.PutUint64(b[0:8], l.Parent)
	binary.LittleEndian.PutUint16(b[8:10], uint16(len(l.Name)))
	copy(b[10:], l.Name)
	return b, nil
}

// DecodeBacklink parses a backlink from a record value.
func DecodeBacklink(b []byte) (Backlink, error) {
	if len(b) < 10 {
		return Backlink{}, fmt.Errorf("backlink value too short: %d bytes", len(b))
	}
	n := int(binary.LittleEndian.Uint16(b[8:10]))
	if n == 0 || n > MaxNameLen || len(b) != 10+n {
		return Backlink{}, fmt.Errorf("backlink value malformed: name length %d, value length %d", n, len(b))
	}
	return Backlink{
		Parent: binary.LittleEndian.Uint64(b[0:8]),
		Name:   string(b[10 : 10+n]),
	}, nil
}
