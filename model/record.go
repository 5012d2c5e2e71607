package model

import (
	"encoding/binary"
	"fmt"
)

// Record is one versioned index entry: a key, an opaque value, and the
// sequence number stamped at its last modification.
//
// Sequence numbers are monotonic per key only. A range of records observed
// by a since-scan may carry sequences in any order across keys.
type Record struct {
	Key   Key
	Value []byte
	Seq   uint64
}

// InoSeqSize is the length of an InoSeq's binary encoding.
const InoSeqSize = 16

// InoSeq is one changed-inode result: an inode number and the sequence it
// was last modified at.
type InoSeq struct {
	Ino uint64
	Seq uint64
}

// Encode returns the little-endian fixed layout of p.
func (p InoSeq) Encode() []byte {
	b := make([]byte, InoSeqSize)
	binary.LittleEndian.PutUint64(b[0:8], p.Ino)
	binary.LittleEndian.PutUint64(b[8:16], p.Seq)
	return b
}

// DecodeInoSeq parses an InoSeq from its binary encoding.
func DecodeInoSeq(b []byte) (InoSeq, error) {
	if len(b) != InoSeqSize {
		return InoSeq{}, fmt.Errorf("ino/seq pair must be %d bytes, got %d", InoSeqSize, len(b))
	}
	return InoSeq{
		Ino: binary.LittleEndian.Uint64(b[0:8]),
		Seq: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}
