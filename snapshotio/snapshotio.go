// Package snapshotio persists in-memory index snapshots to streams, files,
// and blob stores.
//
// The on-disk format is a fixed header followed by one compressed payload:
//
//	magic "MSC1", version, codec, stored flag
//	uncompressed length, payload length, CRC32C of the payload
//	payload: record count, then (key, seq, value length, value) per record
//
// The checksum covers the payload as written, so corruption is detected
// before any record is decoded. Records travel in key order and reload into
// a tree whose iteration order matches the source exactly.
package snapshotio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/metascan/blobstore"
	"github.com/hupe1980/metascan/index/memtree"
	"github.com/hupe1980/metascan/internal/hash"
	"github.com/hupe1980/metascan/model"
)

// Codec selects the payload compression.
type Codec uint8

const (
	// CodecRaw stores the payload uncompressed.
	CodecRaw Codec = iota
	// CodecZstd compresses with zstd, the default for archived snapshots.
	CodecZstd
	// CodecLZ4 compresses with lz4 block compression, cheaper but looser.
	CodecLZ4
)

// String returns a short name for the codec.
func (c Codec) String() string {
	switch c {
	case CodecRaw:
		return "raw"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

var (
	// ErrFormat is returned when a stream is not a snapshot or names an
	// unsupported version or codec.
	ErrFormat = errors.New("snapshotio: bad snapshot format")

	// ErrChecksum is returned when the payload checksum does not match.
	ErrChecksum = errors.New("snapshotio: payload checksum mismatch")
)

var magic = [4]byte{'M', 'S', 'C', '1'}

const (
	formatVersion = 1
	headerSize    = 4 + 1 + 1 + 1 + 1 + 8 + 8 + 4

	// storedFlag marks a payload kept uncompressed because the codec did
	// not shrink it.
	storedFlag = 1
)

// Save writes a snapshot of tree to w using the given codec.
func Save(w io.Writer, tree *memtree.Tree, codec Codec) error {
	raw := encodeRecords(tree)

	payload, stored, err := compress(raw, codec)
	if err != nil {
		return err
	}

	hdr := make([]byte, headerSize)
	copy(hdr[0:4], magic[:])
	hdr[4] = formatVersion
	hdr[5] = uint8(codec)
	if stored {
		hdr[6] = storedFlag
	}
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(raw)))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(len(payload)))
	binary.LittleEndian.PutUint32(hdr[24:28], hash.CRC32C(payload))

	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write snapshot payload: %w", err)
	}
	return nil
}

// Load reads a snapshot from r into a fresh tree.
func Load(r io.Reader) (*memtree.Tree, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrFormat, err)
	}
	if !bytes.Equal(hdr[0:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, hdr[0:4])
	}
	if hdr[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, hdr[4])
	}

	codec := Codec(hdr[5])
	stored := hdr[6] == storedFlag
	rawLen := binary.LittleEndian.Uint64(hdr[8:16])
	payloadLen := binary.LittleEndian.Uint64(hdr[16:24])
	wantSum := binary.LittleEndian.Uint32(hdr[24:28])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: short payload: %w", ErrFormat, err)
	}
	if sum := hash.CRC32C(payload); sum != wantSum {
		return nil, fmt.Errorf("%w: got %#x, want %#x", ErrChecksum, sum, wantSum)
	}

	raw, err := decompress(payload, codec, stored, int(rawLen))
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// SaveFile writes a snapshot of tree to path, replacing it atomically via a
// rename from a temp file in the same directory.
func SaveFile(path string, tree *memtree.Tree, codec Codec) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Save(tmp, tree, codec); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from path into a fresh tree.
func LoadFile(path string) (*memtree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Archive saves a snapshot of tree into store under name.
func Archive(ctx context.Context, store blobstore.Store, name string, tree *memtree.Tree, codec Codec) error {
	var buf bytes.Buffer
	if err := Save(&buf, tree, codec); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// Fetch loads the snapshot archived in store under name.
func Fetch(ctx context.Context, store blobstore.Store, name string) (*memtree.Tree, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(data))
}

// recordFixedSize is the per-record overhead: key, seq, value length.
const recordFixedSize = model.EncodedKeySize + 8 + 4

func encodeRecords(tree *memtree.Tree) []byte {
	buf := make([]byte, 8, 8+tree.Len()*recordFixedSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(tree.Len()))

	tree.Ascend(func(rec model.Record) bool {
		key := rec.Key.Encode()
		buf = append(buf, key...)
		buf = binary.LittleEndian.AppendUint64(buf, rec.Seq)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(rec.Value)))
		buf = append(buf, rec.Value...)
		return true
	})
	return buf
}

func decodeRecords(raw []byte) (*memtree.Tree, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("%w: record stream too short", ErrFormat)
	}
	count := binary.LittleEndian.Uint64(raw[0:8])
	raw = raw[8:]

	tree := memtree.New()
	for i := uint64(0); i < count; i++ {
		if len(raw) < recordFixedSize {
			return nil, fmt.Errorf("%w: truncated record %d of %d", ErrFormat, i, count)
		}
		key, err := model.DecodeKey(raw[:model.EncodedKeySize])
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrFormat, i, err)
		}
		seq := binary.LittleEndian.Uint64(raw[model.EncodedKeySize : model.EncodedKeySize+8])
		valLen := binary.LittleEndian.Uint32(raw[model.EncodedKeySize+8 : recordFixedSize])
		raw = raw[recordFixedSize:]

		if uint32(len(raw)) < valLen {
			return nil, fmt.Errorf("%w: truncated value in record %d", ErrFormat, i)
		}
		var value []byte
		if valLen > 0 {
			value = make([]byte, valLen)
			copy(value, raw[:valLen])
		}
		raw = raw[valLen:]

		tree.Insert(model.Record{Key: key, Value: value, Seq: seq})
	}
	if len(raw) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d records", ErrFormat, len(raw), count)
	}
	return tree, nil
}

func compress(raw []byte, codec Codec) (payload []byte, stored bool, err error) {
	switch codec {
	case CodecRaw:
		return raw, false, nil

	case CodecZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, false, fmt.Errorf("init zstd: %w", err)
		}
		defer func() { _ = enc.Close() }()
		return enc.EncodeAll(raw, nil), false, nil

	case CodecLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, false, fmt.Errorf("lz4 compress: %w", err)
		}
		// n == 0 means the block is incompressible; keep it as-is.
		if n == 0 {
			return raw, true, nil
		}
		return dst[:n], false, nil

	default:
		return nil, false, fmt.Errorf("%w: unknown codec %d", ErrFormat, uint8(codec))
	}
}

func decompress(payload []byte, codec Codec, stored bool, rawLen int) ([]byte, error) {
	if stored || codec == CodecRaw {
		if len(payload) != rawLen {
			return nil, fmt.Errorf("%w: stored payload is %d bytes, want %d",
				ErrFormat, len(payload), rawLen)
		}
		return payload, nil
	}

	switch codec {
	case CodecZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("init zstd: %w", err)
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd decompress: %w", ErrFormat, err)
		}
		if len(raw) != rawLen {
			return nil, fmt.Errorf("%w: decompressed to %d bytes, want %d",
				ErrFormat, len(raw), rawLen)
		}
		return raw, nil

	case CodecLZ4:
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 decompress: %w", ErrFormat, err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: decompressed to %d bytes, want %d",
				ErrFormat, n, rawLen)
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrFormat, uint8(codec))
	}
}
