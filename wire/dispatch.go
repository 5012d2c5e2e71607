package wire

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/metascan"
	"github.com/hupe1980/metascan/model"
)

// Status encodes the outcome of one dispatched call.
type Status uint32

const (
	// StatusOK signals success; the payload holds packed results, possibly
	// empty ("nothing found" is success).
	StatusOK Status = iota
	// StatusInvalidArgument covers malformed requests and argument checks.
	StatusInvalidArgument
	// StatusBufferTooSmall signals a result that did not fit the budget.
	// Distinct from an empty StatusOK payload.
	StatusBufferTooSmall
	// StatusPermissionDenied signals a missing capability.
	StatusPermissionDenied
	// StatusTransport signals a failure moving request or response bytes.
	StatusTransport
	// StatusInternal covers scan failures inside the index.
	StatusInternal
)

// statusOf maps the engine's error taxonomy onto the wire.
func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, metascan.ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, metascan.ErrBufferTooSmall):
		return StatusBufferTooSmall
	case errors.Is(err, metascan.ErrPermissionDenied):
		return StatusPermissionDenied
	case errors.Is(err, metascan.ErrTransport):
		return StatusTransport
	default:
		return StatusInternal
	}
}

// sentinelOf is the inverse of statusOf for the client side.
func sentinelOf(s Status) error {
	switch s {
	case StatusOK:
		return nil
	case StatusInvalidArgument:
		return metascan.ErrInvalidArgument
	case StatusBufferTooSmall:
		return metascan.ErrBufferTooSmall
	case StatusPermissionDenied:
		return metascan.ErrPermissionDenied
	case StatusTransport:
		return metascan.ErrTransport
	default:
		return fmt.Errorf("metascan: query failed (status %d)", s)
	}
}

// EncodeResponse frames a dispatch outcome: a 4-byte status followed by the
// payload. Error responses carry no payload; uninitialized bytes are never
// exposed past the packed result.
func EncodeResponse(payload []byte, err error) []byte {
	status := statusOf(err)
	if status != StatusOK {
		payload = nil
	}
	b := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(b[0:4], uint32(status))
	copy(b[4:], payload)
	return b
}

// DecodeResponse unframes a response, mapping its status back onto the
// error taxonomy.
func DecodeResponse(b []byte) ([]byte, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: response frame too short", metascan.ErrTransport)
	}
	if err := sentinelOf(Status(binary.LittleEndian.Uint32(b[0:4]))); err != nil {
		return nil, err
	}
	return b[4:], nil
}

// Dispatch decodes payload for op, enforces capabilities, runs the query
// against db, and returns the packed result bytes.
//
// For the since and attribute queries a mid-scan failure after results were
// already collected degrades to a successful partial response, mirroring
// their pagination contract; the dropped error is the caller's to
// rediscover on resume. Path reconstruction never returns partial output.
func Dispatch(ctx context.Context, db *metascan.DB, caps CapSet, op Op, payload []byte) ([]byte, error) {
	switch op {
	case OpInodesSince:
		return dispatchSince(ctx, db, model.TypeInode, payload)
	case OpDataSince:
		return dispatchSince(ctx, db, model.TypeBmap, payload)
	case OpFindXattrName:
		return dispatchFindXattr(ctx, db, true, payload)
	case OpFindXattrVal:
		return dispatchFindXattr(ctx, db, false, payload)
	case OpInodePaths:
		if !caps.Has(CapPathLookup) {
			return nil, fmt.Errorf("%w: inode-paths requires the path-lookup capability",
				metascan.ErrPermissionDenied)
		}
		return dispatchInodePaths(ctx, db, payload)
	default:
		return nil, fmt.Errorf("%w: unknown operation %d", metascan.ErrInvalidArgument, uint8(op))
	}
}

func dispatchSince(ctx context.Context, db *metascan.DB, t model.KeyType, payload []byte) ([]byte, error) {
	args, err := DecodeInodesSinceArgs(payload)
	if err != nil {
		return nil, err
	}
	if args.BufLen < model.InoSeqSize || args.BufLen > MaxBufLen {
		return nil, fmt.Errorf("%w: buffer budget %d outside [%d, %d]",
			metascan.ErrInvalidArgument, args.BufLen, model.InoSeqSize, MaxBufLen)
	}

	pairs, err := db.ChangedSince(ctx, metascan.ChangedSinceRequest{
		FirstIno:   args.FirstIno,
		LastIno:    args.LastIno,
		Type:       t,
		MinSeq:     args.Seq,
		MaxResults: int(args.BufLen / model.InoSeqSize),
	})
	if err != nil && len(pairs) == 0 {
		return nil, err
	}

	out := make([]byte, 0, len(pairs)*model.InoSeqSize)
	for _, p := range pairs {
		out = append(out, p.Encode()...)
	}
	return out, nil
}

func dispatchFindXattr(ctx context.Context, db *metascan.DB, byName bool, payload []byte) ([]byte, error) {
	args, err := DecodeFindXattrArgs(payload)
	if err != nil {
		return nil, err
	}

	inos, err := db.FindXattrs(ctx, metascan.FindXattrsRequest{
		Str:        args.Str,
		ByName:     byName,
		FirstIno:   args.FirstIno,
		LastIno:    args.LastIno,
		MaxResults: int(args.MaxResults),
	})
	if err != nil && len(inos) == 0 {
		return nil, err
	}

	out := make([]byte, len(inos)*8)
	for i, ino := range inos {
		binary.LittleEndian.PutUint64(out[i*8:], ino)
	}
	return out, nil
}

func dispatchInodePaths(ctx context.Context, db *metascan.DB, payload []byte) ([]byte, error) {
	args, err := DecodeInodePathsArgs(payload)
	if err != nil {
		return nil, err
	}
	if args.BufLen == 0 || args.BufLen > MaxBufLen {
		return nil, fmt.Errorf("%w: buffer budget %d outside [1, %d]",
			metascan.ErrInvalidArgument, args.BufLen, MaxBufLen)
	}

	buf := make([]byte, args.BufLen)
	n, err := db.InodePaths(ctx, args.Ino, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
