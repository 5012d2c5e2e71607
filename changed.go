package metascan

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/metascan/index"
	"github.com/hupe1980/metascan/model"
)

// ChangedSinceRequest selects inodes whose records of one key type were
// modified after a sequence number.
type ChangedSinceRequest struct {
	// FirstIno and LastIno bound the inode range, inclusive.
	FirstIno uint64
	LastIno  uint64

	// Type selects the record class to inspect: model.TypeInode for
	// metadata changes, model.TypeBmap for file data changes.
	Type model.KeyType

	// MinSeq is the exclusive sequence threshold; only records with a
	// strictly greater sequence are reported.
	MinSeq uint64

	// MaxResults caps the number of pairs returned. Must be positive.
	MaxResults int
}

// ChangedSince returns (inode, sequence) pairs for inodes in the requested
// range whose records of the given type changed after MinSeq.
//
// Results are ordered by increasing inode number, not by sequence; callers
// must not assume temporal order. An inode with several qualifying
// sub-records is reported once per pass. Hitting MaxResults is a successful
// partial result: resume by re-seeding FirstIno to the last returned inode
// plus one. An empty slice with a nil error means the scan completed with
// nothing to report.
func (db *DB) ChangedSince(ctx context.Context, req ChangedSinceRequest) ([]model.InoSeq, error) {
	if req.Type != model.TypeInode && req.Type != model.TypeBmap {
		return nil, fmt.Errorf("%w: key type %s not scannable for changes", ErrInvalidArgument, req.Type)
	}
	if req.FirstIno > req.LastIno {
		return nil, &ErrBadRange{First: req.FirstIno, Last: req.LastIno}
	}
	if req.MaxResults <= 0 {
		return nil, fmt.Errorf("%w: max results %d", ErrInvalidArgument, req.MaxResults)
	}

	start := model.InodeKey(req.FirstIno, req.Type)
	end := model.InodeKey(req.LastIno, req.Type)

	var out []model.InoSeq
	for len(out) < req.MaxResults {
		if err := db.pace(ctx); err != nil {
			return out, err
		}

		rec, err := db.snap.SinceNext(start, end, req.MinSeq)
		if errors.Is(err, index.ErrNotFound) {
			break
		}
		if err != nil {
			return out, err
		}

		out = append(out, model.InoSeq{Ino: rec.Key.Major, Seq: rec.Seq})

		// Skip the rest of this inode's sub-records: one report per inode
		// per pass.
		if rec.Key.Major == math.MaxUint64 {
			break
		}
		start = model.InodeKey(rec.Key.Major+1, req.Type)
	}

	db.logger.WithRange(req.FirstIno, req.LastIno).Debug("changed-since scan completed",
		"type", req.Type.String(),
		"min_seq", req.MinSeq,
		"results", len(out),
	)
	return out, nil
}
