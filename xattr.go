package metascan

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/metascan/index"
	"github.com/hupe1980/metascan/internal/hash"
	"github.com/hupe1980/metascan/model"
)

// FindXattrsRequest selects inodes that might carry an extended attribute.
type FindXattrsRequest struct {
	// Str is the attribute name or value to look up.
	Str []byte

	// ByName selects name matching; otherwise Str is matched against
	// attribute values.
	ByName bool

	// FirstIno and LastIno bound the inode range, inclusive.
	FirstIno uint64
	LastIno  uint64

	// MaxResults caps the number of inodes returned. Must be positive.
	MaxResults int
}

// FindXattrs returns inodes in the requested range that might carry the
// given attribute name or value.
//
// The lookup is probabilistic: the index buckets attributes by a 64-bit
// hash, so a returned inode is a candidate, not proof of a match — distinct
// attributes can share a bucket and the caller must confirm by reading the
// actual attribute. False negatives cannot occur: every inode that does
// carry the attribute is returned.
//
// Inodes arrive in increasing order. Hitting MaxResults is a successful
// partial result; resume by re-seeding FirstIno to the last returned inode
// plus one. A mid-scan failure returns the inodes found so far together
// with the error.
func (db *DB) FindXattrs(ctx context.Context, req FindXattrsRequest) ([]uint64, error) {
	if len(req.Str) == 0 {
		return nil, fmt.Errorf("%w: empty attribute string", ErrInvalidArgument)
	}
	if len(req.Str) > MaxXattrLen {
		return nil, &ErrStringTooLong{Len: len(req.Str), Max: MaxXattrLen}
	}
	if req.FirstIno > req.LastIno {
		return nil, &ErrBadRange{First: req.FirstIno, Last: req.LastIno}
	}
	if req.MaxResults <= 0 {
		return nil, fmt.Errorf("%w: max results %d", ErrInvalidArgument, req.MaxResults)
	}

	h := hash.Name64(req.Str)
	var t model.KeyType
	if req.ByName {
		// The low hash bits are reserved for intra-bucket disambiguation
		// and must not discriminate name scans.
		h &^= hash.NameHashMask
		t = model.TypeXattrName
	} else {
		t = model.TypeXattrVal
	}

	start := model.XattrKey(h, t, req.FirstIno)
	end := model.XattrKey(h, t, req.LastIno)

	var inos []uint64
	for len(inos) < req.MaxResults {
		if err := db.pace(ctx); err != nil {
			return inos, err
		}

		rec, err := db.snap.RangeNext(start, end)
		if errors.Is(err, index.ErrNotFound) {
			break
		}
		if err != nil {
			return inos, err
		}

		inos = append(inos, rec.Key.Minor)

		// Advance by key, not by inode: several bucket entries can name
		// the same hash with distinct inodes.
		next, ok := rec.Key.Next()
		if !ok {
			break
		}
		start = next
	}

	db.logger.WithRange(req.FirstIno, req.LastIno).Debug("xattr lookup completed",
		"by_name", req.ByName,
		"candidates", len(inos),
	)
	return inos, nil
}
