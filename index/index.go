// Package index defines the read-only snapshot contract the query engine
// scans against, decoupling it from the store that materializes the view.
//
// A Snapshot is an internally consistent, point-in-time view of the ordered
// metadata index. Isolation is guaranteed for the lifetime of one Snapshot
// value, not across snapshots. Implementations must be safe for concurrent
// readers.
//
// # Built-in Implementations
//
//   - memtree.View: copy-on-write btree snapshot, in memory
//   - badgerstore.Snapshot: badger transaction pinned at a read version
package index

import (
	"errors"

	"github.com/hupe1980/metascan/model"
)

// ErrNotFound is returned by scans that exhaust their key range.
//
// It is a scan terminator, not a failure: callers translate it into an empty
// or complete result. Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errors.New("index: no record in range")

// Snapshot is a read-consistent view of the ordered index.
type Snapshot interface {
	// RangeNext returns the smallest-keyed record with key in [start, end],
	// or ErrNotFound if the range holds none. It must not mutate the index.
	RangeNext(start, end model.Key) (model.Record, error)

	// SinceNext returns the smallest-keyed record in [start, end] whose
	// sequence is strictly greater than minSeq. Records that fail the
	// sequence filter do not stop the scan; subsequent keys are examined in
	// order. This is a filtered forward scan, not an index seek on sequence:
	// cost is proportional to the keys in range, not to the matches.
	SinceNext(start, end model.Key, minSeq uint64) (model.Record, error)
}
