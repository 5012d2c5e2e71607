// Package memtree provides an in-memory ordered index store backed by a
// btree, with copy-on-write point-in-time snapshots.
//
// The write side exists for ingest tooling and fixtures; the query engine
// only ever sees the read-only View.
package memtree

import (
	"sync"

	"github.com/google/btree"

	"github.com/hupe1980/metascan/index"
	"github.com/hupe1980/metascan/model"
)

// Compile time check to ensure View satisfies the Snapshot interface.
var _ index.Snapshot = (*View)(nil)

const degree = 32

func recordLess(a, b model.Record) bool {
	return model.Less(a.Key, b.Key)
}

// Tree is a mutable ordered record store.
type Tree struct {
	mu   sync.Mutex
	tree *btree.BTreeG[model.Record]
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		tree: btree.NewG(degree, recordLess),
	}
}

// Insert adds or replaces the record at rec.Key.
func (t *Tree) Insert(rec model.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.ReplaceOrInsert(rec)
}

// Delete removes the record at key, if present.
func (t *Tree) Delete(key model.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.Delete(model.Record{Key: key})
}

// Len returns the number of records in the tree.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.Len()
}

// Ascend calls fn for every record in key order until fn returns false.
func (t *Tree) Ascend(fn func(rec model.Record) bool) {
	t.Snapshot().ascend(fn)
}

// Snapshot returns a point-in-time read-only view of the tree. The view is
// a lazy copy: later Inserts into the tree are invisible to it.
func (t *Tree) Snapshot() *View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &View{tree: t.tree.Clone()}
}

// View is a frozen snapshot of a Tree.
type View struct {
	tree *btree.BTreeG[model.Record]
}

func (v *View) ascend(fn func(rec model.Record) bool) {
	v.tree.Ascend(func(rec model.Record) bool {
		return fn(rec)
	})
}

// RangeNext returns the smallest-keyed record in [start, end].
func (v *View) RangeNext(start, end model.Key) (model.Record, error) {
	if model.Compare(start, end) > 0 {
		return model.Record{}, index.ErrNotFound
	}

	var (
		found model.Record
		ok    bool
	)
	v.tree.AscendGreaterOrEqual(model.Record{Key: start}, func(rec model.Record) bool {
		if model.Compare(rec.Key, end) > 0 {
			return false
		}
		found = rec
		ok = true
		return false
	})
	if !ok {
		return model.Record{}, index.ErrNotFound
	}
	return found, nil
}

// SinceNext returns the smallest-keyed record in [start, end] with
// Seq > minSeq. Non-matching records are skipped, not terminal, so the cost
// is proportional to the range examined.
func (v *View) SinceNext(start, end model.Key, minSeq uint64) (model.Record, error) {
	if model.Compare(start, end) > 0 {
		return model.Record{}, index.ErrNotFound
	}

	var (
		found model.Record
		ok    bool
	)
	v.tree.AscendGreaterOrEqual(model.Record{Key: start}, func(rec model.Record) bool {
		if model.Compare(rec.Key, end) > 0 {
			return false
		}
		if rec.Seq <= minSeq {
			return true
		}
		found = rec
		ok = true
		return false
	})
	if !ok {
		return model.Record{}, index.ErrNotFound
	}
	return found, nil
}
