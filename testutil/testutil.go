// Package testutil builds populated in-memory index fixtures for tests.
package testutil

import (
	"testing"

	"github.com/hupe1980/metascan/index/memtree"
	"github.com/hupe1980/metascan/internal/hash"
	"github.com/hupe1980/metascan/model"
)

// InodeRecord returns an inode-scoped record stamped with seq.
func InodeRecord(ino uint64, t model.KeyType, minor, seq uint64) model.Record {
	return model.Record{
		Key: model.Key{Major: ino, Type: t, Minor: minor},
		Seq: seq,
	}
}

// XattrNameRecord returns a name-bucket record for the given attribute name
// and inode, hashed the way the engine hashes lookup strings.
func XattrNameRecord(name string, ino uint64) model.Record {
	h := hash.Name64([]byte(name)) &^ hash.NameHashMask
	return model.Record{Key: model.XattrKey(h, model.TypeXattrName, ino)}
}

// XattrValRecord returns a value-bucket record for the given attribute
// value and inode.
func XattrValRecord(val string, ino uint64) model.Record {
	return model.Record{Key: model.XattrKey(hash.Name64([]byte(val)), model.TypeXattrVal, ino)}
}

// BacklinkRecord returns one hard-link backref of ino: link number ordinal,
// named name under parent.
func BacklinkRecord(t *testing.T, ino, ordinal, parent uint64, name string) model.Record {
	t.Helper()
	val, err := model.Backlink{Parent: parent, Name: name}.Encode()
	if err != nil {
		t.Fatalf("encode backlink: %v", err)
	}
	return model.Record{Key: model.BacklinkKey(ino, ordinal), Value: val}
}

// BuildTree returns a memtree populated with recs.
func BuildTree(recs ...model.Record) *memtree.Tree {
	tree := memtree.New()
	for _, rec := range recs {
		tree.Insert(rec)
	}
	return tree
}
