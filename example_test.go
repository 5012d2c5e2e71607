package metascan_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/metascan"
	"github.com/hupe1980/metascan/index/memtree"
	"github.com/hupe1980/metascan/model"
)

func Example() {
	ctx := context.Background()

	// Populate an in-memory index: two inodes with metadata changes, and a
	// file hard-linked under the root.
	tree := memtree.New()
	tree.Insert(model.Record{Key: model.InodeKey(7, model.TypeInode), Seq: 150})
	tree.Insert(model.Record{Key: model.InodeKey(9, model.TypeInode), Seq: 200})

	link, _ := model.Backlink{Parent: model.RootIno, Name: "report.txt"}.Encode()
	tree.Insert(model.Record{Key: model.BacklinkKey(7, 0), Value: link})

	db := metascan.New(tree.Snapshot())

	changed, err := db.ChangedSince(ctx, metascan.ChangedSinceRequest{
		FirstIno:   1,
		LastIno:    1 << 20,
		Type:       model.TypeInode,
		MinSeq:     100,
		MaxResults: 64,
	})
	if err != nil {
		panic(err)
	}
	for _, pair := range changed {
		fmt.Printf("ino %d changed at seq %d\n", pair.Ino, pair.Seq)
	}

	buf := make([]byte, model.PathBufSizeHint(1))
	n, err := db.InodePaths(ctx, 7, buf)
	if err != nil {
		panic(err)
	}
	fmt.Printf("paths: %q\n", buf[:n])

	// Output:
	// ino 7 changed at seq 150
	// ino 9 changed at seq 200
	// paths: "report.txt\x00\x00"
}
