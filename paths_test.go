package metascan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metascan"
	"github.com/hupe1980/metascan/model"
	"github.com/hupe1980/metascan/testutil"
)

// twoLinkTree builds:
//
//	/ (1)
//	├── a (2)
//	│   └── x (10, link 0)
//	└── b (3)
//	    └── y (10, link 1)
func twoLinkTree(t *testing.T) *metascan.DB {
	t.Helper()
	tree := testutil.BuildTree(
		testutil.BacklinkRecord(t, 2, 0, model.RootIno, "a"),
		testutil.BacklinkRecord(t, 3, 0, model.RootIno, "b"),
		testutil.BacklinkRecord(t, 10, 0, 2, "x"),
		testutil.BacklinkRecord(t, 10, 1, 3, "y"),
	)
	return metascan.New(tree.Snapshot())
}

func TestInodePaths_TwoHardLinks(t *testing.T) {
	db := twoLinkTree(t)

	buf := make([]byte, 64)
	n, err := db.InodePaths(context.Background(), 10, buf)
	require.NoError(t, err)

	// One NUL-terminated path per link, then the list terminator.
	assert.Equal(t, []byte("a/x\x00b/y\x00\x00"), buf[:n])
}

func TestInodePaths_SingleComponent(t *testing.T) {
	db := twoLinkTree(t)

	buf := make([]byte, 16)
	n, err := db.InodePaths(context.Background(), 2, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\x00\x00"), buf[:n])
}

func TestInodePaths_RootIsOneNul(t *testing.T) {
	db := twoLinkTree(t)

	buf := make([]byte, 16)
	n, err := db.InodePaths(context.Background(), model.RootIno, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, buf[:n])
}

func TestInodePaths_DisconnectedIsOneNul(t *testing.T) {
	// 20 hangs off 30, which has no backlinks and is not the root.
	tree := testutil.BuildTree(
		testutil.BacklinkRecord(t, 20, 0, 30, "orphan"),
	)
	db := metascan.New(tree.Snapshot())
	ctx := context.Background()

	buf := make([]byte, 16)
	n, err := db.InodePaths(ctx, 20, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, buf[:n])

	// An inode with no backlinks at all behaves the same.
	n, err = db.InodePaths(ctx, 999, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, buf[:n])
}

func TestInodePaths_CycleTerminates(t *testing.T) {
	// 40 and 41 reference each other (corrupted index); 40 also has a
	// genuine link under the root. Only the non-cyclic branch survives.
	tree := testutil.BuildTree(
		testutil.BacklinkRecord(t, 40, 0, 41, "c"),
		testutil.BacklinkRecord(t, 40, 1, model.RootIno, "d"),
		testutil.BacklinkRecord(t, 41, 0, 40, "loop"),
	)
	db := metascan.New(tree.Snapshot())

	buf := make([]byte, 64)
	n, err := db.InodePaths(context.Background(), 40, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("d\x00\x00"), buf[:n])
}

func TestInodePaths_BufferTooSmall(t *testing.T) {
	db := twoLinkTree(t)
	ctx := context.Background()

	full := make([]byte, 64)
	need, err := db.InodePaths(ctx, 10, full)
	require.NoError(t, err)

	// One byte short: hard failure, never a truncated path list.
	short := make([]byte, need-1)
	n, err := db.InodePaths(ctx, 10, short)
	assert.ErrorIs(t, err, metascan.ErrBufferTooSmall)
	assert.Zero(t, n)

	// Exact fit succeeds.
	exact := make([]byte, need)
	n, err = db.InodePaths(ctx, 10, exact)
	require.NoError(t, err)
	assert.Equal(t, need, n)
}

func TestInodePaths_Idempotent(t *testing.T) {
	db := twoLinkTree(t)
	ctx := context.Background()

	a := make([]byte, 64)
	n1, err := db.InodePaths(ctx, 10, a)
	require.NoError(t, err)

	b := make([]byte, 64)
	n2, err := db.InodePaths(ctx, 10, b)
	require.NoError(t, err)

	assert.Equal(t, a[:n1], b[:n2])
}

func TestInodePaths_CorruptBacklinkFails(t *testing.T) {
	tree := testutil.BuildTree(
		model.Record{Key: model.BacklinkKey(50, 0), Value: []byte{1, 2, 3}},
	)
	db := metascan.New(tree.Snapshot())

	buf := make([]byte, 64)
	_, err := db.InodePaths(context.Background(), 50, buf)
	assert.Error(t, err)
}

func TestInodePaths_SizeHint(t *testing.T) {
	db := twoLinkTree(t)

	buf := make([]byte, model.PathBufSizeHint(2))
	_, err := db.InodePaths(context.Background(), 10, buf)
	assert.NoError(t, err)
}
