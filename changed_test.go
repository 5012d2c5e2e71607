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

func TestChangedSince(t *testing.T) {
	tree := testutil.BuildTree(
		testutil.InodeRecord(6, model.TypeInode, 0, 50),
		testutil.InodeRecord(7, model.TypeInode, 0, 150),
		testutil.InodeRecord(9, model.TypeInode, 0, 200),
	)
	db := metascan.New(tree.Snapshot())

	got, err := db.ChangedSince(context.Background(), metascan.ChangedSinceRequest{
		FirstIno:   5,
		LastIno:    10,
		Type:       model.TypeInode,
		MinSeq:     100,
		MaxResults: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.InoSeq{{Ino: 7, Seq: 150}, {Ino: 9, Seq: 200}}, got)
}

func TestChangedSince_PartialAndResume(t *testing.T) {
	tree := testutil.BuildTree(
		testutil.InodeRecord(6, model.TypeInode, 0, 50),
		testutil.InodeRecord(7, model.TypeInode, 0, 150),
		testutil.InodeRecord(9, model.TypeInode, 0, 200),
	)
	db := metascan.New(tree.Snapshot())
	ctx := context.Background()

	req := metascan.ChangedSinceRequest{
		FirstIno:   5,
		LastIno:    10,
		Type:       model.TypeInode,
		MinSeq:     100,
		MaxResults: 1,
	}

	got, err := db.ChangedSince(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []model.InoSeq{{Ino: 7, Seq: 150}}, got)

	// Resume from the inode after the last result.
	req.FirstIno = got[len(got)-1].Ino + 1
	got, err = db.ChangedSince(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []model.InoSeq{{Ino: 9, Seq: 200}}, got)
}

func TestChangedSince_OneReportPerInode(t *testing.T) {
	// An inode with several stale data sub-records is reported once.
	tree := testutil.BuildTree(
		testutil.InodeRecord(7, model.TypeBmap, 0, 150),
		testutil.InodeRecord(7, model.TypeBmap, 1, 160),
		testutil.InodeRecord(7, model.TypeBmap, 2, 170),
		testutil.InodeRecord(8, model.TypeBmap, 0, 300),
	)
	db := metascan.New(tree.Snapshot())

	got, err := db.ChangedSince(context.Background(), metascan.ChangedSinceRequest{
		FirstIno:   1,
		LastIno:    100,
		Type:       model.TypeBmap,
		MinSeq:     100,
		MaxResults: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.InoSeq{{Ino: 7, Seq: 150}, {Ino: 8, Seq: 300}}, got)
}

func TestChangedSince_EmptyIsSuccess(t *testing.T) {
	tree := testutil.BuildTree(
		testutil.InodeRecord(6, model.TypeInode, 0, 50),
	)
	db := metascan.New(tree.Snapshot())

	got, err := db.ChangedSince(context.Background(), metascan.ChangedSinceRequest{
		FirstIno:   1,
		LastIno:    100,
		Type:       model.TypeInode,
		MinSeq:     1000,
		MaxResults: 64,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChangedSince_InvalidArguments(t *testing.T) {
	db := metascan.New(testutil.BuildTree().Snapshot())
	ctx := context.Background()

	_, err := db.ChangedSince(ctx, metascan.ChangedSinceRequest{
		FirstIno: 10, LastIno: 5, Type: model.TypeInode, MaxResults: 1,
	})
	assert.ErrorIs(t, err, metascan.ErrInvalidArgument)

	var badRange *metascan.ErrBadRange
	assert.ErrorAs(t, err, &badRange)

	_, err = db.ChangedSince(ctx, metascan.ChangedSinceRequest{
		FirstIno: 1, LastIno: 5, Type: model.TypeInode, MaxResults: 0,
	})
	assert.ErrorIs(t, err, metascan.ErrInvalidArgument)

	// Only inode and bmap records carry change semantics.
	_, err = db.ChangedSince(ctx, metascan.ChangedSinceRequest{
		FirstIno: 1, LastIno: 5, Type: model.TypeLinkBackref, MaxResults: 1,
	})
	assert.ErrorIs(t, err, metascan.ErrInvalidArgument)
}

func TestChangedSince_Idempotent(t *testing.T) {
	tree := testutil.BuildTree(
		testutil.InodeRecord(7, model.TypeInode, 0, 150),
		testutil.InodeRecord(9, model.TypeInode, 0, 200),
	)
	db := metascan.New(tree.Snapshot())
	ctx := context.Background()

	req := metascan.ChangedSinceRequest{
		FirstIno: 1, LastIno: 100, Type: model.TypeInode, MinSeq: 0, MaxResults: 64,
	}
	first, err := db.ChangedSince(ctx, req)
	require.NoError(t, err)
	second, err := db.ChangedSince(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
