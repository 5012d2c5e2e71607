package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metascan"
	"github.com/hupe1980/metascan/model"
	"github.com/hupe1980/metascan/testutil"
	"github.com/hupe1980/metascan/wire"
)

func startServer(t *testing.T, optFns ...Option) (string, context.CancelFunc) {
	t.Helper()

	tree := testutil.BuildTree(
		testutil.InodeRecord(6, model.TypeInode, 0, 50),
		testutil.InodeRecord(7, model.TypeInode, 0, 150),
		testutil.InodeRecord(9, model.TypeInode, 0, 200),
		testutil.XattrNameRecord("user.project", 7),
		testutil.BacklinkRecord(t, 7, 0, model.RootIno, "report.txt"),
	)
	db := metascan.New(tree.Snapshot())

	path := filepath.Join(t.TempDir(), "metascan.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(db, optFns...).Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})
	return path, cancel
}

func allCaps(net.Conn) wire.CapSet { return wire.CapPathLookup }

func TestServer_InodesSince(t *testing.T) {
	path, _ := startServer(t)

	client, err := Dial(path)
	require.NoError(t, err)
	defer client.Close()

	pairs, err := client.InodesSince(wire.InodesSinceArgs{
		FirstIno: 5, LastIno: 10, Seq: 100, BufLen: 4096,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.InoSeq{{Ino: 7, Seq: 150}, {Ino: 9, Seq: 200}}, pairs)
}

func TestServer_FindXattrName(t *testing.T) {
	path, _ := startServer(t)

	client, err := Dial(path)
	require.NoError(t, err)
	defer client.Close()

	inos, err := client.FindXattrName(wire.FindXattrArgs{
		FirstIno: 1, LastIno: 100, MaxResults: 8, Str: []byte("user.project"),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, inos)

	// An absent value probes a different bucket and finds nothing.
	inos, err = client.FindXattrVal(wire.FindXattrArgs{
		FirstIno: 1, LastIno: 100, MaxResults: 8, Str: []byte("user.project"),
	})
	require.NoError(t, err)
	assert.Empty(t, inos)
}

func TestServer_InodePathsCapability(t *testing.T) {
	denied, _ := startServer(t)

	client, err := Dial(denied)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.InodePaths(wire.InodePathsArgs{Ino: 7, BufLen: 4096})
	assert.ErrorIs(t, err, metascan.ErrPermissionDenied)

	granted, _ := startServer(t, WithCapabilities(allCaps))

	privileged, err := Dial(granted)
	require.NoError(t, err)
	defer privileged.Close()

	out, err := privileged.InodePaths(wire.InodePathsArgs{Ino: 7, BufLen: 4096})
	require.NoError(t, err)
	assert.Equal(t, []byte("report.txt\x00\x00"), out)
}

func TestServer_ErrorsKeepConnectionUsable(t *testing.T) {
	path, _ := startServer(t)

	client, err := Dial(path)
	require.NoError(t, err)
	defer client.Close()

	// Malformed arguments fail that one call only.
	_, err = client.Do(wire.OpInodesSince, []byte{1, 2, 3})
	assert.ErrorIs(t, err, metascan.ErrInvalidArgument)

	_, err = client.Do(wire.Op(99), nil)
	assert.ErrorIs(t, err, metascan.ErrInvalidArgument)

	pairs, err := client.InodesSince(wire.InodesSinceArgs{
		FirstIno: 1, LastIno: 100, Seq: 0, BufLen: 4096,
	})
	require.NoError(t, err)
	assert.Len(t, pairs, 3)
}

func TestServer_ConcurrentClients(t *testing.T) {
	path, _ := startServer(t)

	const n = 4
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			client, err := Dial(path)
			if err != nil {
				errs <- err
				return
			}
			defer client.Close()

			for j := 0; j < 10; j++ {
				pairs, err := client.InodesSince(wire.InodesSinceArgs{
					FirstIno: 5, LastIno: 10, Seq: 100, BufLen: 4096,
				})
				if err != nil {
					errs <- err
					return
				}
				if len(pairs) != 2 {
					errs <- assert.AnError
					return
				}
			}
			errs <- nil
		}()
	}
	for i := 0; i < n; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestServer_ShutdownClosesListener(t *testing.T) {
	path, cancel := startServer(t)
	cancel()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
		}
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)
}
