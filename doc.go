// Package metascan provides read-only introspection queries over a
// filesystem's metadata index.
//
// The engine answers three questions about an ordered, versioned
// composite-key index:
//
//   - which inodes changed since a point in logical time (ChangedSince)
//   - which inodes might hold a given extended-attribute name or value
//     (FindXattrs)
//   - what are all the hard-link paths from the root to an inode
//     (InodePaths)
//
// All three are built on one primitive: ordered scans of an index snapshot
// with range and since-sequence filters, packing variable-length results
// under a caller-supplied capacity.
//
// # Quick Start
//
//	tree := memtree.New()
//	// ... populate tree with index records ...
//
//	db := metascan.New(tree.Snapshot())
//
//	changed, err := db.ChangedSince(ctx, metascan.ChangedSinceRequest{
//	    FirstIno:   1,
//	    LastIno:    1 << 20,
//	    Type:       model.TypeInode,
//	    MinSeq:     100,
//	    MaxResults: 1024,
//	})
//
// # Snapshots
//
// Queries run against an index.Snapshot: an internally consistent,
// point-in-time view supplied by a snapshot provider. Two providers ship
// with the module — memtree (copy-on-write btree, in memory) and
// badgerstore (badger transaction pinned at a read version). Snapshot
// isolation holds for the lifetime of one snapshot, not across snapshots.
//
// # Pagination
//
// Queries never block on result volume; they fill up to the requested
// capacity and return. The caller drives pagination by re-seeding the next
// request from the last result (ChangedSince and FindXattrs resume from the
// inode after the last one returned). A partial result is a success, and an
// empty result is a success distinct from failure.
//
// # Path Reconstruction
//
// InodePaths reveals every root-to-inode hard-link path, bypassing
// traversal permission checks by design. Transports must gate it behind an
// elevated capability before invoking the engine; the wire package's
// dispatcher enforces this for the socket transport.
package metascan
