package metascan

import (
	"context"

	"github.com/hupe1980/metascan/index"
)

// MaxXattrLen is the maximum length of an attribute name or value string
// accepted by FindXattrs.
const MaxXattrLen = 1024

// DB is a query handle over one index snapshot.
//
// A DB performs no writes and holds no state across calls beyond its
// configuration; all queries are served from the snapshot it was created
// with. Re-running any query against the same snapshot yields byte-identical
// output. A DB is safe for concurrent use as long as each call owns its own
// output buffer.
type DB struct {
	snap   index.Snapshot
	logger *Logger
	pacer  pacer
}

type pacer interface {
	Wait(ctx context.Context) error
}

// New creates a query handle over snap.
func New(snap index.Snapshot, optFns ...Option) *DB {
	opts := options{
		logger: NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	db := &DB{
		snap:   snap,
		logger: opts.logger,
	}
	if opts.pacer != nil {
		db.pacer = opts.pacer
	}
	return db
}

// pace blocks on the configured limiter, if any, between index probes.
func (db *DB) pace(ctx context.Context) error {
	if db.pacer == nil {
		return nil
	}
	return db.pacer.Wait(ctx)
}
