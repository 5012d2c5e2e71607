// Package badgerstore adapts a badger database to the index.Snapshot
// contract.
//
// Badger is opened in managed-transaction mode so that its commit versions
// carry the index's sequence numbers directly: a record applied at sequence
// N is stored as a badger entry committed at version N, and a Snapshot is a
// badger transaction pinned at a read version. Keys use the big-endian
// model.Key encoding, so badger's byte order equals key order.
package badgerstore

import (
	"bytes"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/hupe1980/metascan/index"
	"github.com/hupe1980/metascan/model"
)

// Compile time check to ensure Snapshot satisfies the index contract.
var _ index.Snapshot = (*Snapshot)(nil)

// Config holds configuration for a badger-backed index store.
type Config struct {
	// Path is the directory for the badger files. Ignored when InMemory
	// is true.
	Path string

	// InMemory disables disk persistence. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes on apply.
	SyncWrites bool

	// Logger receives badger's internal logging. If nil, badger logging
	// is disabled.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a badger-backed ordered index store.
type Store struct {
	db *badger.DB
}

// Open opens a store with the given configuration.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.OpenManaged(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Apply writes the records with their sequence stamped as the commit
// version. It is the population side used by ingest tooling and fixtures;
// every record in one call commits at the same sequence.
func (s *Store) Apply(seq uint64, recs ...model.Record) error {
	txn := s.db.NewTransactionAt(seq, true)
	defer txn.Discard()

	for _, rec := range recs {
		if err := txn.Set(rec.Key.Encode(), rec.Value); err != nil {
			return fmt.Errorf("set %s: %w", rec.Key, err)
		}
	}
	return txn.CommitAt(seq, nil)
}

// MaxSeq returns the highest sequence committed to the store.
func (s *Store) MaxSeq() uint64 {
	return s.db.MaxVersion()
}

// Snapshot pins a read-consistent view at the given sequence. Records
// committed at sequences greater than readSeq are invisible to it. The
// caller must Close the snapshot when done.
func (s *Store) Snapshot(readSeq uint64) *Snapshot {
	return &Snapshot{txn: s.db.NewTransactionAt(readSeq, false)}
}

// Snapshot is a badger transaction pinned at a read version.
type Snapshot struct {
	txn *badger.Txn
}

// Close releases the pinned transaction.
func (s *Snapshot) Close() {
	s.txn.Discard()
}

// RangeNext returns the smallest-keyed record in [start, end].
func (s *Snapshot) RangeNext(start, end model.Key) (model.Record, error) {
	return s.scan(start, end, func(uint64) bool { return true })
}

// SinceNext returns the smallest-keyed record in [start, end] with
// Seq > minSeq, examining keys in order until one qualifies.
func (s *Snapshot) SinceNext(start, end model.Key, minSeq uint64) (model.Record, error) {
	return s.scan(start, end, func(seq uint64) bool { return seq > minSeq })
}

func (s *Snapshot) scan(start, end model.Key, match func(seq uint64) bool) (model.Record, error) {
	if model.Compare(start, end) > 0 {
		return model.Record{}, index.ErrNotFound
	}

	it := s.txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
	defer it.Close()

	endEnc := end.Encode()
	for it.Seek(start.Encode()); it.Valid(); it.Next() {
		item := it.Item()
		if bytes.Compare(item.Key(), endEnc) > 0 {
			break
		}
		if !match(item.Version()) {
			continue
		}

		key, err := model.DecodeKey(item.KeyCopy(nil))
		if err != nil {
			return model.Record{}, fmt.Errorf("corrupt index key: %w", err)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return model.Record{}, fmt.Errorf("read %s: %w", key, err)
		}
		return model.Record{Key: key, Value: val, Seq: item.Version()}, nil
	}
	return model.Record{}, index.ErrNotFound
}
