// Package leveldb implements a bytemap.ByteMap over syndtr/goleveldb,
// adapted from the teacher's db/leveldb/leveldb.go. The node-shaped
// Storage there stored fixed Merkle node records under a prefix; this one
// stores opaque byte values under a plain flat keyspace (sharding, if
// wanted, is layered on top by package shard — this backend never
// special-cases key structure).
package leveldb

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// Storage is a bytemap.ByteMap backed by a LevelDB directory on disk.
type Storage struct {
	ldb *leveldb.DB
	log log.FieldLogger
}

// Open opens (or creates) a LevelDB database at path.
func Open(path string, errorIfMissing bool, logger log.FieldLogger) (*Storage, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	ldb, err := leveldb.OpenFile(path, &opt.Options{ErrorIfMissing: errorIfMissing})
	if err != nil {
		return nil, errors.Wrap(err, "leveldb: open failed")
	}
	return &Storage{ldb: ldb, log: logger}, nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.ldb.Get([]byte(key), nil)
	if err == ldberrors.ErrNotFound {
		return nil, igiterr.NotFound(key)
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("leveldb get failed")
		return nil, igiterr.BackendIO(key, err)
	}
	return v, nil
}

func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	if err := s.ldb.Put([]byte(key), value, nil); err != nil {
		s.log.WithError(err).WithField("key", key).Error("leveldb put failed")
		return igiterr.BackendIO(key, err)
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	if err := s.ldb.Delete([]byte(key), nil); err != nil {
		return igiterr.BackendIO(key, err)
	}
	return nil
}

func (s *Storage) Contains(_ context.Context, key string) (bool, error) {
	ok, err := s.ldb.Has([]byte(key), nil)
	if err != nil {
		return false, igiterr.BackendIO(key, err)
	}
	return ok, nil
}

func (s *Storage) IterKeys(_ context.Context) (bytemap.KeyIterator, error) {
	snapshot, err := s.ldb.GetSnapshot()
	if err != nil {
		return nil, igiterr.BackendIO("", err)
	}
	iter := snapshot.NewIterator(util.BytesPrefix(nil), nil)
	return &keyIterator{snapshot: snapshot, iter: iter}, nil
}

// Close releases the underlying LevelDB handle.
func (s *Storage) Close() error {
	if err := s.ldb.Close(); err != nil {
		return errors.Wrap(err, "leveldb: close failed")
	}
	s.log.Info("leveldb storage closed")
	return nil
}

type keyIterator struct {
	snapshot *leveldb.Snapshot
	iter     interface {
		Next() bool
		Key() []byte
		Release()
		Error() error
	}
	key string
}

func (it *keyIterator) Next() bool {
	if !it.iter.Next() {
		return false
	}
	it.key = string(it.iter.Key())
	return true
}

func (it *keyIterator) Key() string { return it.key }
func (it *keyIterator) Err() error  { return it.iter.Error() }
func (it *keyIterator) Close() error {
	it.iter.Release()
	it.snapshot.Release()
	return nil
}
