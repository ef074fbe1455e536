// Package pebble implements a bytemap.ByteMap over cockroachdb/pebble,
// adapted from the teacher's db/pebble/pebble.go. The prefix-scoped,
// transaction-batch shape of the original is dropped: igit-go's shard
// package already namespaces keys before they reach a backend, and the
// objectdb/commit layers do their own read-modify-write sequencing, so
// a plain Get/Set/Delete surface is all this backend needs to provide.
package pebble

import (
	"context"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// Storage is a bytemap.ByteMap backed by a Pebble directory on disk.
type Storage struct {
	pdb *pebble.DB
	log log.FieldLogger
}

// Open opens (or creates) a Pebble database at path.
func Open(path string, errorIfMissing bool, logger log.FieldLogger) (*Storage, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	pdb, err := pebble.Open(path, &pebble.Options{ErrorIfNotExists: errorIfMissing})
	if err != nil {
		return nil, errors.Wrap(err, "pebble: open failed")
	}
	return &Storage{pdb: pdb, log: logger}, nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	v, closer, err := s.pdb.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, igiterr.NotFound(key)
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("pebble get failed")
		return nil, igiterr.BackendIO(key, err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, igiterr.BackendIO(key, cerr)
	}
	return out, nil
}

func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	if err := s.pdb.Set([]byte(key), value, pebble.Sync); err != nil {
		s.log.WithError(err).WithField("key", key).Error("pebble put failed")
		return igiterr.BackendIO(key, err)
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	if err := s.pdb.Delete([]byte(key), pebble.Sync); err != nil {
		return igiterr.BackendIO(key, err)
	}
	return nil
}

func (s *Storage) Contains(ctx context.Context, key string) (bool, error) {
	_, closer, err := s.pdb.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, igiterr.BackendIO(key, err)
	}
	defer closer.Close()
	return true, nil
}

func (s *Storage) IterKeys(_ context.Context) (bytemap.KeyIterator, error) {
	iter, err := s.pdb.NewIter(nil)
	if err != nil {
		return nil, igiterr.BackendIO("", err)
	}
	return &keyIterator{iter: iter, started: false}, nil
}

// Close releases the underlying Pebble handle.
func (s *Storage) Close() error {
	if err := s.pdb.Close(); err != nil {
		return errors.Wrap(err, "pebble: close failed")
	}
	s.log.Info("pebble storage closed")
	return nil
}

type keyIterator struct {
	iter    *pebble.Iterator
	started bool
	key     string
}

func (it *keyIterator) Next() bool {
	var ok bool
	if !it.started {
		it.started = true
		ok = it.iter.First()
	} else {
		ok = it.iter.Next()
	}
	if !ok {
		return false
	}
	it.key = string(it.iter.Key())
	return true
}

func (it *keyIterator) Key() string { return it.key }
func (it *keyIterator) Err() error  { return it.iter.Error() }
func (it *keyIterator) Close() error {
	return it.iter.Close()
}
