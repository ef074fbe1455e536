// Package bytemap defines the Byte Map contract (spec §4.A): a mutable
// mapping from string keys to byte sequences with Get/Put/Delete/Contains/
// IterKeys. No ordering is guaranteed. Failures surface as NotFound or
// BackendIO (igiterr). Concrete backends (bytemap/memory,
// bytemap/leveldb, bytemap/pebble, bytemap/sqlstore) are external
// collaborators that satisfy this contract; every higher layer
// (shard, transform, objectdb) is built over it.
package bytemap

import "context"

// ByteMap is the storage contract every igit-go backend implements.
type ByteMap interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	IterKeys(ctx context.Context) (KeyIterator, error)
}

// KeyIterator walks the keys of a ByteMap in unspecified order.
type KeyIterator interface {
	// Next advances the iterator and reports whether a key is available.
	Next() bool
	// Key returns the current key. Only valid after a true Next().
	Key() string
	// Err returns the first error encountered during iteration, if any.
	Err() error
	// Close releases resources held by the iterator.
	Close() error
}

// SliceIterator adapts a pre-materialized slice of keys into a
// KeyIterator, used by backends (memory, sql) that can't stream keys
// lazily without holding a connection open.
type SliceIterator struct {
	keys []string
	pos  int
}

func NewSliceIterator(keys []string) *SliceIterator {
	return &SliceIterator{keys: keys, pos: -1}
}

func (it *SliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *SliceIterator) Key() string {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return ""
	}
	return it.keys[it.pos]
}

func (it *SliceIterator) Err() error   { return nil }
func (it *SliceIterator) Close() error { return nil }
