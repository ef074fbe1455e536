// Package shard implements the Key-Sharding Map (spec §4.C): it splits
// a hex key of length >= n into two path components, `prefix/key[:n]/
// key[n:]`, so a filesystem-backed bytemap.ByteMap never has to hold a
// flat directory with one entry per object. It composes directly over
// any bytemap.ByteMap, the way the teacher's db.Storage.WithPrefix
// layers a path prefix over an inner storage without changing the
// storage's own semantics.
package shard

import (
	"context"
	"strings"

	"github.com/jmosbacher/igit-go/bytemap"
)

const defaultSplit = 2

// Map wraps a bytemap.ByteMap, sharding keys of length >= split at the
// given offset. Keys shorter than split are stored as-is, unsharded.
type Map struct {
	inner bytemap.ByteMap
	split int
}

// New wraps inner with the default split offset (2).
func New(inner bytemap.ByteMap) *Map {
	return NewWithSplit(inner, defaultSplit)
}

// NewWithSplit wraps inner, splitting keys at the given offset.
func NewWithSplit(inner bytemap.ByteMap, split int) *Map {
	return &Map{inner: inner, split: split}
}

func (m *Map) shardedKey(key string) string {
	if len(key) < m.split {
		return key
	}
	return key[:m.split] + "/" + key[m.split:]
}

func (m *Map) Get(ctx context.Context, key string) ([]byte, error) {
	return m.inner.Get(ctx, m.shardedKey(key))
}

func (m *Map) Put(ctx context.Context, key string, value []byte) error {
	return m.inner.Put(ctx, m.shardedKey(key), value)
}

func (m *Map) Delete(ctx context.Context, key string) error {
	return m.inner.Delete(ctx, m.shardedKey(key))
}

func (m *Map) Contains(ctx context.Context, key string) (bool, error) {
	return m.inner.Contains(ctx, m.shardedKey(key))
}

// IterKeys reconstructs the original flat keys from the sharded
// `prefix/rest` layout stored in the inner map.
func (m *Map) IterKeys(ctx context.Context) (bytemap.KeyIterator, error) {
	inner, err := m.inner.IterKeys(ctx)
	if err != nil {
		return nil, err
	}
	return &unshardIterator{inner: inner, split: m.split}, nil
}

type unshardIterator struct {
	inner bytemap.KeyIterator
	split int
	key   string
}

func (it *unshardIterator) Next() bool {
	for it.inner.Next() {
		raw := it.inner.Key()
		idx := strings.IndexByte(raw, '/')
		if idx < 0 {
			it.key = raw
			return true
		}
		it.key = raw[:idx] + raw[idx+1:]
		return true
	}
	return false
}

func (it *unshardIterator) Key() string  { return it.key }
func (it *unshardIterator) Err() error   { return it.inner.Err() }
func (it *unshardIterator) Close() error { return it.inner.Close() }
