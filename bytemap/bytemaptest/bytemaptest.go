// Package bytemaptest is a conformance suite every bytemap.ByteMap
// backend is expected to pass, adapted from the teacher's db/test/test.go
// harness shape (a StorageBuilder interface plus a TestAll entry point
// that t.Run()s a fixed list of subtests) — the individual Merkle-proof
// assertions don't carry over since they're specific to the teacher's
// domain, but the "one harness, every backend plugs in a constructor"
// structure does.
package bytemaptest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// Builder constructs a fresh, empty bytemap.ByteMap for a single
// subtest. Backends with teardown needs (temp dirs, connections)
// should register it via t.Cleanup inside Build.
type Builder interface {
	Build(t *testing.T) bytemap.ByteMap
}

// Store is an alias kept for readability in the test bodies below.
type Store = bytemap.ByteMap

// Run executes the full conformance suite against b.
func Run(t *testing.T, b Builder) {
	t.Run("GetMissingReturnsNotFound", func(t *testing.T) { testGetMissing(t, b.Build(t)) })
	t.Run("PutThenGetRoundTrips", func(t *testing.T) { testPutGet(t, b.Build(t)) })
	t.Run("PutOverwritesExistingValue", func(t *testing.T) { testOverwrite(t, b.Build(t)) })
	t.Run("DeleteRemovesKey", func(t *testing.T) { testDelete(t, b.Build(t)) })
	t.Run("DeleteOfMissingKeyIsNotAnError", func(t *testing.T) { testDeleteMissing(t, b.Build(t)) })
	t.Run("ContainsReflectsPutAndDelete", func(t *testing.T) { testContains(t, b.Build(t)) })
	t.Run("IterKeysVisitsEveryPutKeyExactlyOnce", func(t *testing.T) { testIterKeys(t, b.Build(t)) })
	t.Run("EmptyValueRoundTrips", func(t *testing.T) { testEmptyValue(t, b.Build(t)) })
}

func testGetMissing(t *testing.T, s Store) {
	ctx := context.Background()
	_, err := s.Get(ctx, "does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, igiterr.ErrNotFound)
}

func testPutGet(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k1", []byte("hello")))
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v)
}

func testOverwrite(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k1", []byte("first")))
	require.NoError(t, s.Put(ctx, "k1", []byte("second")))
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), v)
}

func testDelete(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k1", []byte("x")))
	require.NoError(t, s.Delete(ctx, "k1"))
	_, err := s.Get(ctx, "k1")
	assert.ErrorIs(t, err, igiterr.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s Store) {
	ctx := context.Background()
	assert.NoError(t, s.Delete(ctx, "never-existed"))
}

func testContains(t *testing.T, s Store) {
	ctx := context.Background()
	ok, err := s.Contains(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "k1", []byte("x")))
	ok, err = s.Contains(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "k1"))
	ok, err = s.Contains(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testIterKeys(t *testing.T, s Store) {
	ctx := context.Background()
	want := map[string]bool{"a": true, "b": true, "c": true}
	for k := range want {
		require.NoError(t, s.Put(ctx, k, []byte(k)))
	}

	it, err := s.IterKeys(ctx)
	require.NoError(t, err)
	defer it.Close()

	got := map[string]bool{}
	for it.Next() {
		got[it.Key()] = true
	}
	require.NoError(t, it.Err())
	assert.Equal(t, want, got)
}

func testEmptyValue(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "empty", []byte{}))
	v, err := s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, v)
}
