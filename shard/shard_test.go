package shard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap/memory"
)

func TestShardRoundTrips(t *testing.T) {
	ctx := context.Background()
	m := New(memory.New())

	key := "deadbeefcafe"
	require.NoError(t, m.Put(ctx, key, []byte("payload")))

	v, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), v)

	ok, err := m.Contains(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShardStoresUnderSplitPath(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	m := New(inner)

	require.NoError(t, m.Put(ctx, "abcdef01", []byte("x")))

	raw, err := inner.Get(ctx, "ab/cdef01")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), raw)
}

func TestShardShortKeyUnsharded(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	m := New(inner)

	require.NoError(t, m.Put(ctx, "a", []byte("x")))
	raw, err := inner.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), raw)
}

func TestShardIterKeysReconstructsFlatKeys(t *testing.T) {
	ctx := context.Background()
	m := New(memory.New())

	want := map[string]bool{"abcd1234": true, "ef567890": true}
	for k := range want {
		require.NoError(t, m.Put(ctx, k, []byte(k)))
	}

	it, err := m.IterKeys(ctx)
	require.NoError(t, err)
	defer it.Close()

	got := map[string]bool{}
	for it.Next() {
		got[it.Key()] = true
	}
	require.NoError(t, it.Err())
	assert.Equal(t, want, got)
}
