package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/bytemap/bytemaptest"
)

type builder struct{}

func (builder) Build(t *testing.T) bytemap.ByteMap {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFsStorage(t *testing.T) {
	bytemaptest.Run(t, builder{})
}

func TestShardedKeysRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "ab/cdef", []byte("hello")))
	got, err := s.Get(ctx, "ab/cdef")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	ok, err := s.Contains(ctx, "ab/cdef")
	require.NoError(t, err)
	require.True(t, ok)
}
