package leveldb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/bytemap/bytemaptest"
)

type builder struct{}

func (builder) Build(t *testing.T) bytemap.ByteMap {
	dir := t.TempDir()
	s, err := Open(dir, false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLevelDbStorage(t *testing.T) {
	bytemaptest.Run(t, builder{})
}
