package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/transform"
	"github.com/jmosbacher/igit-go/tree"
)

func TestDumpLeafsImportLeafs(t *testing.T) {
	pipeline, err := transform.New("json", "none", "none", nil)
	require.NoError(t, err)

	src := tree.NewLabelTree()
	src.Put("a", float64(1))
	src.Put("b", "hello")

	d, err := DumpLeafs(pipeline, src)
	require.NoError(t, err)

	dst := tree.NewLabelTree()
	require.NoError(t, ImportDumpedLeafs(pipeline, d, dst))

	assert.Equal(t, src.IterItems(), dst.IterItems())
}

func TestImportDumpedLeafsRejectsGarbage(t *testing.T) {
	pipeline, err := transform.New("json", "none", "none", nil)
	require.NoError(t, err)

	dst := tree.NewLabelTree()
	err = ImportDumpedLeafs(pipeline, []byte("not json"), dst)
	assert.Error(t, err)
}
