package graphviz

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap/memory"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/repo"
	"github.com/jmosbacher/igit-go/shard"
	"github.com/jmosbacher/igit-go/transform"
	"github.com/jmosbacher/igit-go/tree"
)

func testUser() repo.User { return repo.User{Username: "alice", Email: "alice@example.com"} }

func TestGraphVizRendersLinearHistory(t *testing.T) {
	ctx := context.Background()
	pipeline, err := transform.New("json", "none", "none", nil)
	require.NoError(t, err)
	odb := objectdb.New(shard.New(memory.New()), pipeline, true)
	refStore := refs.New(refs.FromByteMap(memory.New()), pipeline)
	e := repo.NewEngine(odb, refStore, tree.NewLabelTree(), "main")

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "first commit\nmore detail", testUser(), testUser())
	require.NoError(t, err)

	lt.Put("y", float64(2))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "second commit", testUser(), testUser())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, GraphViz(ctx, &buf, odb, refStore, "main"))

	out := buf.String()
	assert.Contains(t, out, "digraph hierarchy {")
	assert.Contains(t, out, "second commit")
	assert.Contains(t, out, "first commit")
	assert.NotContains(t, out, "more detail")
}

func TestHashShortString(t *testing.T) {
	assert.Equal(t, "ab", HashShortString("ab"))
	assert.Equal(t, "12345678...", HashShortString("1234567890abcdef"))
}
