package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap/memory"
	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/shard"
	"github.com/jmosbacher/igit-go/transform"
	"github.com/jmosbacher/igit-go/tree"
)

func newTestEngine(t *testing.T) *Engine {
	pipeline, err := transform.New("json", "none", "none", nil)
	require.NoError(t, err)
	odb := objectdb.New(shard.New(memory.New()), pipeline, true)
	refStore := refs.New(refs.FromByteMap(memory.New()), pipeline)
	return NewEngine(odb, refStore, tree.NewLabelTree(), "main")
}

func testUser() User { return User{Username: "alice", Email: "alice@example.com"} }

// TestLinearCommits is spec scenario S1: init repo; create LabelTree
// with {x: 1}; add; commit "c1"; mutate to {x: 1, y: 2}; add; commit
// "c2"; checkout c1; working tree equals {x: 1}.
func TestLinearCommits(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))

	require.NoError(t, e.Add(ctx))
	c1, err := e.Commit(ctx, "c1", testUser(), testUser())
	require.NoError(t, err)

	lt.Put("y", float64(2))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "c2", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, c1.Key, false))
	w := e.Working()
	assert.Equal(t, []tree.Item{{Key: "x", Value: float64(1)}}, w.IterItems())
}

func TestCommitFailsWhenDirty(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))

	_, err := e.Commit(ctx, "oops", testUser(), testUser())
	assert.ErrorIs(t, err, igiterr.ErrDirtyWorkingTree)
}

func TestAddTrimsKeysRemovedFromWorkingTree(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))
	lt.Put("y", float64(2))
	require.NoError(t, e.Add(ctx))

	lt.Delete("y")
	require.NoError(t, e.Add(ctx))

	dirty, err := e.isDirty(ctx)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestBranchAndCheckoutCreateBranch(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))
	require.NoError(t, e.Add(ctx))
	_, err := e.Commit(ctx, "c1", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "feature", true))
	head, detached := e.Head()
	assert.Equal(t, "feature", head)
	assert.False(t, detached)

	err = e.Checkout(ctx, "feature", true)
	assert.ErrorIs(t, err, igiterr.ErrAlreadyExists)
}

func TestTagLightweightAndAnnotated(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))
	require.NoError(t, e.Add(ctx))
	c1, err := e.Commit(ctx, "c1", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Tag(ctx, "v1", false, User{}, ""))
	tag, err := e.refs.GetTag(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, tag.Annotated)
	assert.Equal(t, c1.Key, tag.Target)

	require.NoError(t, e.Tag(ctx, "v2", true, testUser(), "release two"))
	annotatedRef, err := e.refs.GetTag(ctx, "v2")
	require.NoError(t, err)
	assert.True(t, annotatedRef.Annotated)

	obj, err := e.odb.Get(ctx, annotatedRef.Target)
	require.NoError(t, err)
	at, err := decodeAnnotatedTag(obj)
	require.NoError(t, err)
	assert.Equal(t, c1.Key, at.Target.Key)
	assert.Equal(t, "release two", at.Message)
}

// TestCheckoutByAnnotatedTagName resolves an annotated tag name down to
// its underlying commit (the extra AnnotatedTag hop SPEC_FULL.md §3
// describes), not the AnnotatedTag object itself.
func TestCheckoutByAnnotatedTagName(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	lt := e.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))
	require.NoError(t, e.Add(ctx))
	c1, err := e.Commit(ctx, "c1", testUser(), testUser())
	require.NoError(t, err)

	lt.Put("x", float64(2))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "c2", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, c1.Key, false))
	require.NoError(t, e.Tag(ctx, "v1", true, testUser(), "first release"))
	require.NoError(t, e.Checkout(ctx, "main", false))

	require.NoError(t, e.Checkout(ctx, "v1", false))
	head, detached := e.Head()
	assert.Equal(t, c1.Key, head)
	assert.True(t, detached)
	assert.Equal(t, []tree.Item{{Key: "x", Value: float64(1)}}, e.Working().IterItems())
}
