package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/tree"
)

// TestMergeNoConflict is spec scenario S3: commit base {a:1, b:2};
// branch B modifies to {a:1, b:3}; branch C modifies to {a:9, b:2};
// merge C into B yields {a:9, b:3} and a 2-parent commit.
func TestMergeNoConflict(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	base := e.Working().(*tree.LabelTree)
	base.Put("a", float64(1))
	base.Put("b", float64(2))
	require.NoError(t, e.Add(ctx))
	_, err := e.Commit(ctx, "base", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "B", true))
	b := e.Working().(*tree.LabelTree)
	b.Put("b", float64(3))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "b-commit", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "main", false))
	require.NoError(t, e.Checkout(ctx, "C", true))
	c := e.Working().(*tree.LabelTree)
	c.Put("a", float64(9))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "c-commit", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "B", false))
	mergeRef, err := e.Merge(ctx, "C", "merge C into B", testUser())
	require.NoError(t, err)

	mergedCommit, err := e.getCommit(ctx, mergeRef.Key)
	require.NoError(t, err)
	assert.Len(t, mergedCommit.Parents, 2)

	want := map[string]interface{}{"a": float64(9), "b": float64(3)}
	got := map[string]interface{}{}
	for _, it := range e.Working().IterItems() {
		got[it.Key] = it.Value
	}
	assert.Equal(t, want, got)
}

// TestMergeConflict is spec scenario S4: from base {a:1}; B sets a=2;
// C sets a=3; merging fails MergeConflict with path "a".
func TestMergeConflict(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	base := e.Working().(*tree.LabelTree)
	base.Put("a", float64(1))
	require.NoError(t, e.Add(ctx))
	_, err := e.Commit(ctx, "base", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "B", true))
	b := e.Working().(*tree.LabelTree)
	b.Put("a", float64(2))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "b-commit", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "main", false))
	require.NoError(t, e.Checkout(ctx, "C", true))
	c := e.Working().(*tree.LabelTree)
	c.Put("a", float64(3))
	require.NoError(t, e.Add(ctx))
	_, err = e.Commit(ctx, "c-commit", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "B", false))
	_, err = e.Merge(ctx, "C", "merge C into B", testUser())
	assert.ErrorIs(t, err, igiterr.ErrMergeConflict)
}

func TestMergeFastForward(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	base := e.Working().(*tree.LabelTree)
	base.Put("a", float64(1))
	require.NoError(t, e.Add(ctx))
	_, err := e.Commit(ctx, "base", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "feature", true))
	f := e.Working().(*tree.LabelTree)
	f.Put("a", float64(2))
	require.NoError(t, e.Add(ctx))
	featureCommit, err := e.Commit(ctx, "feature-commit", testUser(), testUser())
	require.NoError(t, err)

	require.NoError(t, e.Checkout(ctx, "main", false))
	ref, err := e.Merge(ctx, "feature", "ff merge", testUser())
	require.NoError(t, err)
	assert.Equal(t, featureCommit.Key, ref.Key)

	v, ok := tree.Get(e.Working(), "a")
	require.True(t, ok)
	assert.Equal(t, float64(2), v)
}

func TestFindCommonAncestorLinearChain(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	a := e.Working().(*tree.LabelTree)
	a.Put("x", float64(1))
	require.NoError(t, e.Add(ctx))
	commitA, err := e.Commit(ctx, "A", testUser(), testUser())
	require.NoError(t, err)

	a.Put("y", float64(2))
	require.NoError(t, e.Add(ctx))
	commitB, err := e.Commit(ctx, "B", testUser(), testUser())
	require.NoError(t, err)

	a.Put("z", float64(3))
	require.NoError(t, e.Add(ctx))
	commitC, err := e.Commit(ctx, "C", testUser(), testUser())
	require.NoError(t, err)

	ancestor, err := findCommonAncestorKeys(ctx, e.odb, commitC.Key, commitB.Key)
	require.NoError(t, err)
	assert.Equal(t, commitB.Key, ancestor)

	ancestor, err = findCommonAncestorKeys(ctx, e.odb, commitB.Key, commitB.Key)
	require.NoError(t, err)
	assert.Equal(t, commitB.Key, ancestor)

	_ = commitA
}
