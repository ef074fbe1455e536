package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntIntervalTreePutGetPointUnwrapsSingleMatch(t *testing.T) {
	it := NewIntIntervalTree()
	it.Put(0, 10, "a")
	it.Put(10, 20, "b")

	assert.Equal(t, "a", it.GetPoint(5))
	assert.Equal(t, "b", it.GetPoint(10))
	assert.Nil(t, it.GetPoint(25))
}

func TestIntIntervalTreePutChopsOverlap(t *testing.T) {
	it := NewIntIntervalTree()
	it.Put(0, 10, "old")
	it.Put(5, 8, "new")

	assert.Equal(t, "old", it.GetPoint(2))
	assert.Equal(t, "new", it.GetPoint(6))
	assert.Equal(t, "old", it.GetPoint(9))
}

func TestIntIntervalTreeGetRangeClips(t *testing.T) {
	it := NewIntIntervalTree()
	it.Put(0, 10, "a")
	it.Put(10, 20, "b")

	hits := it.GetRange(5, 15)
	require.Len(t, hits, 2)
	assert.Equal(t, ClippedInterval{Begin: 5, End: 10, Value: "a"}, hits[0])
	assert.Equal(t, ClippedInterval{Begin: 10, End: 15, Value: "b"}, hits[1])
}

func TestIntIntervalTreeDiffMergesEqualRuns(t *testing.T) {
	a := NewIntIntervalTree()
	a.Put(0, 10, "x")

	b := NewIntIntervalTree()
	b.Put(0, 5, "x")
	b.Put(5, 10, "x")

	d, err := a.Diff(b)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
}

func TestIntIntervalTreeDiffEditInsertDelete(t *testing.T) {
	a := NewIntIntervalTree()
	a.Put(0, 10, "x")
	a.Put(20, 30, "z")

	b := NewIntIntervalTree()
	b.Put(0, 10, "y")
	b.Put(40, 50, "w")

	d, err := a.Diff(b)
	require.NoError(t, err)

	assert.Equal(t, PatchEdit, d.Entries["0-10"].Kind)
	assert.Equal(t, PatchDelete, d.Entries["20-30"].Kind)
	assert.Equal(t, PatchInsert, d.Entries["40-50"].Kind)

	applied, err := a.Apply(d)
	require.NoError(t, err)
	out := applied.(*IntIntervalTree)
	assert.Equal(t, "y", out.GetPoint(5))
	assert.Equal(t, "w", out.GetPoint(45))
	assert.Nil(t, out.GetPoint(25))
}

func TestIntIntervalTreeContains(t *testing.T) {
	it := NewIntIntervalTree()
	it.Put(0, 10, "a")
	assert.True(t, it.Contains("0-10"))
	assert.False(t, it.Contains("5-10"))
}
