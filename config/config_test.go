package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/repo"
	"github.com/jmosbacher/igit-go/tree"
)

func testUser() repo.User { return repo.User{Username: "alice", Email: "alice@example.com"} }

func TestOpenCreatesDefaultConfig(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	r, err := Open(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, "main", r.Config.MainBranch)
	assert.Equal(t, "main", r.Config.HEAD)
	assert.Equal(t, "json", r.Config.Serializer)

	reloaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, r.Config, reloaded)
}

func TestOpenPersistsCommitsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	r, err := Open(ctx, root)
	require.NoError(t, err)

	lt := r.Engine.Working().(*tree.LabelTree)
	lt.Put("x", float64(1))
	require.NoError(t, r.Engine.Add(ctx))
	c1, err := r.Engine.Commit(ctx, "c1", testUser(), testUser())
	require.NoError(t, err)

	r2, err := Open(ctx, root)
	require.NoError(t, err)
	head, detached := r2.Engine.Head()
	assert.Equal(t, "main", head)
	assert.False(t, detached)
	assert.Equal(t, []tree.Item{{Key: "x", Value: float64(1)}}, r2.Engine.Working().IterItems())

	obj, err := r2.ODB.Get(ctx, c1.Key)
	require.NoError(t, err)
	require.NotNil(t, obj)
}
