package refs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap/memory"
	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/shard"
	"github.com/jmosbacher/igit-go/transform"
)

func newTestStore(t *testing.T) *Store {
	pipeline, err := transform.New("json", "none", "none", nil)
	require.NoError(t, err)
	return New(FromByteMap(memory.New()), pipeline)
}

func newTestODB(t *testing.T) *objectdb.DB {
	pipeline, err := transform.New("json", "none", "none", nil)
	require.NoError(t, err)
	return objectdb.New(shard.New(memory.New()), pipeline, true)
}

func TestSetGetHead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SetHead(ctx, "main", CommitRef{Key: "deadbeef"}))
	ref, err := s.GetHead(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", ref.Key)
}

func TestSetHeadRewriteIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SetHead(ctx, "main", CommitRef{Key: "aaaa"}))
	require.NoError(t, s.SetHead(ctx, "main", CommitRef{Key: "bbbb"}))

	ref, err := s.GetHead(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "bbbb", ref.Key)
}

func TestCreateBranchFailsIfExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateBranch(ctx, "main", CommitRef{Key: "aaaa"}))
	err := s.CreateBranch(ctx, "main", CommitRef{Key: "bbbb"})
	assert.ErrorIs(t, err, igiterr.ErrAlreadyExists)
}

func TestResolveCommitPrefersHeadsOverTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	odb := newTestODB(t)

	require.NoError(t, s.SetHead(ctx, "release", CommitRef{Key: "from-head"}))
	require.NoError(t, s.SetTag(ctx, "release", Tag{Target: "from-tag"}))

	ref, err := s.ResolveCommit(ctx, odb, "release")
	require.NoError(t, err)
	assert.Equal(t, "from-head", ref.Key)
}

func TestResolveCommitFallsBackToTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	odb := newTestODB(t)

	require.NoError(t, s.SetTag(ctx, "v1", Tag{Target: "tagged-commit"}))

	ref, err := s.ResolveCommit(ctx, odb, "v1")
	require.NoError(t, err)
	assert.Equal(t, "tagged-commit", ref.Key)
}

func TestResolveCommitFollowsAnnotatedTagThroughObject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	odb := newTestODB(t)

	at := map[string]interface{}{
		"target":  objectdb.Reference{Key: "real-commit", OType: objectdb.OTypeCommit},
		"tagger":  map[string]interface{}{"username": "alice", "email": "alice@example.com"},
		"name":    "v1",
		"message": "first release",
	}
	ref, err := odb.Put(ctx, at)
	require.NoError(t, err)

	require.NoError(t, s.SetTag(ctx, "v1", Tag{Annotated: true, Target: ref.Key, TargetOType: string(objectdb.OTypeTag)}))

	resolved, err := s.ResolveCommit(ctx, odb, "v1")
	require.NoError(t, err)
	assert.Equal(t, "real-commit", resolved.Key)
}

func TestResolveCommitNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	odb := newTestODB(t)

	_, err := s.ResolveCommit(ctx, odb, "nope")
	assert.ErrorIs(t, err, igiterr.ErrNotFound)
}

func TestListHeadsAndTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SetHead(ctx, "main", CommitRef{Key: "a"}))
	require.NoError(t, s.SetHead(ctx, "dev", CommitRef{Key: "b"}))
	require.NoError(t, s.SetTag(ctx, "v1", Tag{Target: "c"}))

	heads, err := s.ListHeads(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "dev"}, heads)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1"}, tags)
}

func TestSetGetRemote(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SetRemote(ctx, "origin", Remote{Name: "origin", URL: "https://example.com/repo.git"}))
	remote, err := s.GetRemote(ctx, "origin")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repo.git", remote.URL)
}
