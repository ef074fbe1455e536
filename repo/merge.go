package repo

import (
	"context"
	"sort"
	"time"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/tree"
)

// parentWalker performs one ref's breadth-first ancestor walk, one
// commit key at a time, so FindCommonAncestor can interleave several
// walkers in round-robin order (spec §4.I). seen bounds the walk by
// visited set per spec §9's "avoid unbounded traversal" note — a DAG
// can't cycle (each commit key hashes its parents), but a wide graph
// can still revisit a shared ancestor through multiple paths.
type parentWalker struct {
	queue []string
	seen  map[string]bool
}

func newParentWalker(start string) *parentWalker {
	return &parentWalker{queue: []string{start}, seen: map[string]bool{start: true}}
}

// next pops and returns the walker's next ancestor, enqueueing its
// parents. ok is false once the walker is exhausted.
func (w *parentWalker) next(ctx context.Context, odb *objectdb.DB) (key string, ok bool, err error) {
	if len(w.queue) == 0 {
		return "", false, nil
	}
	key, w.queue = w.queue[0], w.queue[1:]

	obj, err := odb.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	commit, err := DecodeCommit(obj)
	if err != nil {
		return "", false, err
	}
	for _, p := range commit.Parents {
		if !w.seen[p.Key] {
			w.seen[p.Key] = true
			w.queue = append(w.queue, p.Key)
		}
	}
	return key, true, nil
}

// FindCommonAncestor implements spec §4.I `find_common_ancestor(refs…)`:
// a round-robin interleaving of one ancestor walker per input name,
// counting observed commit keys; the first key seen by every walker is
// returned. Fails NoCommonAncestor if the walkers' ancestor sets never
// intersect.
func FindCommonAncestor(ctx context.Context, odb *objectdb.DB, rs *refs.Store, names ...string) (refs.CommitRef, error) {
	if len(names) == 0 {
		return refs.CommitRef{}, igiterr.NoCommonAncestor()
	}

	walkers := make([]*parentWalker, len(names))
	for i, name := range names {
		key, _, err := resolveCommit(ctx, odb, rs, name)
		if err != nil {
			return refs.CommitRef{}, err
		}
		walkers[i] = newParentWalker(key)
	}

	counts := map[string]int{}
	for {
		advanced := 0
		for _, w := range walkers {
			key, ok, err := w.next(ctx, odb)
			if err != nil {
				return refs.CommitRef{}, err
			}
			if !ok {
				continue
			}
			advanced++
			counts[key]++
			if counts[key] == len(walkers) {
				return refs.CommitRef{Key: key}, nil
			}
		}
		if advanced == 0 {
			return refs.CommitRef{}, igiterr.NoCommonAncestor(names...)
		}
	}
}

// findCommonAncestorKeys is FindCommonAncestor over already-resolved
// commit keys rather than ref names, used internally by Merge once HEAD
// and the merge target are both already resolved.
func findCommonAncestorKeys(ctx context.Context, odb *objectdb.DB, keys ...string) (string, error) {
	walkers := make([]*parentWalker, len(keys))
	for i, k := range keys {
		walkers[i] = newParentWalker(k)
	}
	counts := map[string]int{}
	for {
		advanced := 0
		for _, w := range walkers {
			key, ok, err := w.next(ctx, odb)
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
			advanced++
			counts[key]++
			if counts[key] == len(walkers) {
				return key, nil
			}
		}
		if advanced == 0 {
			return "", igiterr.NoCommonAncestor(keys...)
		}
	}
}

// intersectSorted returns the sorted intersection of two sorted string
// slices — EditLeafPaths already returns its result sorted (tree.go), so
// no extra sort is needed on the inputs here, only on assembling this
// one in order.
func intersectSorted(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	sort.Strings(out)
	return out
}

// Merge implements spec §4.I `merge(other, message)`: computes the
// common ancestor of HEAD and other, diffs both sides against it, and
// fails MergeConflict if the two diffs' edit-leaf sets intersect.
// Otherwise builds `ours.apply(d_theirs)` and writes a two-parent merge
// commit. Handles both fast-forward cases (base == HEAD moves HEAD
// without a merge commit; base == other is a no-op) without creating a
// commit.
func (e *Engine) Merge(ctx context.Context, otherName, message string, committer User) (objectdb.Reference, error) {
	e.Lock()
	defer e.Unlock()
	dirty, err := e.isDirty(ctx)
	if err != nil {
		return objectdb.Reference{}, err
	}
	if dirty {
		return objectdb.Reference{}, igiterr.DirtyWorkingTree(e.head)
	}

	headKey, ok, err := e.headCommitKey(ctx)
	if err != nil {
		return objectdb.Reference{}, err
	}
	if !ok {
		return objectdb.Reference{}, igiterr.NotFound(e.head)
	}

	otherKey, _, err := resolveCommit(ctx, e.odb, e.refs, otherName)
	if err != nil {
		return objectdb.Reference{}, err
	}

	if headKey == otherKey {
		return objectdb.Reference{Key: headKey, OType: objectdb.OTypeCommit}, nil
	}

	baseKey, err := findCommonAncestorKeys(ctx, e.odb, headKey, otherKey)
	if err != nil {
		return objectdb.Reference{}, err
	}

	if baseKey == headKey {
		return e.fastForwardTo(ctx, otherKey)
	}
	if baseKey == otherKey {
		return objectdb.Reference{Key: headKey, OType: objectdb.OTypeCommit}, nil
	}

	baseCommit, err := e.getCommit(ctx, baseKey)
	if err != nil {
		return objectdb.Reference{}, err
	}
	headCommit, err := e.getCommit(ctx, headKey)
	if err != nil {
		return objectdb.Reference{}, err
	}
	otherCommit, err := e.getCommit(ctx, otherKey)
	if err != nil {
		return objectdb.Reference{}, err
	}

	baseTree, err := tree.FromMerkle(ctx, e.odb, baseCommit.Tree)
	if err != nil {
		return objectdb.Reference{}, err
	}
	oursTree, err := tree.FromMerkle(ctx, e.odb, headCommit.Tree)
	if err != nil {
		return objectdb.Reference{}, err
	}
	theirsTree, err := tree.FromMerkle(ctx, e.odb, otherCommit.Tree)
	if err != nil {
		return objectdb.Reference{}, err
	}

	dOurs, err := baseTree.Diff(oursTree)
	if err != nil {
		return objectdb.Reference{}, err
	}
	dTheirs, err := baseTree.Diff(theirsTree)
	if err != nil {
		return objectdb.Reference{}, err
	}

	if conflicts := intersectSorted(dOurs.EditLeafPaths(), dTheirs.EditLeafPaths()); len(conflicts) > 0 {
		return objectdb.Reference{}, igiterr.MergeConflictAt(conflicts...)
	}

	merged, err := oursTree.Apply(dTheirs)
	if err != nil {
		return objectdb.Reference{}, err
	}
	mergedRef, err := tree.ToMerkle(ctx, e.odb, merged)
	if err != nil {
		return objectdb.Reference{}, err
	}

	c := Commit{
		Tree: mergedRef,
		Parents: []objectdb.Reference{
			{Key: headKey, OType: objectdb.OTypeCommit},
			{Key: otherKey, OType: objectdb.OTypeCommit},
		},
		Author:    committer,
		Committer: committer,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	ref, err := e.odb.Put(ctx, c)
	if err != nil {
		return objectdb.Reference{}, err
	}

	e.w = merged
	idx := mergedRef
	e.index = &idx
	if e.detached {
		e.head = ref.Key
	} else if err := e.refs.SetHead(ctx, e.head, refs.CommitRef{Key: ref.Key}); err != nil {
		return objectdb.Reference{}, err
	}
	e.log.WithField("merge_commit", ref.Key).WithField("other", otherKey).Debug("repo: merge")
	return ref, nil
}

// fastForwardTo moves W/I/H straight to commitKey without writing a
// merge commit (spec §4.I "Fast-forward: if base == HEAD, move HEAD to
// other").
func (e *Engine) fastForwardTo(ctx context.Context, commitKey string) (objectdb.Reference, error) {
	commit, err := e.getCommit(ctx, commitKey)
	if err != nil {
		return objectdb.Reference{}, err
	}
	w, err := tree.FromMerkle(ctx, e.odb, commit.Tree)
	if err != nil {
		return objectdb.Reference{}, err
	}

	e.w = w
	idx := commit.Tree
	e.index = &idx
	if e.detached {
		e.head = commitKey
	} else if err := e.refs.SetHead(ctx, e.head, refs.CommitRef{Key: commitKey}); err != nil {
		return objectdb.Reference{}, err
	}
	e.log.WithField("commit", commitKey).Debug("repo: merge fast-forward")
	return objectdb.Reference{Key: commitKey, OType: objectdb.OTypeCommit}, nil
}
