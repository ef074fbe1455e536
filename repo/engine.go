package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/tokenize"
	"github.com/jmosbacher/igit-go/tree"
	"github.com/jmosbacher/igit-go/value"
)

// Engine is the Commit Engine (spec §4.H): the working tree W / index
// reference I / HEAD symbol H state machine, single-writer per
// repository per spec §5. The embedded RWMutex guards W/I/H the same
// way the teacher's MerkleTree embeds sync.RWMutex to guard its root
// key (merkletree.go) — reads (Working/Head) take RLock, every
// transition takes the exclusive Lock. A zero-value Engine is not
// usable; build one with NewEngine.
type Engine struct {
	sync.RWMutex

	odb  *objectdb.DB
	refs *refs.Store

	w        tree.Tree
	index    *objectdb.Reference // nullable: no `add` has run yet
	head     string               // branch name, or a raw commit key when detached
	detached bool

	log log.FieldLogger
}

// NewEngine builds an Engine over odb/refsStore with w as the initial
// working tree and headBranch as the starting (not-yet-existing) branch
// name — the state a brand-new repository starts in before any commit.
func NewEngine(odb *objectdb.DB, refsStore *refs.Store, w tree.Tree, headBranch string) *Engine {
	return &Engine{odb: odb, refs: refsStore, w: w, head: headBranch, log: log.StandardLogger()}
}

// SetLogger replaces the package-level logrus logger NewEngine defaults
// to (spec SPEC_FULL §4.Z2: "repo logs commit/checkout/merge transitions
// at debug level"), injected rather than global the same way
// objectdb.DB.SetLogger and the leveldb/pebble backends are.
func (e *Engine) SetLogger(l log.FieldLogger) {
	if l != nil {
		e.log = l
	}
}

// Working returns the current working tree W.
func (e *Engine) Working() tree.Tree {
	e.RLock()
	defer e.RUnlock()
	return e.w
}

// Head returns the current HEAD symbol (branch name, or a commit key
// when Detached) and whether it is detached.
func (e *Engine) Head() (string, bool) {
	e.RLock()
	defer e.RUnlock()
	return e.head, e.detached
}

// currentIndexTree materializes the staged index tree I, or a fresh
// empty tree of W's variant if nothing has been `add`ed yet (spec
// §4.H `add`: "the current index (or an empty tree of W's variant)").
func (e *Engine) currentIndexTree(ctx context.Context) (tree.Tree, error) {
	if e.index == nil {
		return tree.NewVariant(e.w.Variant())
	}
	return tree.FromMerkle(ctx, e.odb, *e.index)
}

// headCommitKey resolves the engine's current HEAD to a commit key. ok
// is false when H is a branch name with no commits yet (a brand-new
// repository).
func (e *Engine) headCommitKey(ctx context.Context) (key string, ok bool, err error) {
	if e.detached {
		return e.head, true, nil
	}
	ref, err := e.refs.GetHead(ctx, e.head)
	if err != nil {
		if errors.Is(err, igiterr.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return ref.Key, true, nil
}

func (e *Engine) getCommit(ctx context.Context, key string) (Commit, error) {
	obj, err := e.odb.Get(ctx, key)
	if err != nil {
		return Commit{}, err
	}
	return DecodeCommit(obj)
}

// isDirty implements the dirty check spec §4.H names: "W == INDEX_TREE
// by tokenizer hash." An Engine with no staged index is dirty exactly
// when W has any content at all.
func (e *Engine) isDirty(ctx context.Context) (bool, error) {
	if e.index == nil {
		return len(e.w.IterItems()) > 0, nil
	}
	indexTree, err := tree.FromMerkle(ctx, e.odb, *e.index)
	if err != nil {
		return false, err
	}
	return tokenize.Token(e.w) != tokenize.Token(indexTree), nil
}

// Add implements spec §4.H `add(keys?)`: stage W[k] for each requested
// key (or every key in W, if keys is empty) into the index, validating
// every copied value through ODB.ConsistentHash, then trim any index key
// no longer present in W.
func (e *Engine) Add(ctx context.Context, keys ...string) error {
	e.Lock()
	defer e.Unlock()
	base, err := e.currentIndexTree(ctx)
	if err != nil {
		return err
	}

	keySet := keys
	if len(keySet) == 0 {
		items := e.w.IterItems()
		keySet = make([]string, len(items))
		for i, it := range items {
			keySet[i] = it.Key
		}
	}

	for _, k := range keySet {
		val, ok := tree.Get(e.w, k)
		if !ok {
			continue
		}
		if _, isTree := val.(tree.Tree); !isTree {
			if err := value.Validate(val); err != nil {
				return igiterr.UnhashableValue(k, err)
			}
		}
		consistent, err := e.odb.ConsistentHash(ctx, val)
		if err != nil {
			return err
		}
		if !consistent {
			return igiterr.UnhashableValue(k, nil)
		}
		if err := tree.PutByVariant(base, k, val); err != nil {
			return err
		}
	}

	for _, it := range base.IterItems() {
		if !e.w.Contains(it.Key) {
			if err := tree.DeleteByVariant(base, it.Key); err != nil {
				return err
			}
		}
	}

	ref, err := tree.ToMerkle(ctx, e.odb, base)
	if err != nil {
		return err
	}
	e.index = &ref
	return nil
}

// Rm implements spec §4.H `rm(keys?)`: delete keys from the index and
// rehash.
func (e *Engine) Rm(ctx context.Context, keys ...string) error {
	e.Lock()
	defer e.Unlock()
	base, err := e.currentIndexTree(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := tree.DeleteByVariant(base, k); err != nil {
			return err
		}
	}
	ref, err := tree.ToMerkle(ctx, e.odb, base)
	if err != nil {
		return err
	}
	e.index = &ref
	return nil
}

// Commit implements spec §4.H `commit(message, author?, committer?)`:
// fails DirtyWorkingTree unless the index already equals W, then writes
// a Commit record with parents = [HEAD] (or none, for the first commit)
// and moves HEAD (branch or detached) to the new commit.
func (e *Engine) Commit(ctx context.Context, message string, author, committer User) (objectdb.Reference, error) {
	e.Lock()
	defer e.Unlock()
	dirty, err := e.isDirty(ctx)
	if err != nil {
		return objectdb.Reference{}, err
	}
	if dirty || e.index == nil {
		return objectdb.Reference{}, igiterr.DirtyWorkingTree(e.head)
	}

	parents := []objectdb.Reference{}
	if key, ok, err := e.headCommitKey(ctx); err != nil {
		return objectdb.Reference{}, err
	} else if ok {
		parents = []objectdb.Reference{{Key: key, OType: objectdb.OTypeCommit}}
	}

	c := Commit{
		Tree:      *e.index,
		Parents:   parents,
		Author:    author,
		Committer: committer,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	ref, err := e.odb.Put(ctx, c)
	if err != nil {
		return objectdb.Reference{}, err
	}

	if e.detached {
		e.head = ref.Key
	} else if err := e.refs.SetHead(ctx, e.head, refs.CommitRef{Key: ref.Key}); err != nil {
		return objectdb.Reference{}, err
	}
	e.log.WithField("commit", ref.Key).WithField("head", e.head).Debug("repo: commit")
	return ref, nil
}

// Checkout implements spec §4.H `checkout(name, create_branch?)`: fails
// DirtyWorkingTree if W has unstaged changes, optionally creates a new
// branch at current HEAD, resolves name (head, then tag, then fuzzy
// key), and materializes W/I/H from the resolved commit.
func (e *Engine) Checkout(ctx context.Context, name string, createBranch bool) error {
	e.Lock()
	defer e.Unlock()
	dirty, err := e.isDirty(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return igiterr.DirtyWorkingTree(e.head)
	}

	if createBranch {
		if _, err := e.refs.GetHead(ctx, name); err == nil {
			return igiterr.AlreadyExists(name)
		} else if !errors.Is(err, igiterr.ErrNotFound) {
			return err
		}

		key, ok, err := e.headCommitKey(ctx)
		if err != nil {
			return err
		}
		if !ok {
			// Bootstrap case: no commit exists yet to point the new
			// branch at. Just switch HEAD to the unborn branch name;
			// the first `commit` call creates refs/heads/<name>.
			e.head = name
			e.detached = false
			return nil
		}
		if err := e.refs.CreateBranch(ctx, name, refs.CommitRef{Key: key}); err != nil {
			return err
		}
	}

	key, isBranch, err := resolveCommit(ctx, e.odb, e.refs, name)
	if err != nil {
		return err
	}

	commit, err := e.getCommit(ctx, key)
	if err != nil {
		return err
	}
	w, err := tree.FromMerkle(ctx, e.odb, commit.Tree)
	if err != nil {
		return err
	}

	e.w = w
	idx := commit.Tree
	e.index = &idx
	if isBranch {
		e.head = name
		e.detached = false
	} else {
		e.head = key
		e.detached = true
	}
	e.log.WithField("ref", name).WithField("commit", key).WithField("detached", e.detached).Debug("repo: checkout")
	return nil
}

// Branch implements spec §4.H `branch(name)`: create head name -> HEAD,
// failing AlreadyExists if name is already a head.
func (e *Engine) Branch(ctx context.Context, name string) error {
	e.Lock()
	defer e.Unlock()
	key, ok, err := e.headCommitKey(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return igiterr.NotFound(e.head)
	}
	return e.refs.CreateBranch(ctx, name, refs.CommitRef{Key: key})
}

// Tag implements spec §4.H `tag(name, annotated?, tagger?, message?)`:
// a lightweight tag points straight at HEAD's commit; an annotated tag
// hashes an AnnotatedTag object first and points the ref at that
// instead (spec §9 Open Question: tag -> ref -> object).
func (e *Engine) Tag(ctx context.Context, name string, annotated bool, tagger User, message string) error {
	e.Lock()
	defer e.Unlock()
	key, ok, err := e.headCommitKey(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return igiterr.NotFound(e.head)
	}

	if !annotated {
		return e.refs.SetTag(ctx, name, refs.Tag{
			Target:      key,
			TargetOType: string(objectdb.OTypeCommit),
		})
	}

	at := AnnotatedTag{
		Target:  objectdb.Reference{Key: key, OType: objectdb.OTypeCommit},
		Tagger:  tagger,
		Name:    name,
		Message: message,
	}
	ref, err := e.odb.Put(ctx, at)
	if err != nil {
		return err
	}
	return e.refs.SetTag(ctx, name, refs.Tag{
		Annotated:   true,
		Target:      ref.Key,
		TargetOType: string(objectdb.OTypeTag),
	})
}
