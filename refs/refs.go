// Package refs implements the Ref Store (spec §4.G): a namespaced
// typed mapping over three disjoint namespaces — heads/, tags/,
// remotes/ — each storing typed records through the Transform
// Pipeline. Grounded on how the teacher's db.Storage layers a fixed
// key prefix over a plain byte map (db/pebble/pebble.go,
// db/leveldb/leveldb.go's WithPrefix); here the prefix is the
// namespace rather than a tree instance ID.
package refs

import (
	"context"
	"errors"
	"strings"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/metrics"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/transform"
)

const (
	nsHeads   = "heads"
	nsTags    = "tags"
	nsRemotes = "remotes"
)

// Store is the namespaced mapping of ref names to typed records, kept
// separate from the sharded, content-addressed objectdb.DB — ref names
// are short, human-chosen, and mutable (a head moves; an object
// never does), so they don't belong in the content-addressed store.
type Store struct {
	backend  RawStore
	pipeline *transform.Pipeline
	metrics  *metrics.Recorder
}

// SetMetrics attaches a Recorder that SetHead reports through. Optional:
// a Store with no Recorder attached simply doesn't instrument itself.
func (s *Store) SetMetrics(r *metrics.Recorder) { s.metrics = r }

// RawStore is the minimal byte-keyed surface the Ref Store needs from
// its backend — deliberately narrower than bytemap.ByteMap's IterKeys
// contract so any flat key/value store can back it without adapting
// an iterator.
type RawStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	IterKeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// New builds a Store over backend using pipeline to serialize records.
func New(backend RawStore, pipeline *transform.Pipeline) *Store {
	return &Store{backend: backend, pipeline: pipeline}
}

// CommitRef names the commit object a head or lightweight tag points
// at (spec §3: "A head name resolves to exactly one CommitRef").
type CommitRef struct {
	Key string `json:"key"`
}

// Tag is a ref/tags/<name> record: either a lightweight pointer
// straight at a commit, or a pointer at a hashed AnnotatedTag object
// (spec §9 Open Question OQ2 resolution — see DESIGN.md: the spec
// picks "tag -> ref -> annotated-tag object", matching Git, over
// storing the AnnotatedTag inline).
type Tag struct {
	Annotated bool   `json:"annotated"`
	Target    string `json:"target"`       // commit key (lightweight) or AnnotatedTag key (annotated)
	TargetOType string `json:"target_otype"` // objectdb.OType of Target
}

// Remote is a refs/remotes/<name> record. Push/pull/fetch protocols
// are explicitly out of scope (spec §1 Non-goals); this is just the
// named-endpoint bookkeeping record the spec reserves room for.
type Remote struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func headKey(name string) string   { return nsHeads + "/" + name }
func tagKey(name string) string    { return nsTags + "/" + name }
func remoteKey(name string) string { return nsRemotes + "/" + name }

func (s *Store) encode(ctx context.Context, key string, v interface{}) error {
	data, err := s.pipeline.Encode(v)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, key, data)
}

func (s *Store) decode(ctx context.Context, key string, out interface{}) error {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	decoded, err := s.pipeline.Decode(data)
	if err != nil {
		return igiterr.DataCorruption(key, err)
	}
	return decodeInto(decoded, out)
}

// decodeInto adapts the pipeline's generic map[string]interface{}
// decode result into one of the typed record structs above; field
// names match the json tags exactly so a straight map lookup suffices
// without a reflection-based decoder.
func decodeInto(decoded interface{}, out interface{}) error {
	m, ok := decoded.(map[string]interface{})
	if !ok {
		return igiterr.DataCorruption("", nil)
	}
	switch x := out.(type) {
	case *CommitRef:
		x.Key, _ = m["key"].(string)
	case *Tag:
		x.Annotated, _ = m["annotated"].(bool)
		x.Target, _ = m["target"].(string)
		x.TargetOType, _ = m["target_otype"].(string)
	case *Remote:
		x.Name, _ = m["name"].(string)
		x.URL, _ = m["url"].(string)
	default:
		return igiterr.UnsupportedVariant("ref record type")
	}
	return nil
}

// SetHead rewrites refs/heads/<name> to point at ref. A non-error
// rewrite of an existing head is intentional (spec §4.G); AlreadyExists
// is only raised by the branch-create path (CreateBranch), not here.
func (s *Store) SetHead(ctx context.Context, name string, ref CommitRef) error {
	if err := s.encode(ctx, headKey(name), ref); err != nil {
		return err
	}
	s.metrics.RecordHeadMove(name)
	return nil
}

// GetHead resolves a head name to its CommitRef.
func (s *Store) GetHead(ctx context.Context, name string) (CommitRef, error) {
	var ref CommitRef
	err := s.decode(ctx, headKey(name), &ref)
	return ref, err
}

// CreateBranch creates refs/heads/<name> -> ref, failing AlreadyExists
// if the name is already a head (spec §4.H `branch(name)`: "create head
// name -> HEAD; fail if exists").
func (s *Store) CreateBranch(ctx context.Context, name string, ref CommitRef) error {
	exists, err := s.backend.Contains(ctx, headKey(name))
	if err != nil {
		return err
	}
	if exists {
		return igiterr.AlreadyExists(name)
	}
	return s.SetHead(ctx, name, ref)
}

// DeleteHead removes a head by name.
func (s *Store) DeleteHead(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, headKey(name))
}

// ListHeads returns every head name under refs/heads/.
func (s *Store) ListHeads(ctx context.Context) ([]string, error) {
	return s.listNames(ctx, nsHeads)
}

// SetTag writes refs/tags/<name>.
func (s *Store) SetTag(ctx context.Context, name string, tag Tag) error {
	return s.encode(ctx, tagKey(name), tag)
}

// GetTag resolves a tag name to its Tag record.
func (s *Store) GetTag(ctx context.Context, name string) (Tag, error) {
	var tag Tag
	err := s.decode(ctx, tagKey(name), &tag)
	return tag, err
}

// DeleteTag removes a tag by name. Lightweight tags may be reassigned
// by policy (spec §3 Lifecycle); this is what a reassignment deletes
// before SetTag rewrites it, callers do the delete+set themselves.
func (s *Store) DeleteTag(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, tagKey(name))
}

// ListTags returns every tag name under refs/tags/.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	return s.listNames(ctx, nsTags)
}

// SetRemote writes refs/remotes/<name>.
func (s *Store) SetRemote(ctx context.Context, name string, remote Remote) error {
	return s.encode(ctx, remoteKey(name), remote)
}

// GetRemote resolves a remote name to its Remote record.
func (s *Store) GetRemote(ctx context.Context, name string) (Remote, error) {
	var remote Remote
	err := s.decode(ctx, remoteKey(name), &remote)
	return remote, err
}

// DeleteRemote removes a remote by name.
func (s *Store) DeleteRemote(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, remoteKey(name))
}

// ListRemotes returns every remote name under refs/remotes/.
func (s *Store) ListRemotes(ctx context.Context) ([]string, error) {
	return s.listNames(ctx, nsRemotes)
}

func (s *Store) listNames(ctx context.Context, ns string) ([]string, error) {
	keys, err := s.backend.IterKeysWithPrefix(ctx, ns+"/")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.TrimPrefix(k, ns+"/")
	}
	return out, nil
}

// ResolveCommit resolves name to a CommitRef using the ambiguous-name
// lookup policy spec §4.G mandates: heads first, then tags. A
// lightweight tag's Target is already a commit key; an annotated tag's
// Target instead names an AnnotatedTag object in odb, so resolving one
// takes the extra hop SPEC_FULL.md §3 describes ("dereferencing a Tag
// follows one extra hop through the AnnotatedTag to reach the commit")
// before returning.
func (s *Store) ResolveCommit(ctx context.Context, odb *objectdb.DB, name string) (CommitRef, error) {
	head, err := s.GetHead(ctx, name)
	if err == nil {
		return head, nil
	}
	if !errors.Is(err, igiterr.ErrNotFound) {
		return CommitRef{}, err
	}

	tag, err := s.GetTag(ctx, name)
	if err == nil {
		if !tag.Annotated {
			return CommitRef{Key: tag.Target}, nil
		}
		obj, err := odb.Get(ctx, tag.Target)
		if err != nil {
			return CommitRef{}, err
		}
		target, ok := annotatedTagTarget(obj)
		if !ok {
			return CommitRef{}, igiterr.DataCorruption(tag.Target, nil)
		}
		return CommitRef{Key: target.Key}, nil
	}
	if !errors.Is(err, igiterr.ErrNotFound) {
		return CommitRef{}, err
	}

	return CommitRef{}, igiterr.NotFound(name)
}

// annotatedTagTarget reads the "target" Reference back out of a
// pipeline-decoded AnnotatedTag map ({target, tagger, name, message} —
// repo.AnnotatedTag's wire shape). refs can't import package repo (repo
// already imports refs), so this reads just the one field it needs
// through objectdb.AsReference rather than the full typed struct.
func annotatedTagTarget(obj interface{}) (objectdb.Reference, bool) {
	m, ok := obj.(map[string]interface{})
	if !ok {
		return objectdb.Reference{}, false
	}
	return objectdb.AsReference(m["target"])
}

// ObjectTypeOf is a small convenience shared by the Commit Engine to
// read a Tag's TargetOType back into an objectdb.OType.
func ObjectTypeOf(tag Tag) objectdb.OType { return objectdb.OType(tag.TargetOType) }
