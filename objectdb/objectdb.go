// Package objectdb implements the content-addressed Object Database
// (spec §4.E): sharding map ∘ serializer ∘ compressor ∘ encryptor ∘
// byte map, composed the way the teacher composes a merkletree.Storage
// out of a backend — except here the "tree" layer sits below the ODB
// (tree.Tree.ToMerkle writes References through it) rather than above
// it, since the ODB's job is exactly the node-storage half of what the
// teacher's MerkleTree did itself.
package objectdb

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/metrics"
	"github.com/jmosbacher/igit-go/shard"
	"github.com/jmosbacher/igit-go/tokenize"
	"github.com/jmosbacher/igit-go/transform"
)

// OType tags what kind of object a Reference points at, inferred from
// the Go dynamic type handed to Put.
type OType string

const (
	OTypeBlob   OType = "blob"
	OTypeTree   OType = "tree"
	OTypeCommit OType = "commit"
	OTypeTag    OType = "tag"
)

// Reference is a typed pointer at a stored object: its content key plus
// the kind of object it names, the pair this spec's Commit/Tree wire
// records carry instead of a bare hash. Its json tags deliberately match
// the wireRefKey/wireRefOType constants below, so a Reference embedded
// directly as a typed struct field (repo.Commit.Tree, repo.Commit.Parents)
// serializes to the exact same {"$ref":...,"$otype":...} shape the
// manual tagReferences path produces for a Reference buried inside a
// generic map — AsReference recognizes both without caring which path
// produced them.
type Reference struct {
	Key   string `json:"$ref"`
	OType OType  `json:"$otype"`
}

// Wire tag keys a Reference serializes to. A Go struct value carries no
// type information through a generic serialize/deserialize round trip
// (the decoder only ever hands back primitives, maps, and slices), so
// Put tags every Reference it finds with these two keys before handing
// the object to the transform pipeline; deref recognizes the tag on the
// way back to reconstruct a Reference instead of treating it as an
// ordinary map.
const (
	wireRefKey   = "$ref"
	wireRefOType = "$otype"
)

func referenceToWire(ref Reference) map[string]interface{} {
	return map[string]interface{}{wireRefKey: ref.Key, wireRefOType: string(ref.OType)}
}

// IGitTokenize lets a Reference participate in tokenize.Token
// deterministically (tokenize.normalize dispatches on this interface
// before falling back to a random per-call token for unrecognized
// struct types), independent of how deep it's nested in the object
// being hashed.
func (r Reference) IGitTokenize() interface{} {
	return referenceToWire(r)
}

// ReferenceKey lets a Reference satisfy value.Referencer (the one
// non-primitive leaf kind the tree model's bounded value type allows),
// without value importing objectdb and creating a cycle.
func (r Reference) ReferenceKey() string { return r.Key }

// AsReference recognizes both a concrete Reference and its decoded
// wire form (a map[string]interface{} carrying "$ref"/"$otype"),
// letting callers outside this package (tree.FromMerkle) tell a stored
// Reference apart from an ordinary map after a pipeline round trip.
func AsReference(v interface{}) (Reference, bool) {
	switch x := v.(type) {
	case Reference:
		return x, true
	case map[string]interface{}:
		return referenceFromWire(x)
	default:
		return Reference{}, false
	}
}

func referenceFromWire(m map[string]interface{}) (Reference, bool) {
	key, ok := m[wireRefKey].(string)
	if !ok {
		return Reference{}, false
	}
	otype, _ := m[wireRefOType].(string)
	return Reference{Key: key, OType: OType(otype)}, true
}

// tagReferences recursively replaces every Reference value in obj with
// its wire form, so the transform pipeline never has to know about
// objectdb's types.
func tagReferences(v interface{}) interface{} {
	switch x := v.(type) {
	case Reference:
		return referenceToWire(x)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = tagReferences(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = tagReferences(val)
		}
		return out
	default:
		return v
	}
}

// Typer lets a value declare its own OType (repo.Commit,
// repo.AnnotatedTag); anything else, tree.Tree values included,
// defaults to OTypeBlob.
type Typer interface {
	ObjectType() OType
}

// DB is the Object Database: content-addressed storage over a sharded,
// transform-piped bytemap.
type DB struct {
	store    *shard.Map
	pipeline *transform.Pipeline
	verify   bool
	metrics  *metrics.Recorder
	log      log.FieldLogger
}

// New builds a DB over store using pipeline for encode/decode. When
// verify is true, Get recomputes the tokenizer hash of every decoded
// object and fails DataCorruption on mismatch.
func New(store *shard.Map, pipeline *transform.Pipeline, verify bool) *DB {
	return &DB{store: store, pipeline: pipeline, verify: verify, log: log.StandardLogger()}
}

// SetMetrics attaches a Recorder that Put/Get report through. Optional:
// a DB with no Recorder attached simply doesn't instrument itself.
func (db *DB) SetMetrics(r *metrics.Recorder) { db.metrics = r }

// SetLogger replaces the package-level logrus logger New defaults to,
// the same injected-not-global pattern the leveldb/pebble backends use,
// so a caller composing several repositories can scope each DB's log
// lines separately (e.g. WithField("repo", name)).
func (db *DB) SetLogger(l log.FieldLogger) {
	if l != nil {
		db.log = l
	}
}

// Hash computes the tokenizer content hash of obj.
func (db *DB) Hash(obj interface{}) string {
	return tokenize.Token(obj)
}

func otypeOf(obj interface{}) OType {
	if t, ok := obj.(Typer); ok {
		return t.ObjectType()
	}
	return OTypeBlob
}

// Put hashes obj, writes it if absent (idempotent by key), and returns
// a typed Reference to it.
func (db *DB) Put(ctx context.Context, obj interface{}) (Reference, error) {
	key := db.Hash(obj)
	ref := Reference{Key: key, OType: otypeOf(obj)}

	exists, err := db.store.Contains(ctx, key)
	if err != nil {
		return Reference{}, err
	}
	if exists {
		return ref, nil
	}

	data, err := db.pipeline.Encode(tagReferences(obj))
	if err != nil {
		return Reference{}, igiterr.UnhashableValue(key, err)
	}
	if err := db.store.Put(ctx, key, data); err != nil {
		return Reference{}, err
	}
	db.metrics.RecordPut(string(ref.OType))
	return ref, nil
}

// Get fetches and decodes the object stored under key. When verify is
// enabled on the DB, it recomputes the object's hash and fails
// DataCorruption on any mismatch.
func (db *DB) Get(ctx context.Context, key string) (interface{}, error) {
	data, err := db.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	obj, err := db.pipeline.Decode(data)
	if err != nil {
		db.metrics.RecordDataCorruption()
		db.log.WithError(err).WithField("key", key).Error("objectdb: decode failed, object corrupt")
		return nil, igiterr.DataCorruption(key, err)
	}
	if db.verify {
		if got := db.Hash(obj); got != key {
			db.metrics.RecordDataCorruption()
			db.log.WithField("key", key).WithField("rehash", got).Error("objectdb: hash mismatch, object corrupt")
			return nil, igiterr.DataCorruption(key, nil)
		}
	}
	db.metrics.RecordGet(string(otypeOf(obj)))
	return obj, nil
}

// GetRef dereferences ref by fetching its key.
func (db *DB) GetRef(ctx context.Context, ref Reference) (interface{}, error) {
	return db.Get(ctx, ref.Key)
}

// GetRefDeep transitively dereferences ref: if the fetched object (or
// any value nested within it) is itself a Reference or a map/slice
// containing one, each is recursively fetched until only concrete
// values remain.
func (db *DB) GetRefDeep(ctx context.Context, ref Reference) (interface{}, error) {
	obj, err := db.GetRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return db.deref(ctx, obj)
}

func (db *DB) deref(ctx context.Context, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case Reference:
		return db.GetRefDeep(ctx, x)
	case map[string]interface{}:
		if ref, ok := referenceFromWire(x); ok {
			return db.GetRefDeep(ctx, ref)
		}
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			dv, err := db.deref(ctx, val)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			dv, err := db.deref(ctx, val)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	default:
		return v, nil
	}
}

// FuzzyGet finds the unique stored key starting with prefix. It fails
// Ambiguous if more than one key matches, NotFound if none do.
func (db *DB) FuzzyGet(ctx context.Context, prefix string) (interface{}, error) {
	key, err := db.fuzzyResolve(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return db.Get(ctx, key)
}

// FuzzyResolve exposes the unique-prefix-match resolution FuzzyGet uses
// internally, returning the matched key itself rather than its decoded
// object — the last resort step of the Commit Engine's name resolution
// order (head, then tag, then fuzzy key; spec §4.H `checkout`).
func (db *DB) FuzzyResolve(ctx context.Context, prefix string) (string, error) {
	return db.fuzzyResolve(ctx, prefix)
}

func (db *DB) fuzzyResolve(ctx context.Context, prefix string) (string, error) {
	it, err := db.store.IterKeys(ctx)
	if err != nil {
		return "", err
	}
	defer it.Close()

	var match string
	found := false
	for it.Next() {
		k := it.Key()
		if strings.HasPrefix(k, prefix) {
			if found {
				return "", igiterr.Ambiguous(prefix)
			}
			match = k
			found = true
		}
	}
	if err := it.Err(); err != nil {
		return "", err
	}
	if !found {
		return "", igiterr.NotFound(prefix)
	}
	return match, nil
}

// ConsistentHash round-trips obj through Put+Get and reports whether
// its hash is preserved: hash(obj) == hash(get(put(obj))).
func (db *DB) ConsistentHash(ctx context.Context, obj interface{}) (bool, error) {
	before := db.Hash(obj)
	ref, err := db.Put(ctx, obj)
	if err != nil {
		return false, err
	}
	got, err := db.Get(ctx, ref.Key)
	if err != nil {
		return false, err
	}
	return before == db.Hash(got), nil
}
