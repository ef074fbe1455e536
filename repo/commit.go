// Package repo implements the Commit Engine and Merge Engine (spec
// §4.H/§4.I): the working-tree/index/HEAD state machine and the
// three-way merge algorithm built on top of the Tree Model (package
// tree), the Object Database (package objectdb), and the Ref Store
// (package refs). Grounded on the teacher's top-level MerkleTree type
// (original_source/igit's Repository/Commit classes, which play the
// analogous "one mutable handle coordinating storage + state" role the
// teacher's *MerkleTree plays over a single db.Storage).
package repo

import (
	"github.com/jmosbacher/igit-go/objectdb"
)

// User is a commit's author/committer identity (spec §6 "Commit wire
// format": "author+committer (username,email)").
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Commit is the wire record a commit operation writes to the ODB (spec
// §6 "Commit wire format"): a tree reference, zero or more parent
// references, author/committer identities, a message, and a Unix
// timestamp. Commits never declare a distinct "merge" object kind — a
// Commit with len(Parents) > 1 is a merge commit (spec §9 Design Notes,
// resolving the otype="merge" vs otype="commit" disagreement in favor
// of the latter).
type Commit struct {
	Tree      objectdb.Reference   `json:"tree"`
	Parents   []objectdb.Reference `json:"parents"`
	Author    User                 `json:"author"`
	Committer User                 `json:"committer"`
	Message   string               `json:"message"`
	Timestamp int64                `json:"timestamp"`
}

// ObjectType tags Commit as objectdb.OTypeCommit (objectdb.Typer), so
// every Reference objectdb.Put returns for a Commit is already correctly
// typed without the caller needing to override it by hand the way
// tree.ToMerkle does for its untyped tree-of-refs wire maps.
func (Commit) ObjectType() objectdb.OType { return objectdb.OTypeCommit }

// IGitTokenize gives Commit a deterministic content hash (tokenize.Token
// would otherwise fall back to a random per-call token for an
// unrecognized struct type — spec §9's "callable or otherwise
// unsupported" fallback case, which a Commit must never hit since its
// key *is* its hash).
func (c Commit) IGitTokenize() interface{} {
	parents := make([]interface{}, len(c.Parents))
	for i, p := range c.Parents {
		parents[i] = p
	}
	return map[string]interface{}{
		"tree":      c.Tree,
		"parents":   parents,
		"author":    map[string]interface{}{"username": c.Author.Username, "email": c.Author.Email},
		"committer": map[string]interface{}{"username": c.Committer.Username, "email": c.Committer.Email},
		"message":   c.Message,
		"timestamp": c.Timestamp,
	}
}

// AnnotatedTag is the object an annotated `tag` operation hashes and
// stores separately from the lightweight Tag ref record (spec §9 Open
// Question: "tag -> ref -> annotated-tag object", matching Git).
type AnnotatedTag struct {
	Target  objectdb.Reference `json:"target"`
	Tagger  User               `json:"tagger"`
	Name    string             `json:"name"`
	Message string             `json:"message"`
}

// ObjectType tags AnnotatedTag as objectdb.OTypeTag.
func (AnnotatedTag) ObjectType() objectdb.OType { return objectdb.OTypeTag }

// IGitTokenize gives AnnotatedTag a deterministic content hash, same
// reasoning as Commit.IGitTokenize.
func (t AnnotatedTag) IGitTokenize() interface{} {
	return map[string]interface{}{
		"target":  t.Target,
		"tagger":  map[string]interface{}{"username": t.Tagger.Username, "email": t.Tagger.Email},
		"name":    t.Name,
		"message": t.Message,
	}
}

// decodeUser reads a User back out of a pipeline-decoded generic map.
func decodeUser(v interface{}) User {
	m, ok := v.(map[string]interface{})
	if !ok {
		return User{}
	}
	username, _ := m["username"].(string)
	email, _ := m["email"].(string)
	return User{Username: username, Email: email}
}

// DecodeCommit reads a Commit back out of a pipeline-decoded generic
// map (objectdb.Get never returns a typed Commit directly — every
// decode path produces the same map[string]interface{}/[]interface{}
// shape the transform pipeline's Serializer.Deserialize hands back).
// Exported so callers outside package repo that already hold an
// objectdb.DB and a commit key (graphviz's DAG walk) can decode one
// without duplicating this shape.
func DecodeCommit(obj interface{}) (Commit, error) {
	m, ok := obj.(map[string]interface{})
	if !ok {
		return Commit{}, errDataCorruption("commit")
	}
	treeRef, ok := objectdb.AsReference(m["tree"])
	if !ok {
		return Commit{}, errDataCorruption("commit.tree")
	}
	var parents []objectdb.Reference
	if raw, ok := m["parents"].([]interface{}); ok {
		for _, p := range raw {
			ref, ok := objectdb.AsReference(p)
			if !ok {
				return Commit{}, errDataCorruption("commit.parents")
			}
			parents = append(parents, ref)
		}
	}
	message, _ := m["message"].(string)
	timestamp, _ := asInt64(m["timestamp"])
	return Commit{
		Tree:      treeRef,
		Parents:   parents,
		Author:    decodeUser(m["author"]),
		Committer: decodeUser(m["committer"]),
		Message:   message,
		Timestamp: timestamp,
	}, nil
}

// decodeAnnotatedTag reads an AnnotatedTag back out of a pipeline-decoded
// generic map.
func decodeAnnotatedTag(obj interface{}) (AnnotatedTag, error) {
	m, ok := obj.(map[string]interface{})
	if !ok {
		return AnnotatedTag{}, errDataCorruption("annotated_tag")
	}
	target, ok := objectdb.AsReference(m["target"])
	if !ok {
		return AnnotatedTag{}, errDataCorruption("annotated_tag.target")
	}
	name, _ := m["name"].(string)
	message, _ := m["message"].(string)
	return AnnotatedTag{
		Target:  target,
		Tagger:  decodeUser(m["tagger"]),
		Name:    name,
		Message: message,
	}, nil
}

// asInt64 handles the one numeric-decode wrinkle every generic pipeline
// decode carries: JSON numbers come back as float64, msgpack numbers
// come back already int64-shaped depending on the codec's type
// inference, so both are accepted.
func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	default:
		return 0, false
	}
}
