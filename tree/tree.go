// Package tree implements the Tree Model of spec §4.F: a family of
// typed trees (LabelTree, IntIntervalTree, TimeIntervalTree, ConfigTree)
// sharing one diff/merge/hash contract, ported from
// original_source/igit/trees.py's BaseTree/LabelGroup/IntervalGroup/
// ConfigGroup hierarchy. Python used duck-typed Mapping protocols and a
// single dynamically-typed `diff` walking `.items()`; Go expresses the
// same idea as a small Tree interface plus generic Patch/Diff machinery
// shared by every variant, with each variant additionally exposing its
// own natively-typed accessors (string keys for LabelTree, (begin,end)
// pairs for the interval variants) the way the Python classes expose
// `__getitem__` overloaded on key shape.
package tree

import (
	"fmt"
	"sort"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/tokenize"
)

// Item is one entry of a tree's label-projected view: the string key
// every variant can produce regardless of its native key type (a plain
// label for LabelTree, "begin-end" for the interval variants), used by
// Diff, hashing, and path projection.
type Item struct {
	Key   string
	Value interface{}
}

// PatchKind discriminates the three patch shapes spec §4.F names.
type PatchKind string

const (
	PatchInsert PatchKind = "insert"
	PatchDelete PatchKind = "delete"
	PatchEdit   PatchKind = "edit"
)

// Patch describes how a single key changed between two trees. Nested is
// set instead of Old/New when both sides of an Edit are themselves
// Tree values — the diff recurses rather than replacing the subtree
// wholesale.
type Patch struct {
	Kind   PatchKind
	Old    interface{}
	New    interface{}
	Nested *Diff
}

// Diff is a mapping of label-projected keys to the patch that produces
// the right-hand tree from the left-hand one.
type Diff struct {
	Entries map[string]*Patch
}

// IsEmpty reports whether the diff carries no changes at all.
func (d *Diff) IsEmpty() bool {
	return d == nil || len(d.Entries) == 0
}

// EditLeafPaths flattens every Edit patch reachable from d — recursing
// through Nested diffs and joining keys with "." — into a sorted list
// of dotted paths. The Merge Engine (spec §4.I) intersects the edit-leaf
// sets of two diffs against a common base to detect conflicts.
func (d *Diff) EditLeafPaths() []string {
	var out []string
	var walk func(prefix string, dd *Diff)
	walk = func(prefix string, dd *Diff) {
		if dd == nil {
			return
		}
		for k, p := range dd.Entries {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if p.Nested != nil {
				walk(path, p.Nested)
				continue
			}
			if p.Kind == PatchEdit {
				out = append(out, path)
			}
		}
	}
	walk("", d)
	sort.Strings(out)
	return out
}

// Tree is the contract every variant satisfies (spec §4.F): a
// label-projected item view, diff/apply over that view, and
// participation in tokenize.Token via TokenizeItems.
type Tree interface {
	// Variant is the stable name recorded in Merkle serialization
	// (spec §4.F "Tree variant registry") so FromMerkle can restore the
	// right concrete type. FromPaths does not use it: it always rebuilds
	// LabelTree nodes.
	Variant() string
	// IterItems returns every entry as a label-projected Item: sorted by
	// Key for LabelTree and ConfigTree, by interval (begin, then end) for
	// the interval variants.
	IterItems() []Item
	// Contains reports whether the label-projected key exists.
	Contains(key string) bool
	// Diff computes the patch set that turns this tree into other.
	// other must be the same concrete variant.
	Diff(other Tree) (*Diff, error)
	// Apply returns a new tree equal to this one with d's patches
	// applied.
	Apply(d *Diff) (Tree, error)
	// TokenizeItems exposes this tree's contents to tokenize.Token via
	// the tokenize.Hasher hook (spec §4.D: tree equality is by
	// tokenizer hash, variant-independent).
	TokenizeItems() []tokenize.KV
}

// ToPaths flattens t into a map from sep-joined paths (sep defaults to
// "/") to leaf values,
// recursing into nested Tree values — the inverse of FromPaths, used to
// persist a tree to a hierarchical backend (spec §4.F).
func ToPaths(t Tree, sep string) map[string]interface{} {
	if sep == "" {
		sep = "/"
	}
	out := map[string]interface{}{}
	for _, item := range t.IterItems() {
		if sub, ok := item.Value.(Tree); ok {
			for k, v := range ToPaths(sub, sep) {
				out[item.Key+sep+k] = v
			}
			continue
		}
		out[item.Key] = item.Value
	}
	return out
}

// buildDiff computes a label-projected Diff between two flat maps,
// recursing into nested Tree values and falling back to tokenizer
// equality for leaves — the common core every variant's Diff delegates
// to after projecting its native keys to strings.
func buildDiff(a, b map[string]interface{}) (*Diff, error) {
	entries := map[string]*Patch{}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			entries[k] = &Patch{Kind: PatchDelete, Old: av}
			continue
		}
		at, aIsTree := av.(Tree)
		bt, bIsTree := bv.(Tree)
		if aIsTree && bIsTree {
			d, err := at.Diff(bt)
			if err != nil {
				return nil, err
			}
			if !d.IsEmpty() {
				entries[k] = &Patch{Kind: PatchEdit, Nested: d}
			}
			continue
		}
		if !tokenize.Equal(av, bv) {
			entries[k] = &Patch{Kind: PatchEdit, Old: av, New: bv}
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			entries[k] = &Patch{Kind: PatchInsert, New: bv}
		}
	}
	return &Diff{Entries: entries}, nil
}

// applyDiff reverses buildDiff: given the original flat map and a Diff
// produced from it, returns the patched map.
func applyDiff(a map[string]interface{}, d *Diff) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(a))
	for k, v := range a {
		out[k] = v
	}
	if d == nil {
		return out, nil
	}
	for k, p := range d.Entries {
		switch p.Kind {
		case PatchInsert:
			out[k] = p.New
		case PatchDelete:
			delete(out, k)
		case PatchEdit:
			if p.Nested != nil {
				cur, ok := out[k].(Tree)
				if !ok {
					return nil, igiterr.UnsupportedVariant(fmt.Sprintf("nested edit on non-tree key %q", k))
				}
				nt, err := cur.Apply(p.Nested)
				if err != nil {
					return nil, err
				}
				out[k] = nt
			} else {
				out[k] = p.New
			}
		default:
			return nil, igiterr.UnsupportedVariant(fmt.Sprintf("patch kind %q", p.Kind))
		}
	}
	return out, nil
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tokenizeItemsFromMap builds the []tokenize.KV a map-backed tree
// exposes through Hasher.
func tokenizeItemsFromMap(m map[string]interface{}) []tokenize.KV {
	keys := sortedKeys(m)
	items := make([]tokenize.KV, len(keys))
	for i, k := range keys {
		items[i] = tokenize.KV{K: k, V: m[k]}
	}
	return items
}
