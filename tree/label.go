package tree

import (
	"strings"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/tokenize"
)

// pathSeps lists every path-separator character a leaf key must not
// contain (spec.md:36 "Keys are non-empty, path-separator-free
// strings"): "." is what Diff.EditLeafPaths joins nested diff paths
// with (tree.go), and "/" is ToPaths/FromPaths's default join separator
// (tree.go, paths.go) — a key containing either would silently corrupt
// that path's flatten/rebuild round trip or fold a sibling key into the
// wrong nesting level instead of failing fast here.
var pathSeps = []string{".", "/"}

// validateKey rejects an empty key or one containing a path separator,
// mirroring trees.py's key guard in LabelGroup.__setitem__.
func validateKey(key string) error {
	if key == "" {
		return igiterr.UnsupportedVariant("key must be non-empty")
	}
	for _, sep := range pathSeps {
		if strings.Contains(key, sep) {
			return igiterr.UnsupportedVariant("key must not contain " + sep + ": " + key)
		}
	}
	return nil
}

// LabelTree is a mapping from non-empty, path-separator-free string
// keys to values (spec §4.F), ported from trees.py's LabelGroup — a
// thin dict wrapper there, a guarded map here since Go has no
// MutableMapping base to inherit the contract from.
type LabelTree struct {
	items map[string]interface{}
}

// NewLabelTree returns an empty LabelTree.
func NewLabelTree() *LabelTree {
	return &LabelTree{items: map[string]interface{}{}}
}

func (t *LabelTree) Variant() string { return "label" }

// Get returns the value at key and whether it was present.
func (t *LabelTree) Get(key string) (interface{}, bool) {
	v, ok := t.items[key]
	return v, ok
}

// Put sets key to v, overwriting any existing value. Fails
// UnsupportedVariant if key is empty or contains a path separator
// (spec.md:36).
func (t *LabelTree) Put(key string, v interface{}) error {
	if err := validateKey(key); err != nil {
		return err
	}
	t.items[key] = v
	return nil
}

// Delete removes key, a no-op if absent.
func (t *LabelTree) Delete(key string) {
	delete(t.items, key)
}

func (t *LabelTree) Contains(key string) bool {
	_, ok := t.items[key]
	return ok
}

// IterItems returns every entry sorted by key.
func (t *LabelTree) IterItems() []Item {
	keys := sortedKeys(t.items)
	out := make([]Item, len(keys))
	for i, k := range keys {
		out[i] = Item{Key: k, Value: t.items[k]}
	}
	return out
}

func (t *LabelTree) Diff(other Tree) (*Diff, error) {
	o, ok := other.(*LabelTree)
	if !ok {
		return nil, igiterr.UnsupportedVariant("LabelTree.Diff:" + other.Variant())
	}
	return buildDiff(t.items, o.items)
}

func (t *LabelTree) Apply(d *Diff) (Tree, error) {
	m, err := applyDiff(t.items, d)
	if err != nil {
		return nil, err
	}
	return &LabelTree{items: m}, nil
}

func (t *LabelTree) TokenizeItems() []tokenize.KV {
	return tokenizeItemsFromMap(t.items)
}

// Clone returns a shallow copy; nested Tree values are shared, not
// deep-copied (matching the copy-on-write discipline the Commit Engine
// relies on — a tree is never mutated after it has been hashed).
func (t *LabelTree) Clone() *LabelTree {
	m := make(map[string]interface{}, len(t.items))
	for k, v := range t.items {
		m[k] = v
	}
	return &LabelTree{items: m}
}
