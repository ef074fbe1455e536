package tree

import (
	"context"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
)

// ToMerkle persists t into db as a "tree of refs" (spec §4.F; data
// model invariant #2: "a Merkle Tree object never contains inline blob
// bytes; every value is a Reference"): every item whose value is
// itself a Tree is first recursively written with ToMerkle; every
// other item is Put as its own blob object. Either way the item's
// value becomes a Reference before the variant-tagged item list itself
// is written as one object. Ported from trees.py's `hash_tree`/
// `hash_objects`/`_hash_object`, which recurses the same way through
// `isinstance(v, BaseTree)` but — lacking the invariant above — leaves
// non-tree leaves inline rather than hashing them as their own blob.
func ToMerkle(ctx context.Context, db *objectdb.DB, t Tree) (objectdb.Reference, error) {
	items := t.IterItems()
	wireItems := make([]interface{}, len(items))
	for i, it := range items {
		var ref objectdb.Reference
		var err error
		if sub, ok := it.Value.(Tree); ok {
			ref, err = ToMerkle(ctx, db, sub)
			ref.OType = objectdb.OTypeTree
		} else {
			ref, err = db.Put(ctx, it.Value)
		}
		if err != nil {
			return objectdb.Reference{}, err
		}
		wireItems[i] = []interface{}{it.Key, ref}
	}
	obj := map[string]interface{}{
		"$variant": t.Variant(),
		"$items":   wireItems,
	}
	return db.Put(ctx, obj)
}

// FromMerkle reverses ToMerkle: fetches ref, reads its recorded variant
// (spec §4.F "Tree variant registry") to pick the right concrete type,
// and for every item — guaranteed by invariant #2 to be a Reference —
// either recurses into a nested Tree (OTypeTree) or dereferences the
// blob to restore the original leaf value.
func FromMerkle(ctx context.Context, db *objectdb.DB, ref objectdb.Reference) (Tree, error) {
	obj, err := db.GetRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	m, ok := obj.(map[string]interface{})
	if !ok {
		return nil, igiterr.DataCorruption(ref.Key, nil)
	}
	variant, _ := m["$variant"].(string)
	rawItems, _ := m["$items"].([]interface{})

	result, err := NewVariant(variant)
	if err != nil {
		return nil, err
	}

	for _, raw := range rawItems {
		pair, ok := raw.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, igiterr.DataCorruption(ref.Key, nil)
		}
		key, _ := pair[0].(string)
		subRef, ok := objectdb.AsReference(pair[1])
		if !ok {
			return nil, igiterr.DataCorruption(ref.Key, nil)
		}

		var val interface{}
		if subRef.OType == objectdb.OTypeTree {
			val, err = FromMerkle(ctx, db, subRef)
		} else {
			val, err = db.GetRef(ctx, subRef)
			if err == nil {
				if asRef, ok := objectdb.AsReference(val); ok {
					val = asRef
				}
			}
		}
		if err != nil {
			return nil, err
		}

		if err := PutByVariant(result, key, val); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// NewVariant constructs an empty tree of the named variant — the
// construction half of the "Tree variant registry" spec §4.F names.
// Exported so the Commit Engine (package repo) can build "an empty tree
// of W's variant" per spec §4.H `add` without duplicating the registry.
func NewVariant(variant string) (Tree, error) {
	switch variant {
	case "label":
		return NewLabelTree(), nil
	case "int_interval":
		return NewIntIntervalTree(), nil
	case "time_interval":
		return NewTimeIntervalTree(), nil
	case "config":
		return NewConfigTree(), nil
	default:
		return nil, igiterr.UnsupportedVariant(variant)
	}
}

// PutByVariant inserts (key, val) into t using the native Put each
// variant exposes, parsing the label-projected key back into that
// variant's native key shape. Exported for the Commit Engine's `add`/
// `rm` (spec §4.H), which stages values into an index tree by string
// key regardless of concrete variant.
func PutByVariant(t Tree, key string, val interface{}) error {
	switch x := t.(type) {
	case *LabelTree:
		return x.Put(key, val)
	case *ConfigTree:
		return x.Put(key, val)
	case *IntIntervalTree:
		begin, end, err := parseLabel(key)
		if err != nil {
			return err
		}
		x.Put(begin, end, val)
		return nil
	case *TimeIntervalTree:
		begin, end, err := parseLabel(key)
		if err != nil {
			return err
		}
		x.Put(timeOf(begin), timeOf(end), val)
		return nil
	default:
		return igiterr.UnsupportedVariant(t.Variant())
	}
}
