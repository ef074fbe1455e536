package tree

import "github.com/jmosbacher/igit-go/igiterr"

// Get looks up key in t's label-projected view regardless of concrete
// variant, by linear scan over IterItems — used by the Commit Engine's
// `add` (spec §4.H), which copies W[k] into the index by string key no
// matter which variant W actually is.
func Get(t Tree, key string) (interface{}, bool) {
	for _, item := range t.IterItems() {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// DeleteByVariant removes key from t using whichever native Delete each
// variant exposes, parsing the label-projected key back into an
// interval variant's native (begin,end) shape where needed. Exported
// alongside PutByVariant for the Commit Engine's `add`/`rm` (spec §4.H).
func DeleteByVariant(t Tree, key string) error {
	switch x := t.(type) {
	case *LabelTree:
		x.Delete(key)
		return nil
	case *ConfigTree:
		x.Delete(key)
		return nil
	case *IntIntervalTree:
		begin, end, err := parseLabel(key)
		if err != nil {
			return err
		}
		x.Delete(begin, end)
		return nil
	case *TimeIntervalTree:
		begin, end, err := parseLabel(key)
		if err != nil {
			return err
		}
		x.Delete(timeOf(begin), timeOf(end))
		return nil
	default:
		return igiterr.UnsupportedVariant(t.Variant())
	}
}
