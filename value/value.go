// Package value defines the bounded sum type for tree leaves (spec §9:
// "Dynamic value types"): null, bool, int, float, string, bytes, list, map,
// timestamp, plus nested trees/references. Opaque or callable values are
// rejected at Validate time so UnhashableValue is raised at `add`, not
// later during hashing.
package value

import (
	"fmt"
	"time"
)

// Value is any leaf or container the tree model is willing to store. Its
// dynamic type must be one of: nil, bool, int64, float64, string, []byte,
// []Value, map[string]Value, time.Time, or a Reference (igit's own
// pointer type, defined in package objectdb but accepted here via the
// Referencer interface to avoid an import cycle).
type Value = interface{}

// Referencer is implemented by the one non-primitive leaf kind the tree
// model allows: a pointer into the object database. Defined as an
// interface here, rather than importing the concrete type, so that
// `value` has no dependency on `objectdb`.
type Referencer interface {
	ReferenceKey() string
}

// Validate walks v recursively and rejects anything outside the bounded
// sum type: funcs, chans, unexported struct fields, etc. This is the
// UnhashableValue check and must run at `add` time (spec §4.H, §9).
func Validate(v Value) error {
	switch x := v.(type) {
	case nil, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, []byte, time.Time:
		return nil
	case Referencer:
		return nil
	case []Value:
		for i, e := range x {
			if err := Validate(e); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil
	case map[string]Value:
		for k, e := range x {
			if err := Validate(e); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported value of type %T", v)
	}
}
