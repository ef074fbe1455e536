// Package tokenize implements the canonical content hash (spec §4.D): a
// single-dispatch normalization of any supported value into a stable
// string, hashed with md5 into a lowercase hex token. This is the single
// source of truth for "is X equal to Y?" inside the ODB and for tree
// equality, ported from original_source/igit/tokenize.py (itself derived
// from dask.base.tokenize).
package tokenize

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Tokenizable lets a value override normalization with a custom hook,
// mirroring the Python `__igit_tokenize__` dunder lookup in tokenize.py.
type Tokenizable interface {
	IGitTokenize() interface{}
}

// Hasher lets a value provide pre-sorted key/value pairs for hashing —
// implemented by tree.Tree so that trees participate in tokenization
// without this package importing `tree` (spec §4.D: "Tree: [(k,
// normalize(v)) for k,v in sorted(items)] — variant does NOT affect the
// token").
type Hasher interface {
	TokenizeItems() []KV
}

// KV is a single normalized key/value pair, used both for maps/ordered
// maps and for Hasher.TokenizeItems.
type KV struct {
	K interface{}
	V interface{}
}

// Token computes the deterministic content hash of v: md5(stringify(normalize(v))).
func Token(v interface{}) string {
	n := normalize(v)
	s := stringify(n)
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether a and b tokenize identically.
func Equal(a, b interface{}) bool {
	return Token(a) == Token(b)
}

// normalize reduces v to a canonical, order-independent structure per the
// rules in spec §4.D. The result is always one of: a primitive, a
// []interface{} tagged "seq" (ordered sequence) or "omap" (ordered
// mapping), an untagged []interface{} of pairs (unordered map or tree),
// or a nested combination thereof — never the original container type.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string:
		return x
	case []byte:
		return string(x) // bytes normalize like a primitive string of bytes
	case Tokenizable:
		return normalize(x.IGitTokenize())
	case Hasher:
		return normalizeTreeItems(x.TokenizeItems())
	case []KV: // already-extracted ordered mapping (omap)
		return normalizeOMap(x)
	case map[string]interface{}:
		return normalizeUnorderedMap(x)
	case []interface{}:
		return normalizeSeq(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fallbackToken()
	}
}

// normalizeSeq handles ordered sequences: ("seq", [normalize(e) ...]).
func normalizeSeq(seq []interface{}) interface{} {
	out := make([]interface{}, len(seq))
	for i, e := range seq {
		out[i] = normalize(e)
	}
	return []interface{}{"seq", out}
}

// normalizeUnorderedMap handles unordered mappings: normalize(sorted(items, key=stringify)).
func normalizeUnorderedMap(m map[string]interface{}) interface{} {
	items := make([]KV, 0, len(m))
	for k, v := range m {
		items = append(items, KV{K: k, V: v})
	}
	sort.Slice(items, func(i, j int) bool {
		return stringify(items[i]) < stringify(items[j])
	})
	out := make([]interface{}, len(items))
	for i, kv := range items {
		out[i] = normalize([]interface{}{kv.K, kv.V})
	}
	return out
}

// normalizeOMap handles ordered mappings (insertion order preserved):
// ("omap", [normalize(item) ...]).
func normalizeOMap(items []KV) interface{} {
	out := make([]interface{}, len(items))
	for i, kv := range items {
		out[i] = normalize([]interface{}{kv.K, kv.V})
	}
	return []interface{}{"omap", out}
}

// normalizeTreeItems handles the Tree rule: sort by key, normalize each
// value. The variant name is deliberately NOT mixed in, so equal contents
// across variants hash equally (spec §4.D).
func normalizeTreeItems(items []KV) interface{} {
	sorted := make([]KV, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return stringify(sorted[i].K) < stringify(sorted[j].K)
	})
	out := make([]interface{}, len(sorted))
	for i, kv := range sorted {
		out[i] = []interface{}{kv.K, normalize(kv.V)}
	}
	return out
}

// fallbackToken implements the "callable or otherwise unsupported" rule:
// a fresh, non-deterministic token. Correct (never collides, never
// panics) but breaks reproducibility across calls — see spec §9.
func fallbackToken() string {
	return uuid.NewString()
}

// stringify renders a normalized value into a string whose content is a
// deterministic function of the value's structure, used as the payload
// hashed by Token. It intentionally does not need to match Python's
// `str(tuple(...))` byte-for-byte: it only needs to be stable within this
// implementation, which it is, since normalize() never depends on map
// iteration order.
func stringify(v interface{}) string {
	var b strings.Builder
	writeStringify(&b, v)
	return b.String()
}

func writeStringify(b *strings.Builder, v interface{}) {
	switch x := v.(type) {
	case nil:
		b.WriteString("None")
	case string:
		b.WriteByte('\'')
		b.WriteString(x)
		b.WriteByte('\'')
	case []interface{}:
		b.WriteByte('(')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeStringify(b, e)
		}
		b.WriteByte(')')
	case KV:
		writeStringify(b, []interface{}{x.K, x.V})
	case float64:
		b.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		fmt.Fprintf(b, "%v", x)
	}
}
