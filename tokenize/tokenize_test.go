package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenIsDeterministicForPrimitives(t *testing.T) {
	assert.Equal(t, Token(int64(1)), Token(int64(1)))
	assert.Equal(t, Token("hello"), Token("hello"))
	assert.Equal(t, Token(true), Token(true))
	assert.Equal(t, Token(nil), Token(nil))
	assert.NotEqual(t, Token(int64(1)), Token(int64(2)))
	assert.NotEqual(t, Token("a"), Token("b"))
}

func TestTokenBytesNormalizeLikeString(t *testing.T) {
	assert.Equal(t, Token("hello"), Token([]byte("hello")))
	assert.NotEqual(t, Token([]byte("hello")), Token([]byte("world")))
}

type fakeTokenizable struct {
	inner string
}

func (f fakeTokenizable) IGitTokenize() interface{} {
	return map[string]interface{}{"inner": f.inner}
}

func TestTokenDispatchesToTokenizable(t *testing.T) {
	a := fakeTokenizable{inner: "x"}
	b := fakeTokenizable{inner: "x"}
	c := fakeTokenizable{inner: "y"}

	assert.Equal(t, Token(a), Token(b))
	assert.NotEqual(t, Token(a), Token(c))
	// A Tokenizable's token must equal the token of whatever its hook
	// returns, since normalize just recurses into it.
	assert.Equal(t, Token(map[string]interface{}{"inner": "x"}), Token(a))
}

type fakeHasher struct {
	items []KV
}

func (f fakeHasher) TokenizeItems() []KV { return f.items }

func TestTokenDispatchesToHasherAndIgnoresItemOrder(t *testing.T) {
	h1 := fakeHasher{items: []KV{{K: "a", V: int64(1)}, {K: "b", V: int64(2)}}}
	h2 := fakeHasher{items: []KV{{K: "b", V: int64(2)}, {K: "a", V: int64(1)}}}
	h3 := fakeHasher{items: []KV{{K: "a", V: int64(1)}, {K: "b", V: int64(3)}}}

	// normalizeTreeItems sorts by key before hashing, so insertion order
	// into the Hasher must not affect the token (spec §4.D: Tree rule).
	assert.Equal(t, Token(h1), Token(h2))
	assert.NotEqual(t, Token(h1), Token(h3))
}

func TestTokenOMapPreservesOrder(t *testing.T) {
	a := []KV{{K: "a", V: int64(1)}, {K: "b", V: int64(2)}}
	b := []KV{{K: "b", V: int64(2)}, {K: "a", V: int64(1)}}

	// Unlike the Hasher/Tree rule, a bare []KV is an *ordered* mapping
	// (normalizeOMap), so swapping entry order must change the token.
	assert.NotEqual(t, Token(a), Token(b))
	assert.Equal(t, Token(a), Token([]KV{{K: "a", V: int64(1)}, {K: "b", V: int64(2)}}))
}

func TestTokenUnorderedMapIsOrderIndependent(t *testing.T) {
	m1 := map[string]interface{}{"a": int64(1), "b": int64(2)}
	m2 := map[string]interface{}{"b": int64(2), "a": int64(1)}
	m3 := map[string]interface{}{"a": int64(1), "b": int64(3)}

	assert.Equal(t, Token(m1), Token(m2))
	assert.NotEqual(t, Token(m1), Token(m3))
}

func TestTokenSeqIsOrderDependent(t *testing.T) {
	s1 := []interface{}{int64(1), int64(2)}
	s2 := []interface{}{int64(2), int64(1)}

	assert.NotEqual(t, Token(s1), Token(s2))
	assert.Equal(t, Token(s1), Token([]interface{}{int64(1), int64(2)}))
}

type fakeStringer struct{ s string }

func (f fakeStringer) String() string { return f.s }

func TestTokenDispatchesToStringer(t *testing.T) {
	assert.Equal(t, Token("hi"), Token(fakeStringer{s: "hi"}))
	assert.NotEqual(t, Token(fakeStringer{s: "hi"}), Token(fakeStringer{s: "bye"}))
}

// unsupportedType hits the default branch: not a primitive, []byte,
// Tokenizable, Hasher, []KV, map[string]interface{}, []interface{}, or
// fmt.Stringer.
type unsupportedType struct{ _ chan int }

func TestTokenFallsBackToRandomTokenForUnsupportedTypes(t *testing.T) {
	v := unsupportedType{}
	// The fallback (spec §9 "callable or otherwise unsupported") is
	// explicitly non-deterministic: the same value tokenizes differently
	// on each call, unlike every other branch above.
	assert.NotEqual(t, Token(v), Token(v))
}

func TestEqualIsOrderIndependentForUnorderedMaps(t *testing.T) {
	a := map[string]interface{}{"x": int64(1), "y": "two"}
	b := map[string]interface{}{"y": "two", "x": int64(1)}
	c := map[string]interface{}{"x": int64(1), "y": "three"}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestEqualNestedStructures(t *testing.T) {
	a := map[string]interface{}{
		"items": []interface{}{int64(1), int64(2)},
		"meta":  map[string]interface{}{"k": "v"},
	}
	b := map[string]interface{}{
		"meta":  map[string]interface{}{"k": "v"},
		"items": []interface{}{int64(1), int64(2)},
	}
	assert.True(t, Equal(a, b))
}
