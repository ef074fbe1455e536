package tree

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/btree"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/tokenize"
)

// intervalEntry is one half-open interval [begin,end) carrying an
// arbitrary value, ordered first by begin then by end so Ascend walks
// the tree in the order trees.py's `sorted(self._tree)` relied on.
// Grounded on AKJUS-bsc-erigon's use of the classic (non-generic)
// google/btree.Item API (core/state/history_reader_v3.go), the only
// ordered-index library present anywhere in the example pack.
type intervalEntry struct {
	begin, end int64
	value      interface{}
}

func (e intervalEntry) Less(other btree.Item) bool {
	o := other.(intervalEntry)
	if e.begin != o.begin {
		return e.begin < o.begin
	}
	return e.end < o.end
}

// baseIntervalTree is the shared half-open-interval index underlying
// both IntIntervalTree and TimeIntervalTree (spec §4.F "IntervalTree
// (shared logic)"); the two public types differ only in how they
// project their native key type (int64 vs. time.Time) to and from the
// int64 endpoints this index stores.
type baseIntervalTree struct {
	bt *btree.BTree
}

const btreeDegree = 32

func newBaseIntervalTree() *baseIntervalTree {
	return &baseIntervalTree{bt: btree.New(btreeDegree)}
}

func (t *baseIntervalTree) clone() *baseIntervalTree {
	out := newBaseIntervalTree()
	t.bt.Ascend(func(item btree.Item) bool {
		out.bt.ReplaceOrInsert(item)
		return true
	})
	return out
}

// overlapping returns every stored entry whose extent intersects
// [begin,end), ascending by begin. Entries within a single tree never
// overlap each other (put always chops first), so this is also the
// tree's linear scan order.
func (t *baseIntervalTree) overlapping(begin, end int64) []intervalEntry {
	var out []intervalEntry
	t.bt.Ascend(func(item btree.Item) bool {
		e := item.(intervalEntry)
		if e.begin >= end {
			return false
		}
		if e.end > begin {
			out = append(out, e)
		}
		return true
	})
	return out
}

// chop removes the portion of every existing interval that falls
// inside [begin,end), re-inserting the surviving fragments on either
// side — the "overlap-chop" policy spec §4.F names as authoritative:
// newer writes fully replace older data inside their extent.
func (t *baseIntervalTree) chop(begin, end int64) {
	for _, e := range t.overlapping(begin, end) {
		t.bt.Delete(e)
		if e.begin < begin {
			t.bt.ReplaceOrInsert(intervalEntry{e.begin, begin, e.value})
		}
		if e.end > end {
			t.bt.ReplaceOrInsert(intervalEntry{end, e.end, e.value})
		}
	}
}

func (t *baseIntervalTree) put(begin, end int64, v interface{}) {
	t.chop(begin, end)
	t.bt.ReplaceOrInsert(intervalEntry{begin, end, v})
}

// at returns every entry covering point, ascending by begin.
func (t *baseIntervalTree) at(point int64) []intervalEntry {
	return t.overlapping(point, point+1)
}

func (t *baseIntervalTree) all() []intervalEntry {
	out := make([]intervalEntry, 0, t.bt.Len())
	t.bt.Ascend(func(item btree.Item) bool {
		out = append(out, item.(intervalEntry))
		return true
	})
	return out
}

func labelOf(begin, end int64) string {
	return fmt.Sprintf("%d-%d", begin, end)
}

func (t *baseIntervalTree) iterItems() []Item {
	entries := t.all()
	out := make([]Item, len(entries))
	for i, e := range entries {
		out[i] = Item{Key: labelOf(e.begin, e.end), Value: e.value}
	}
	return out
}

func (t *baseIntervalTree) tokenizeItems() []tokenize.KV {
	entries := t.all()
	items := make([]tokenize.KV, len(entries))
	for i, e := range entries {
		items[i] = tokenize.KV{K: labelOf(e.begin, e.end), V: e.value}
	}
	return items
}

// diffIntervals implements spec §4.F's IntervalTree.diff: union both
// interval sets, split at every endpoint, merge adjacent slices that
// carry an identical patch, and emit Insert/Delete/Edit/nested-diff per
// resulting run.
func diffIntervals(a, b *baseIntervalTree) (*Diff, error) {
	bounds := map[int64]struct{}{}
	for _, e := range a.all() {
		bounds[e.begin] = struct{}{}
		bounds[e.end] = struct{}{}
	}
	for _, e := range b.all() {
		bounds[e.begin] = struct{}{}
		bounds[e.end] = struct{}{}
	}
	points := make([]int64, 0, len(bounds))
	for p := range bounds {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	type run struct {
		begin, end int64
		patch      *Patch
	}
	var runs []run
	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		av, aok := coveringValue(a, lo)
		bv, bok := coveringValue(b, lo)

		var p *Patch
		switch {
		case aok && bok:
			at, aIsTree := av.(Tree)
			bt, bIsTree := bv.(Tree)
			if aIsTree && bIsTree {
				d, err := at.Diff(bt)
				if err != nil {
					return nil, err
				}
				if !d.IsEmpty() {
					p = &Patch{Kind: PatchEdit, Nested: d}
				}
			} else if !tokenize.Equal(av, bv) {
				p = &Patch{Kind: PatchEdit, Old: av, New: bv}
			}
		case aok && !bok:
			p = &Patch{Kind: PatchDelete, Old: av}
		case !aok && bok:
			p = &Patch{Kind: PatchInsert, New: bv}
		}
		if p == nil {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].end == lo && samePatch(runs[n-1].patch, p) {
			runs[n-1].end = hi
			continue
		}
		runs = append(runs, run{begin: lo, end: hi, patch: p})
	}

	entries := map[string]*Patch{}
	for _, r := range runs {
		entries[labelOf(r.begin, r.end)] = r.patch
	}
	return &Diff{Entries: entries}, nil
}

// coveringValue returns the single value covering point in t. Within
// one tree intervals never overlap (put always chops), so at most one
// entry can match.
func coveringValue(t *baseIntervalTree, point int64) (interface{}, bool) {
	hits := t.at(point)
	if len(hits) == 0 {
		return nil, false
	}
	return hits[0].value, true
}

func samePatch(x, y *Patch) bool {
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case PatchInsert:
		return tokenize.Equal(x.New, y.New)
	case PatchDelete:
		return tokenize.Equal(x.Old, y.Old)
	case PatchEdit:
		if (x.Nested == nil) != (y.Nested == nil) {
			return false
		}
		if x.Nested != nil {
			return false // nested diffs never merge across runs
		}
		return tokenize.Equal(x.Old, y.Old) && tokenize.Equal(x.New, y.New)
	}
	return false
}

func applyIntervalDiff(t *baseIntervalTree, d *Diff) (*baseIntervalTree, error) {
	out := t.clone()
	if d == nil {
		return out, nil
	}
	for k, p := range d.Entries {
		begin, end, err := parseLabel(k)
		if err != nil {
			return nil, err
		}
		switch p.Kind {
		case PatchInsert:
			out.put(begin, end, p.New)
		case PatchDelete:
			out.chop(begin, end)
		case PatchEdit:
			if p.Nested != nil {
				cur, ok := coveringValue(out, begin)
				ct, isTree := cur.(Tree)
				if !ok || !isTree {
					return nil, igiterr.UnsupportedVariant(fmt.Sprintf("nested interval edit on non-tree key %q", k))
				}
				nt, err := ct.Apply(p.Nested)
				if err != nil {
					return nil, err
				}
				out.put(begin, end, nt)
			} else {
				out.put(begin, end, p.New)
			}
		default:
			return nil, igiterr.UnsupportedVariant(fmt.Sprintf("patch kind %q", p.Kind))
		}
	}
	return out, nil
}

func parseLabel(label string) (begin, end int64, err error) {
	n, scanErr := fmt.Sscanf(label, "%d-%d", &begin, &end)
	if scanErr != nil || n != 2 {
		return 0, 0, igiterr.UnsupportedVariant("malformed interval label " + label)
	}
	return begin, end, nil
}

// IntIntervalTree is the half-open integer interval variant (spec
// §4.F), ported from trees.py's IntervalGroup with tuple (begin,end)
// keys flattened to explicit Put/Get/GetRange parameters since Go has
// no tuple-dispatching __getitem__ to overload.
type IntIntervalTree struct {
	base *baseIntervalTree
}

func NewIntIntervalTree() *IntIntervalTree {
	return &IntIntervalTree{base: newBaseIntervalTree()}
}

func (t *IntIntervalTree) Variant() string { return "int_interval" }

// Put chops any existing overlap in [begin,end) and inserts (begin,end,v).
func (t *IntIntervalTree) Put(begin, end int64, v interface{}) {
	t.base.put(begin, end, v)
}

// GetPoint returns every value whose interval contains point, ascending
// by begin; when there is a single match it is returned unwrapped
// (spec §4.F: "if a single match, return it unwrapped").
func (t *IntIntervalTree) GetPoint(point int64) interface{} {
	hits := t.base.at(point)
	if len(hits) == 1 {
		return hits[0].value
	}
	if len(hits) == 0 {
		return nil
	}
	out := make([]interface{}, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}

// ClippedInterval is one (possibly truncated) interval returned by
// GetRange.
type ClippedInterval struct {
	Begin, End int64
	Value      interface{}
}

// GetRange returns every interval overlapping [begin,end), clipped to
// that window.
func (t *IntIntervalTree) GetRange(begin, end int64) []ClippedInterval {
	hits := t.base.overlapping(begin, end)
	out := make([]ClippedInterval, len(hits))
	for i, h := range hits {
		b, e := h.begin, h.end
		if b < begin {
			b = begin
		}
		if e > end {
			e = end
		}
		out[i] = ClippedInterval{Begin: b, End: e, Value: h.value}
	}
	return out
}

func (t *IntIntervalTree) Delete(begin, end int64) { t.base.chop(begin, end) }

func (t *IntIntervalTree) Contains(key string) bool {
	begin, end, err := parseLabel(key)
	if err != nil {
		return false
	}
	return coveringValueExact(t.base, begin, end)
}

// coveringValueExact reports whether an entry with exactly [begin,end)
// is stored (used by the generic Tree.Contains, which is keyed by
// label rather than by point).
func coveringValueExact(t *baseIntervalTree, begin, end int64) bool {
	for _, e := range t.all() {
		if e.begin == begin && e.end == end {
			return true
		}
	}
	return false
}

func (t *IntIntervalTree) IterItems() []Item { return t.base.iterItems() }

func (t *IntIntervalTree) Diff(other Tree) (*Diff, error) {
	o, ok := other.(*IntIntervalTree)
	if !ok {
		return nil, igiterr.UnsupportedVariant("IntIntervalTree.Diff:" + other.Variant())
	}
	return diffIntervals(t.base, o.base)
}

func (t *IntIntervalTree) Apply(d *Diff) (Tree, error) {
	base, err := applyIntervalDiff(t.base, d)
	if err != nil {
		return nil, err
	}
	return &IntIntervalTree{base: base}, nil
}

func (t *IntIntervalTree) TokenizeItems() []tokenize.KV { return t.base.tokenizeItems() }

// TimeIntervalTree is the timestamp-keyed interval variant (spec
// §4.F): identical semantics to IntIntervalTree, with time.Time
// endpoints projected to int64 nanoseconds for storage in the shared
// index.
type TimeIntervalTree struct {
	base *baseIntervalTree
}

func NewTimeIntervalTree() *TimeIntervalTree {
	return &TimeIntervalTree{base: newBaseIntervalTree()}
}

func (t *TimeIntervalTree) Variant() string { return "time_interval" }

func (t *TimeIntervalTree) Put(begin, end time.Time, v interface{}) {
	t.base.put(begin.UnixNano(), end.UnixNano(), v)
}

func (t *TimeIntervalTree) GetPoint(at time.Time) interface{} {
	hits := t.base.at(at.UnixNano())
	if len(hits) == 1 {
		return hits[0].value
	}
	if len(hits) == 0 {
		return nil
	}
	out := make([]interface{}, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}

// ClippedTimeInterval is one (possibly truncated) interval returned by
// GetRange on a TimeIntervalTree.
type ClippedTimeInterval struct {
	Begin, End time.Time
	Value      interface{}
}

func (t *TimeIntervalTree) GetRange(begin, end time.Time) []ClippedTimeInterval {
	hits := t.base.overlapping(begin.UnixNano(), end.UnixNano())
	out := make([]ClippedTimeInterval, len(hits))
	for i, h := range hits {
		b, e := h.begin, h.end
		bn, en := begin.UnixNano(), end.UnixNano()
		if b < bn {
			b = bn
		}
		if e > en {
			e = en
		}
		out[i] = ClippedTimeInterval{Begin: time.Unix(0, b).UTC(), End: time.Unix(0, e).UTC(), Value: h.value}
	}
	return out
}

func (t *TimeIntervalTree) Delete(begin, end time.Time) {
	t.base.chop(begin.UnixNano(), end.UnixNano())
}

func (t *TimeIntervalTree) Contains(key string) bool {
	begin, end, err := parseLabel(key)
	if err != nil {
		return false
	}
	return coveringValueExact(t.base, begin, end)
}

func (t *TimeIntervalTree) IterItems() []Item { return t.base.iterItems() }

func (t *TimeIntervalTree) Diff(other Tree) (*Diff, error) {
	o, ok := other.(*TimeIntervalTree)
	if !ok {
		return nil, igiterr.UnsupportedVariant("TimeIntervalTree.Diff:" + other.Variant())
	}
	return diffIntervals(t.base, o.base)
}

func (t *TimeIntervalTree) Apply(d *Diff) (Tree, error) {
	base, err := applyIntervalDiff(t.base, d)
	if err != nil {
		return nil, err
	}
	return &TimeIntervalTree{base: base}, nil
}

func (t *TimeIntervalTree) TokenizeItems() []tokenize.KV { return t.base.tokenizeItems() }
