package tree

import (
	"sort"
	"time"

	"github.com/jmosbacher/igit-go/igiterr"
)

func timeOf(nanos int64) time.Time { return time.Unix(0, nanos).UTC() }

// intervalChild is implemented by the two interval tree variants
// ConfigTree accepts as children — the narrow slice of IntIntervalTree/
// TimeIntervalTree's surface boundaries/split_on_boundaries actually
// needs, so ConfigTree doesn't care which concrete variant is plugged
// in (a ConfigTree over ranges of wall-clock time works identically to
// one over integer sample indices).
type intervalChild interface {
	Tree
	rangeValues(begin, end int64) []ClippedInterval
}

func (t *IntIntervalTree) rangeValues(begin, end int64) []ClippedInterval {
	return t.GetRange(begin, end)
}

func (t *TimeIntervalTree) rangeValues(begin, end int64) []ClippedInterval {
	hits := t.GetRange(timeOf(begin), timeOf(end))
	out := make([]ClippedInterval, len(hits))
	for i, h := range hits {
		out[i] = ClippedInterval{Begin: h.Begin.UnixNano(), End: h.End.UnixNano(), Value: h.Value}
	}
	return out
}

// ConfigTree is a LabelTree specialization whose direct children must
// be interval trees (spec §4.F), grounded on trees.py's ConfigGroup —
// a LabelGroup subclass that rejects any child assignment which is a
// BaseTree but not an IntervalGroup, and adds `selection`/
// `chunk_interval` for projecting several overlapping parameter
// timelines onto their joint refinement.
type ConfigTree struct {
	*LabelTree
}

func NewConfigTree() *ConfigTree {
	return &ConfigTree{LabelTree: NewLabelTree()}
}

func (t *ConfigTree) Variant() string { return "config" }

// Put rejects any Tree value that is not an interval child, mirroring
// ConfigGroup.__setitem__'s TypeError guard.
func (t *ConfigTree) Put(key string, v interface{}) error {
	if tr, ok := v.(Tree); ok {
		if _, ok := tr.(intervalChild); !ok {
			return igiterr.UnsupportedVariant("ConfigTree child must be an interval tree, got " + tr.Variant())
		}
	}
	return t.LabelTree.Put(key, v)
}

func (t *ConfigTree) Diff(other Tree) (*Diff, error) {
	o, ok := other.(*ConfigTree)
	if !ok {
		return nil, igiterr.UnsupportedVariant("ConfigTree.Diff:" + other.Variant())
	}
	return t.LabelTree.Diff(o.LabelTree)
}

func (t *ConfigTree) Apply(d *Diff) (Tree, error) {
	applied, err := t.LabelTree.Apply(d)
	if err != nil {
		return nil, err
	}
	return &ConfigTree{LabelTree: applied.(*LabelTree)}, nil
}

// tagged is one interval clipped to the query window and labeled with
// the parameter (child key) it came from — trees.py's
// `ConfigGroup.mergable` tuple-tagging step.
type tagged struct {
	begin, end int64
	param      string
	value      interface{}
}

// Boundaries returns, for each selected key (all children when keys is
// empty), the list of that child's intervals clipped to [begin,end)
// (spec §4.F `boundaries`).
func (t *ConfigTree) Boundaries(begin, end int64, keys ...string) (map[string][]ClippedInterval, error) {
	if len(keys) == 0 {
		for _, item := range t.IterItems() {
			keys = append(keys, item.Key)
		}
	}
	out := make(map[string][]ClippedInterval, len(keys))
	for _, k := range keys {
		v, ok := t.Get(k)
		if !ok {
			return nil, igiterr.NotFound(k)
		}
		ic, ok := v.(intervalChild)
		if !ok {
			out[k] = []ClippedInterval{{Begin: begin, End: end, Value: v}}
			continue
		}
		out[k] = ic.rangeValues(begin, end)
	}
	return out, nil
}

// SplitOnBoundaries projects every selected child's timeline onto
// their joint refinement: splitting at every endpoint across all
// selected children and grouping the resulting per-parameter values by
// the shared (begin,end) slice they fall in (spec §4.F
// `split_on_boundaries`, ported from ConfigGroup.selection +
// chunk_interval).
func (t *ConfigTree) SplitOnBoundaries(begin, end int64, keys ...string) (map[[2]int64]map[string]interface{}, error) {
	bounded, err := t.Boundaries(begin, end, keys...)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		for k := range bounded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	var tags []tagged
	boundSet := map[int64]struct{}{begin: {}, end: {}}
	for _, k := range keys {
		for _, iv := range bounded[k] {
			tags = append(tags, tagged{begin: iv.Begin, end: iv.End, param: k, value: iv.Value})
			boundSet[iv.Begin] = struct{}{}
			boundSet[iv.End] = struct{}{}
		}
	}
	points := make([]int64, 0, len(boundSet))
	for p := range boundSet {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	out := map[[2]int64]map[string]interface{}{}
	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		slice := map[string]interface{}{}
		for _, tg := range tags {
			if tg.begin <= lo && hi <= tg.end {
				slice[tg.param] = tg.value
			}
		}
		if len(slice) > 0 {
			out[[2]int64{lo, hi}] = slice
		}
	}
	return out, nil
}
