// Package dump implements a flat, history-independent leaf export/
// import format, adapted from the teacher's dump/dump.go
// (`DumpLeafs`/`ImportDumpedLeafs`): there, every (index, value) leaf
// pair under a Merkle root is concatenated into one fixed-width byte
// buffer so a tree's contents can move between stores without carrying
// any commit/ref history along. Here the leaves aren't fixed-size
// hashes but arbitrary structured values (spec §3's Value shape), so
// the flat buffer becomes a flat list of {key, value} entries pushed
// through the same Transform Pipeline (transform.Pipeline.Encode/Decode)
// the ODB and Ref Store already use to turn objects into portable
// bytes — the dump blob is exactly one more pipeline-encoded object,
// just never written to a ByteMap.
package dump

import (
	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/transform"
	"github.com/jmosbacher/igit-go/tree"
)

// leafEntry is the wire shape of one dumped leaf: a label-projected
// key (tree.Item.Key) paired with its value.
type leafEntry struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// DumpLeafs serializes every leaf of t, independent of which ODB or
// Ref Store (if any) t was loaded from — the same "just the content"
// contract the teacher's DumpLeafs gives for a *MerkleTree.
func DumpLeafs(pipeline *transform.Pipeline, t tree.Tree) ([]byte, error) {
	items := t.IterItems()
	entries := make([]leafEntry, len(items))
	for i, it := range items {
		entries[i] = leafEntry{Key: it.Key, Value: it.Value}
	}
	return pipeline.Encode(entries)
}

// ImportDumpedLeafs decodes a blob produced by DumpLeafs and writes
// every entry into dst by its native variant accessor (tree.PutByVariant),
// the way the teacher's ImportDumpedLeafs replays each parsed (k,v) pair
// through mt.Add.
func ImportDumpedLeafs(pipeline *transform.Pipeline, data []byte, dst tree.Tree) error {
	decoded, err := pipeline.Decode(data)
	if err != nil {
		return err
	}
	rawEntries, ok := decoded.([]interface{})
	if !ok {
		return igiterr.DataCorruption("dump", nil)
	}
	for _, raw := range rawEntries {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return igiterr.DataCorruption("dump", nil)
		}
		key, ok := m["key"].(string)
		if !ok {
			return igiterr.DataCorruption("dump", nil)
		}
		if err := tree.PutByVariant(dst, key, m["value"]); err != nil {
			return err
		}
	}
	return nil
}
