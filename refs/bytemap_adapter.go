package refs

import (
	"context"
	"strings"

	"github.com/jmosbacher/igit-go/bytemap"
)

// byteMapBackend adapts a plain bytemap.ByteMap (no sharding — ref
// names are few and human-chosen, not hex content hashes) into the
// RawStore surface the Ref Store needs, implementing the one extra
// operation (prefix iteration) bytemap.ByteMap doesn't provide
// directly by filtering a full key scan.
type byteMapBackend struct {
	bm bytemap.ByteMap
}

// FromByteMap builds a RawStore backed directly by bm, the way the
// on-disk layout (spec §6) puts refs/heads, refs/tags, refs/remotes
// next to (but outside) the sharded objects/ directory.
func FromByteMap(bm bytemap.ByteMap) RawStore {
	return &byteMapBackend{bm: bm}
}

func (b *byteMapBackend) Get(ctx context.Context, key string) ([]byte, error) {
	return b.bm.Get(ctx, key)
}

func (b *byteMapBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.bm.Put(ctx, key, value)
}

func (b *byteMapBackend) Delete(ctx context.Context, key string) error {
	return b.bm.Delete(ctx, key)
}

func (b *byteMapBackend) Contains(ctx context.Context, key string) (bool, error) {
	return b.bm.Contains(ctx, key)
}

func (b *byteMapBackend) IterKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	it, err := b.bm.IterKeys(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []string
	for it.Next() {
		if k := it.Key(); strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, it.Err()
}
