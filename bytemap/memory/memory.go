// Package memory implements an in-process bytemap.ByteMap, adapted from
// the teacher's db/memory/memory.go (a sha256-keyed KvMap with a sorted
// Iterate). Here the map holds opaque byte values instead of Merkle
// nodes, and a sync.RWMutex is added since the teacher's node store was
// always guarded by MerkleTree's own lock while this one may be shared
// directly.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// Storage is an in-memory bytemap.ByteMap.
type Storage struct {
	mu sync.RWMutex
	kv map[string][]byte
}

// New returns a new, empty in-memory Storage.
func New() *Storage {
	return &Storage{kv: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, igiterr.NotFound(key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.kv[key] = cp
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}

func (s *Storage) Contains(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.kv[key]
	return ok, nil
}

func (s *Storage) IterKeys(_ context.Context) (bytemap.KeyIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return bytemap.NewSliceIterator(keys), nil
}
