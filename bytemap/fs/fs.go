// Package fs implements a local-filesystem bytemap.ByteMap, the root
// storage the on-disk layout (spec §6) ultimately rests on:
// `<root>/.igit/objects/XX/YY...` and `<root>/.igit/refs/<ns>/<name>`
// are both just paths under a directory once shard.Map and refs.Store
// have produced their `/`-joined keys. No pack repo wraps the local
// filesystem behind a bytemap-shaped KV interface (the teacher's own
// backends are all embedded databases: leveldb, pebble, pgx), so this
// is built directly on `os`/`path/filepath`, the same way the teacher's
// db/memory and db/leveldb backends reach for whichever storage
// primitive fits without an intervening abstraction library.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// Storage is a bytemap.ByteMap rooted at a directory on the local
// filesystem. Keys are `/`-joined relative paths (exactly the shape
// shard.Map and refs.Store already produce); each key maps to one
// regular file under root.
type Storage struct {
	root string
}

// New returns a Storage rooted at root, creating the directory if it
// does not already exist.
func New(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, igiterr.BackendIO("mkdir", err)
	}
	return &Storage{root: root}, nil
}

// path converts a bytemap key into a cleaned filesystem path rooted at
// s.root, rejecting any key that would escape root via `..` segments.
func (s *Storage) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	joined := filepath.Join(s.root, rel)
	if !strings.HasPrefix(joined, filepath.Clean(s.root)+string(filepath.Separator)) {
		return "", igiterr.BackendIO("path", os.ErrInvalid)
	}
	return joined, nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, igiterr.NotFound(key)
		}
		return nil, igiterr.BackendIO("read", err)
	}
	return data, nil
}

func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return igiterr.BackendIO("mkdir", err)
	}
	if err := os.WriteFile(p, value, 0o644); err != nil {
		return igiterr.BackendIO("write", err)
	}
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return igiterr.BackendIO("remove", err)
	}
	return nil
}

func (s *Storage) Contains(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, igiterr.BackendIO("stat", err)
	}
	return true, nil
}

func (s *Storage) IterKeys(_ context.Context) (bytemap.KeyIterator, error) {
	var keys []string
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, igiterr.BackendIO("walk", err)
	}
	return bytemap.NewSliceIterator(keys), nil
}
