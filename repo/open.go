package repo

import (
	"context"
	"errors"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/tree"
)

// Open builds an Engine over odb/refStore, materializing W/I/H from
// headName if it already resolves to a commit (the persisted-repository
// case: spec §6's Config.HEAD naming a branch or a detached commit key),
// or starting a brand-new unborn branch at headName if it doesn't (the
// first-ever open of an empty root, spec §4.H's bootstrap case — the
// same state Checkout's create_branch path leaves an Engine in before
// any commit exists). emptyVariant selects W's tree.Variant when
// bootstrapping, since there is no persisted tree to read it from yet.
func Open(ctx context.Context, odb *objectdb.DB, refStore *refs.Store, headName string, emptyVariant string) (*Engine, error) {
	key, isBranch, err := resolveCommit(ctx, odb, refStore, headName)
	if err != nil {
		if errors.Is(err, igiterr.ErrNotFound) {
			w, err := tree.NewVariant(emptyVariant)
			if err != nil {
				return nil, err
			}
			return NewEngine(odb, refStore, w, headName), nil
		}
		return nil, err
	}

	obj, err := odb.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	commit, err := DecodeCommit(obj)
	if err != nil {
		return nil, err
	}
	w, err := tree.FromMerkle(ctx, odb, commit.Tree)
	if err != nil {
		return nil, err
	}

	e := NewEngine(odb, refStore, w, headName)
	idx := commit.Tree
	e.index = &idx
	if isBranch {
		e.head = headName
	} else {
		e.head = key
		e.detached = true
	}
	return e, nil
}
