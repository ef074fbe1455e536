package repo

import (
	"context"
	"errors"

	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
)

// resolveCommit implements the full name-resolution order spec §4.H's
// `checkout` names: head, then tag, then fuzzy key. isBranch reports
// whether name resolved to a live head (so the caller can track HEAD as
// the branch name rather than a detached commit key). A lightweight
// tag's Target is already a commit key; an annotated tag's Target
// instead names a stored AnnotatedTag object (written by Engine.Tag in
// repo/engine.go), so resolving one takes the extra hop through it SPEC_FULL.md §3
// describes before this function can return a commit key.
func resolveCommit(ctx context.Context, odb *objectdb.DB, rs *refs.Store, name string) (key string, isBranch bool, err error) {
	head, err := rs.GetHead(ctx, name)
	if err == nil {
		return head.Key, true, nil
	}
	if !errors.Is(err, igiterr.ErrNotFound) {
		return "", false, err
	}

	tag, err := rs.GetTag(ctx, name)
	if err == nil {
		if !tag.Annotated {
			return tag.Target, false, nil
		}
		obj, err := odb.Get(ctx, tag.Target)
		if err != nil {
			return "", false, err
		}
		at, err := decodeAnnotatedTag(obj)
		if err != nil {
			return "", false, err
		}
		return at.Target.Key, false, nil
	}
	if !errors.Is(err, igiterr.ErrNotFound) {
		return "", false, err
	}

	key, err = odb.FuzzyResolve(ctx, name)
	if err != nil {
		return "", false, err
	}
	return key, false, nil
}
