package tree

import (
	"context"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// ParentLookup returns the parent ID of a directory (nil for a root).
//
// Stores supply a lookup bound to their open write transaction so the walk
// and the subsequent write observe the same state.
type ParentLookup func(ctx context.Context, id uint64) (*uint64, error)

// ValidateParent checks that assigning proposedParent as the parent of the
// directory id keeps the tree acyclic.
//
// id is 0 for a directory that has not been persisted yet, in which case no
// cycle is possible and only the existence of proposedParent is checked.
// A nil proposedParent (becoming a root) is always valid.
//
// The walk starts at proposedParent and follows parent links until it
// reaches a root. Encountering id fails with ErrCyclicReference; so does
// revisiting any node, which can only happen if the stored data is already
// corrupted, and guarantees the walk terminates.
func ValidateParent(ctx context.Context, id uint64, proposedParent *uint64, lookup ParentLookup) error {
	if proposedParent == nil {
		return nil
	}

	visited := make(map[uint64]struct{})
	current := *proposedParent

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if id != 0 && current == id {
			return metadata.NewCyclicReferenceError(id)
		}
		if _, seen := visited[current]; seen {
			return metadata.NewCyclicReferenceError(current)
		}
		visited[current] = struct{}{}

		parent, err := lookup(ctx, current)
		if err != nil {
			return err
		}
		if parent == nil || id == 0 {
			return nil
		}
		current = *parent
	}
}
