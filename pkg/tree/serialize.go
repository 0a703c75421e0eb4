package tree

import (
	"context"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// DefaultMaxDepth is used when neither configuration nor the request
// specifies a depth.
const DefaultMaxDepth = 3

// Source is the read interface the serializer walks. metadata.Reader
// satisfies it.
type Source interface {
	GetDirectory(ctx context.Context, id uint64) (*metadata.Directory, error)
	ListSubdirectories(ctx context.Context, id uint64) ([]*metadata.Directory, error)
	ListFiles(ctx context.Context, directoryID uint64) ([]*metadata.File, error)
}

// Node is the nested representation of a directory.
//
// Subdirectories and Files are never nil so they always encode as JSON
// arrays.
type Node struct {
	ID             uint64           `json:"id"`
	Name           string           `json:"name"`
	Parent         *uint64          `json:"parent"`
	Subdirectories []Node           `json:"subdirectories"`
	Files          []*metadata.File `json:"files"`
}

// walkContext is passed by value into every recursive step. Each step hands
// its children a fresh context with depth+1 and its own ID added to visited,
// so siblings never observe each other's state.
type walkContext struct {
	maxDepth int
	depth    int
	visited  *visitedSet
}

// visitedSet is a persistent linked set: adding an ID returns a new set and
// leaves the receiver unchanged.
type visitedSet struct {
	id   uint64
	next *visitedSet
}

func (v *visitedSet) contains(id uint64) bool {
	for n := v; n != nil; n = n.next {
		if n.id == id {
			return true
		}
	}
	return false
}

func (v *visitedSet) with(id uint64) *visitedSet {
	return &visitedSet{id: id, next: v}
}

// Serialize builds the nested representation of directory id.
//
// Subdirectories are expanded until maxDepth levels have been descended;
// at that boundary, and for any directory already seen on the current path,
// the subdirectory list is empty. Files are always listed. Children appear
// in the order the source returns them.
//
// Returns ErrNotFound if id does not exist. A negative maxDepth is treated
// as 0.
func Serialize(ctx context.Context, src Source, id uint64, maxDepth int) (*Node, error) {
	dir, err := src.GetDirectory(ctx, id)
	if err != nil {
		return nil, err
	}
	if maxDepth < 0 {
		maxDepth = 0
	}

	node, err := serializeDirectory(ctx, src, dir, walkContext{maxDepth: maxDepth})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func serializeDirectory(ctx context.Context, src Source, dir *metadata.Directory, wc walkContext) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}

	node := Node{
		ID:             dir.ID,
		Name:           dir.Name,
		Parent:         dir.ParentID,
		Subdirectories: []Node{},
	}

	files, err := src.ListFiles(ctx, dir.ID)
	if err != nil {
		return Node{}, err
	}
	node.Files = files
	if node.Files == nil {
		node.Files = []*metadata.File{}
	}

	if wc.depth >= wc.maxDepth || wc.visited.contains(dir.ID) {
		return node, nil
	}

	children, err := src.ListSubdirectories(ctx, dir.ID)
	if err != nil {
		return Node{}, err
	}

	next := walkContext{
		maxDepth: wc.maxDepth,
		depth:    wc.depth + 1,
		visited:  wc.visited.with(dir.ID),
	}
	for _, child := range children {
		childNode, err := serializeDirectory(ctx, src, child, next)
		if err != nil {
			return Node{}, err
		}
		node.Subdirectories = append(node.Subdirectories, childNode)
	}

	return node, nil
}

// ClampDepth resolves a requested depth against the configured default and
// limit. A nil request uses def; anything above limit is capped.
func ClampDepth(requested *int, def, limit int) int {
	depth := def
	if requested != nil {
		depth = *requested
	}
	if depth < 0 {
		depth = 0
	}
	if limit > 0 && depth > limit {
		depth = limit
	}
	return depth
}
