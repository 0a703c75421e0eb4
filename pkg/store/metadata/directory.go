package metadata

import "time"

// Directory is a node in the directory tree.
//
// A directory with a nil ParentID is a root. Following ParentID from any
// directory always terminates at a root: stores validate every reparent
// inside their write transaction so a directory never becomes its own
// ancestor.
type Directory struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	ParentID *uint64 `json:"parent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRoot reports whether the directory has no parent.
func (d *Directory) IsRoot() bool {
	return d.ParentID == nil
}

// Clone returns a deep copy so callers can't mutate store-owned records.
func (d *Directory) Clone() *Directory {
	c := *d
	if d.ParentID != nil {
		parent := *d.ParentID
		c.ParentID = &parent
	}
	return &c
}

// DirectoryUpdate describes a rename and/or reparent of a directory.
type DirectoryUpdate struct {
	// Name renames the directory when non-nil.
	Name *string

	// Reparent applies ParentID. A nil ParentID with Reparent set turns the
	// directory into a root.
	Reparent bool
	ParentID *uint64
}

// ParentOf returns a pointer to id, for building ParentID values.
func ParentOf(id uint64) *uint64 {
	return &id
}
