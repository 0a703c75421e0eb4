package metadata

import (
	"strings"
	"time"
)

// MaxNameLength is the maximum length in bytes of a directory or file name.
const MaxNameLength = 255

// File represents a file record owned by exactly one directory.
//
// The record only holds metadata. The bytes live in a content store under
// ContentID, which is generated on upload and never changes afterwards:
// renaming or moving a file does not touch its content.
type File struct {
	// ID is assigned by the store on creation and never reused.
	ID uint64 `json:"id"`

	// Name is the display name (non-empty, at most MaxNameLength bytes).
	Name string `json:"name"`

	// DirectoryID is the owning directory. Deleting the directory deletes the file.
	DirectoryID uint64 `json:"directory"`

	// ContentID references the blob in the content store.
	ContentID string `json:"-"`

	// Size is the blob size in bytes.
	Size uint64 `json:"size"`

	// ContentType is the MIME type sent on download.
	ContentType string `json:"content_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileUpdate describes a rename and optional move of a file.
type FileUpdate struct {
	// Name is required.
	Name string

	// DirectoryID moves the file when set. Nil keeps the current directory.
	DirectoryID *uint64
}

// ValidateName trims the name and checks it is usable as a directory or
// file name. It returns the trimmed name.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewValidationError("name is required")
	}
	if len(trimmed) > MaxNameLength {
		return "", NewValidationError("name exceeds %d bytes", MaxNameLength)
	}
	return trimmed, nil
}

// MatchesQuery reports whether name contains query, ignoring case.
func MatchesQuery(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}
