package content

import (
	"errors"
	"fmt"
	"strings"
)

// Standard content store errors. Implementations wrap them with context:
//
//	return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
//
// Callers check with errors.Is.
var (
	// ErrContentNotFound indicates the requested content does not exist.
	//
	// HTTP: 404 Not Found
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidContentID indicates the ContentID is empty or contains
	// characters that cannot be used as an object name.
	ErrInvalidContentID = errors.New("invalid content ID")

	// ErrUnavailable indicates the storage backend cannot be reached.
	//
	// HTTP: 503 Service Unavailable
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidateID checks that id can be used as a flat object name by every
// backend.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." {
		return fmt.Errorf("%q: %w", id, ErrInvalidContentID)
	}
	if strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%q: %w", id, ErrInvalidContentID)
	}
	return nil
}
