package badger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// Serialization Strategy
// ======================
//
// Records are stored as JSON: human-readable when inspecting the database
// and tolerant of new fields. The stored structs are separate from the
// metadata types so that fields hidden from the API (ContentID) are still
// persisted.

type directoryData struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *uint64   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type fileData struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	DirectoryID uint64    `json:"directory_id"`
	ContentID   string    `json:"content_id"`
	Size        uint64    `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *directoryData) toDirectory() *metadata.Directory {
	return &metadata.Directory{
		ID:        d.ID,
		Name:      d.Name,
		ParentID:  d.ParentID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (f *fileData) toFile() *metadata.File {
	return &metadata.File{
		ID:          f.ID,
		Name:        f.Name,
		DirectoryID: f.DirectoryID,
		ContentID:   f.ContentID,
		Size:        f.Size,
		ContentType: f.ContentType,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func encodeDirectoryData(data *directoryData) ([]byte, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode directory data: %w", err)
	}
	return bytes, nil
}

func decodeDirectoryData(bytes []byte) (*directoryData, error) {
	var data directoryData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("failed to decode directory data: %w", err)
	}
	return &data, nil
}

func encodeFileData(data *fileData) ([]byte, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file data: %w", err)
	}
	return bytes, nil
}

func decodeFileData(bytes []byte) (*fileData, error) {
	var data fileData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("failed to decode file data: %w", err)
	}
	return &data, nil
}
