package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// UploadRequest describes a file upload.
type UploadRequest struct {
	// DirectoryID is the owning directory. Required.
	DirectoryID uint64

	// Name of the new file. Required.
	Name string

	// ContentType as sent by the client. Empty or generic values are
	// replaced by sniffing the content.
	ContentType string

	// Body is read up to the configured upload limit.
	Body io.Reader
}

// UploadFile stores the blob under a fresh ContentID and then creates the
// file record. If the record cannot be created the blob is removed again.
func (s *Service) UploadFile(ctx context.Context, req UploadRequest) (file *metadata.File, err error) {
	defer s.observe("CreateFile", time.Now(), &err)

	name, err := metadata.ValidateName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, metadata.NewValidationError("file content is required")
	}

	// Fail fast before writing a blob for a directory that doesn't exist.
	// CreateFile re-checks inside its transaction.
	if _, err := s.metadata.GetDirectory(ctx, req.DirectoryID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrUploadTooLarge, s.opts.MaxUploadBytes)
	}

	contentID := s.newContentID()

	start := time.Now()
	err = s.content.WriteContent(ctx, contentID, data)
	s.opts.Metrics.RecordContentOperation("write", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to store content: %w", err)
	}
	s.opts.Metrics.RecordContentBytes("write", int64(len(data)))

	file, err = s.metadata.CreateFile(ctx, &metadata.File{
		Name:        name,
		DirectoryID: req.DirectoryID,
		ContentID:   contentID,
		Size:        uint64(len(data)),
		ContentType: detectContentType(req.ContentType, data),
	})
	if err != nil {
		s.deleteBlobs(ctx, []string{contentID})
		return nil, err
	}

	logger.Debug("Created file %d %q in directory %d (%d bytes, %s)",
		file.ID, file.Name, file.DirectoryID, file.Size, file.ContentType)
	return file, nil
}

// detectContentType keeps a specific client-supplied type and sniffs the
// content otherwise.
func detectContentType(declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}

// GetFile returns a file record.
func (s *Service) GetFile(ctx context.Context, id uint64) (file *metadata.File, err error) {
	defer s.observe("GetFile", time.Now(), &err)
	return s.metadata.GetFile(ctx, id)
}

// ListAllFiles returns every file in ascending ID order.
func (s *Service) ListAllFiles(ctx context.Context) (files []*metadata.File, err error) {
	defer s.observe("ListAllFiles", time.Now(), &err)
	return s.metadata.ListAllFiles(ctx)
}

// UpdateFile renames a file and, when update.DirectoryID is set, moves it.
func (s *Service) UpdateFile(ctx context.Context, id uint64, update metadata.FileUpdate) (file *metadata.File, err error) {
	defer s.observe("UpdateFile", time.Now(), &err)

	file, err = s.metadata.UpdateFile(ctx, id, update)
	if err != nil {
		return nil, err
	}

	logger.Debug("Updated file %d %q (directory=%d)", file.ID, file.Name, file.DirectoryID)
	return file, nil
}

// DeleteFile deletes the record and then its blob.
func (s *Service) DeleteFile(ctx context.Context, id uint64) (err error) {
	defer s.observe("DeleteFile", time.Now(), &err)

	contentID, err := s.metadata.DeleteFile(ctx, id)
	if err != nil {
		return err
	}

	logger.Debug("Deleted file %d", id)
	s.deleteBlobs(ctx, []string{contentID})
	return nil
}

// SearchFiles returns files whose name contains query, ignoring case.
func (s *Service) SearchFiles(ctx context.Context, query string) (files []*metadata.File, err error) {
	defer s.observe("SearchFiles", time.Now(), &err)
	return s.metadata.SearchFiles(ctx, query)
}

// OpenFile returns the file record and a reader over its content. The
// caller must close the reader.
//
// A record whose blob is missing fails with content.ErrContentNotFound.
func (s *Service) OpenFile(ctx context.Context, id uint64) (*metadata.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	reader, err := s.content.ReadContent(ctx, file.ContentID)
	s.opts.Metrics.RecordContentOperation("read", time.Since(start), err)
	if err != nil {
		return nil, nil, fmt.Errorf("file %d: %w", id, err)
	}

	return file, &countingReadCloser{ReadCloser: reader, record: func(n int64) {
		s.opts.Metrics.RecordContentBytes("read", n)
	}}, nil
}

// countingReadCloser reports the number of bytes read when closed.
type countingReadCloser struct {
	io.ReadCloser
	n      int64
	record func(int64)
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReadCloser) Close() error {
	c.record(c.n)
	return c.ReadCloser.Close()
}
