package api

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marmos91/nestfs/pkg/service"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

type updateFileRequest struct {
	Name      string  `json:"name"`
	Directory *uint64 `json:"directory"`
}

// nonNil makes empty results encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *Server) listFiles(c *gin.Context) {
	files, err := s.service.ListAllFiles(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(files))
}

// uploadFile handles a multipart upload with fields "file", "directory" and
// an optional "name" that overrides the uploaded filename.
func (s *Server) uploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.service.MaxUploadBytes()+multipartOverhead)

	if err := c.Request.ParseMultipartForm(s.router.MaxMultipartMemory); err != nil {
		if isTooLarge(err) {
			abortWithError(c, err)
			return
		}
		abortValidation(c, "invalid multipart form: %v", err)
		return
	}

	rawDir := strings.TrimSpace(c.PostForm("directory"))
	if rawDir == "" {
		abortValidation(c, "directory is required")
		return
	}
	dirID, err := strconv.ParseUint(rawDir, 10, 64)
	if err != nil {
		abortValidation(c, "invalid directory: %q", rawDir)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		abortValidation(c, "file is required")
		return
	}

	name := c.PostForm("name")
	if strings.TrimSpace(name) == "" {
		name = header.Filename
	}

	body, err := header.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer body.Close()

	file, err := s.service.UploadFile(c.Request.Context(), service.UploadRequest{
		DirectoryID: dirID,
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.metrics.RecordBytesTransferred("in", int64(file.Size))
	c.JSON(http.StatusCreated, file)
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func (s *Server) getFile(c *gin.Context) {
	id, ok := pathID(c, "file")
	if !ok {
		return
	}

	file, err := s.service.GetFile(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) updateFile(c *gin.Context) {
	id, ok := pathID(c, "file")
	if !ok {
		return
	}
	var req updateFileRequest
	if !bindJSON(c, &req) {
		return
	}

	file, err := s.service.UpdateFile(c.Request.Context(), id, metadata.FileUpdate{
		Name:        req.Name,
		DirectoryID: req.Directory,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) deleteFile(c *gin.Context) {
	id, ok := pathID(c, "file")
	if !ok {
		return
	}

	if err := s.service.DeleteFile(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) searchFiles(c *gin.Context) {
	files, err := s.service.SearchFiles(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(files))
}

// downloadFile streams the blob as an attachment named after the file.
func (s *Server) downloadFile(c *gin.Context) {
	id, ok := pathID(c, "file")
	if !ok {
		return
	}

	file, reader, err := s.service.OpenFile(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer reader.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, int64(file.Size), contentType, reader, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}),
	})
	s.metrics.RecordBytesTransferred("out", int64(file.Size))
}
