package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// optionalID distinguishes an absent JSON field from an explicit null.
type optionalID struct {
	Set   bool
	Value *uint64
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type createDirectoryRequest struct {
	Name   string  `json:"name"`
	Parent *uint64 `json:"parent"`
}

type createSubdirectoryRequest struct {
	Name string `json:"name"`
}

type updateDirectoryRequest struct {
	Name   *string    `json:"name"`
	Parent optionalID `json:"parent"`
}

// pathID parses the :id parameter. A malformed ID cannot name any record,
// so it is reported as not found.
func pathID(c *gin.Context, kind string) (uint64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		abortWithError(c, &metadata.StoreError{Code: metadata.ErrNotFound, Message: kind + " not found: " + raw})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, reporting malformed input as a
// validation error.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortValidation(c, "invalid request body: %v", err)
		return false
	}
	return true
}

// maxDepthParam parses ?max_depth=. Absent means the configured default.
func maxDepthParam(c *gin.Context) (*int, bool) {
	raw, ok := c.GetQuery("max_depth")
	if !ok {
		return nil, true
	}
	depth, err := strconv.Atoi(raw)
	if err != nil || depth < 0 {
		abortValidation(c, "max_depth must be a non-negative integer, got %q", raw)
		return nil, false
	}
	return &depth, true
}

func (s *Server) listDirectories(c *gin.Context) {
	nodes, err := s.service.ListDirectories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(nodes))
}

func (s *Server) createDirectory(c *gin.Context) {
	var req createDirectoryRequest
	if !bindJSON(c, &req) {
		return
	}

	dir, err := s.service.CreateDirectory(c.Request.Context(), req.Name, req.Parent)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dir)
}

func (s *Server) getDirectory(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}
	maxDepth, ok := maxDepthParam(c)
	if !ok {
		return
	}

	node, err := s.service.DirectoryTree(c.Request.Context(), id, maxDepth)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) updateDirectory(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}
	var req updateDirectoryRequest
	if !bindJSON(c, &req) {
		return
	}

	update := metadata.DirectoryUpdate{
		Name:     req.Name,
		Reparent: req.Parent.Set,
		ParentID: req.Parent.Value,
	}
	// parent is optional for both methods; PUT additionally requires name.
	if c.Request.Method == http.MethodPut && req.Name == nil {
		abortValidation(c, "name is required")
		return
	}

	dir, err := s.service.UpdateDirectory(c.Request.Context(), id, update)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dir)
}

func (s *Server) createSubdirectory(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}
	var req createSubdirectoryRequest
	if !bindJSON(c, &req) {
		return
	}

	node, err := s.service.CreateSubdirectory(c.Request.Context(), id, req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (s *Server) listSubdirectories(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}

	dirs, err := s.service.ListSubdirectories(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(dirs))
}

func (s *Server) listDirectoryFiles(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}

	files, err := s.service.ListFiles(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(files))
}

func (s *Server) searchDirectories(c *gin.Context) {
	dirs, err := s.service.SearchDirectories(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(dirs))
}

func (s *Server) deleteDirectory(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}

	if err := s.service.DeleteDirectory(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteDirectoryRecursive(c *gin.Context) {
	id, ok := pathID(c, "directory")
	if !ok {
		return
	}

	if err := s.service.DeleteDirectoryRecursive(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
