package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/service"
	contentmemory "github.com/marmos91/nestfs/pkg/store/content/memory"
	"github.com/marmos91/nestfs/pkg/store/metadata"
	metadatamemory "github.com/marmos91/nestfs/pkg/store/metadata/memory"
	"github.com/marmos91/nestfs/pkg/tree"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	blobs   *contentmemory.MemoryContentStore
}

func newTestAPI(t *testing.T, opts service.Options, config Config) *testAPI {
	t.Helper()
	blobs, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	svc := service.New(metadatamemory.NewMemoryMetadataStore(), blobs, opts)
	return &testAPI{t: t, handler: NewServer(svc, config, nil).Handler(), blobs: blobs}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createDirectory(name string, parent *uint64) metadata.Directory {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/directories/", map[string]any{"name": name, "parent": parent})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var dir metadata.Directory
	decode(a.t, rec, &dir)
	return dir
}

func (a *testAPI) uploadFile(dirID uint64, name, content string) metadata.File {
	a.t.Helper()
	rec := a.upload(map[string]string{"directory": fmt.Sprint(dirID)}, name, []byte(content))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var file metadata.File
	decode(a.t, rec, &file)
	return file
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, kind, body.Error)
	assert.NotEmpty(t, body.Message)
}

func TestAPI_DeleteFlow(t *testing.T) {
	api := newTestAPI(t, service.Options{}, Config{})

	a := api.createDirectory("A", nil)
	b := api.createDirectory("B", &a.ID)
	f := api.uploadFile(b.ID, "f.txt", "hello")

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/directories/%d/", a.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var node tree.Node
	decode(t, rec, &node)
	require.Len(t, node.Subdirectories, 1)
	assert.Equal(t, "B", node.Subdirectories[0].Name)
	require.Len(t, node.Subdirectories[0].Files, 1)
	assert.Equal(t, "f.txt", node.Subdirectories[0].Files[0].Name)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/directories/%d/delete_directory/", a.ID), nil)
	assertError(t, rec, http.StatusConflict, "NotEmptyError")

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/directories/%d/delete_directory_and_contents/", a.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for _, path := range []string{
		fmt.Sprintf("/api/directories/%d/", a.ID),
		fmt.Sprintf("/api/directories/%d/", b.ID),
		fmt.Sprintf("/api/files/%d/", f.ID),
	} {
		assertError(t, api.do(http.MethodGet, path, nil), http.StatusNotFound, "NotFoundError")
	}

	blobs, err := api.blobs.ListAllContent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestAPI_Directories(t *testing.T) {
	t.Run("EmptyList", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		rec := api.do(http.MethodGet, "/api/directories/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("CreateValidation", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})

		assertError(t, api.do(http.MethodPost, "/api/directories/", map[string]any{"name": "  "}),
			http.StatusBadRequest, "ValidationError")

		missing := uint64(42)
		assertError(t, api.do(http.MethodPost, "/api/directories/", map[string]any{"name": "x", "parent": missing}),
			http.StatusNotFound, "NotFoundError")

		req := httptest.NewRequest(http.MethodPost, "/api/directories/", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		assertError(t, rec, http.StatusBadRequest, "ValidationError")
	})

	t.Run("MaxDepth", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		a := api.createDirectory("A", nil)
		api.createDirectory("B", &a.ID)

		rec := api.do(http.MethodGet, fmt.Sprintf("/api/directories/%d/?max_depth=0", a.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var node tree.Node
		decode(t, rec, &node)
		assert.Empty(t, node.Subdirectories)

		for _, bad := range []string{"abc", "-1", "1.5"} {
			rec = api.do(http.MethodGet, fmt.Sprintf("/api/directories/%d/?max_depth=%s", a.ID, bad), nil)
			assertError(t, rec, http.StatusBadRequest, "ValidationError")
		}
	})

	t.Run("MalformedID", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		assertError(t, api.do(http.MethodGet, "/api/directories/abc/", nil), http.StatusNotFound, "NotFoundError")
	})

	t.Run("CreateSubdirectory", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		a := api.createDirectory("A", nil)

		rec := api.do(http.MethodPost, fmt.Sprintf("/api/directories/%d/create_subdirectory/", a.ID), map[string]any{"name": "child"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var node tree.Node
		decode(t, rec, &node)
		assert.Equal(t, "child", node.Name)
		require.NotNil(t, node.Parent)
		assert.Equal(t, a.ID, *node.Parent)

		rec = api.do(http.MethodGet, fmt.Sprintf("/api/directories/%d/sub_directories/", a.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var subs []metadata.Directory
		decode(t, rec, &subs)
		require.Len(t, subs, 1)
		assert.Equal(t, node.ID, subs[0].ID)
	})

	t.Run("UpdateRejectsCycle", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		a := api.createDirectory("A", nil)
		b := api.createDirectory("B", &a.ID)

		rec := api.do(http.MethodPatch, fmt.Sprintf("/api/directories/%d/", a.ID), map[string]any{"parent": b.ID})
		assertError(t, rec, http.StatusConflict, "CyclicReferenceError")

		rec = api.do(http.MethodPatch, fmt.Sprintf("/api/directories/%d/", a.ID), map[string]any{"parent": a.ID})
		assertError(t, rec, http.StatusConflict, "CyclicReferenceError")
	})

	t.Run("UpdateRenameAndMakeRoot", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		a := api.createDirectory("A", nil)
		b := api.createDirectory("B", &a.ID)

		rec := api.do(http.MethodPatch, fmt.Sprintf("/api/directories/%d/", b.ID), map[string]any{"name": "B2"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var dir metadata.Directory
		decode(t, rec, &dir)
		assert.Equal(t, "B2", dir.Name)
		require.NotNil(t, dir.ParentID, "omitted parent is kept")

		rec = api.do(http.MethodPatch, fmt.Sprintf("/api/directories/%d/", b.ID), map[string]any{"parent": nil})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &dir)
		assert.Nil(t, dir.ParentID)

		rec = api.do(http.MethodPut, fmt.Sprintf("/api/directories/%d/", b.ID), map[string]any{"parent": a.ID})
		assertError(t, rec, http.StatusBadRequest, "ValidationError")
	})

	t.Run("Search", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		api.createDirectory("Photos", nil)
		api.createDirectory("music", nil)

		rec := api.do(http.MethodGet, "/api/directories/search/?q=PHOTO", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var dirs []metadata.Directory
		decode(t, rec, &dirs)
		require.Len(t, dirs, 1)
		assert.Equal(t, "Photos", dirs[0].Name)

		assertError(t, api.do(http.MethodGet, "/api/directories/search/", nil), http.StatusBadRequest, "ValidationError")
	})

	t.Run("DeleteRecursiveViaDelete", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		a := api.createDirectory("A", nil)
		api.createDirectory("B", &a.ID)

		rec := api.do(http.MethodDelete, fmt.Sprintf("/api/directories/%d/", a.ID), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = api.do(http.MethodGet, "/api/directories/", nil)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestAPI_Files(t *testing.T) {
	t.Run("UploadAndDownload", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		dir := api.createDirectory("docs", nil)
		file := api.uploadFile(dir.ID, "notes.txt", "some notes")

		assert.Equal(t, dir.ID, file.DirectoryID)
		assert.Equal(t, uint64(10), file.Size)
		assert.Equal(t, "text/plain; charset=utf-8", file.ContentType)

		rec := api.do(http.MethodGet, fmt.Sprintf("/api/files/%d/download/", file.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "some notes", rec.Body.String())
		assert.Equal(t, "attachment; filename=notes.txt", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("UploadNameOverride", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		dir := api.createDirectory("docs", nil)

		rec := api.upload(map[string]string{"directory": fmt.Sprint(dir.ID), "name": "renamed.bin"}, "original.bin", []byte{0, 1, 2})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var file metadata.File
		decode(t, rec, &file)
		assert.Equal(t, "renamed.bin", file.Name)
	})

	t.Run("UploadValidation", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		dir := api.createDirectory("docs", nil)

		assertError(t, api.upload(nil, "f.txt", []byte("x")), http.StatusBadRequest, "ValidationError")
		assertError(t, api.upload(map[string]string{"directory": "abc"}, "f.txt", []byte("x")),
			http.StatusBadRequest, "ValidationError")
		assertError(t, api.upload(map[string]string{"directory": fmt.Sprint(dir.ID)}, "", nil),
			http.StatusBadRequest, "ValidationError")
		assertError(t, api.upload(map[string]string{"directory": "999"}, "f.txt", []byte("x")),
			http.StatusNotFound, "NotFoundError")

		rec := api.do(http.MethodPost, "/api/files/", map[string]any{"directory": dir.ID})
		assertError(t, rec, http.StatusBadRequest, "ValidationError")
	})

	t.Run("UploadTooLarge", func(t *testing.T) {
		api := newTestAPI(t, service.Options{MaxUploadBytes: 8}, Config{})
		dir := api.createDirectory("docs", nil)

		rec := api.upload(map[string]string{"directory": fmt.Sprint(dir.ID)}, "big.txt", bytes.Repeat([]byte("x"), 20))
		assertError(t, rec, http.StatusRequestEntityTooLarge, "PayloadTooLargeError")
	})

	t.Run("DownloadMissingBlob", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		dir := api.createDirectory("docs", nil)
		file := api.uploadFile(dir.ID, "f.txt", "x")

		ids, err := api.blobs.ListAllContent(context.Background())
		require.NoError(t, err)
		require.Len(t, ids, 1)
		require.NoError(t, api.blobs.Delete(context.Background(), ids[0]))

		rec := api.do(http.MethodGet, fmt.Sprintf("/api/files/%d/download/", file.ID), nil)
		assertError(t, rec, http.StatusNotFound, "NotFoundError")
	})

	t.Run("RenameAndMove", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		src := api.createDirectory("src", nil)
		dst := api.createDirectory("dst", nil)
		file := api.uploadFile(src.ID, "f.txt", "x")

		rec := api.do(http.MethodPatch, fmt.Sprintf("/api/files/%d/", file.ID), map[string]any{"name": "g.txt", "directory": dst.ID})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var moved metadata.File
		decode(t, rec, &moved)
		assert.Equal(t, "g.txt", moved.Name)
		assert.Equal(t, dst.ID, moved.DirectoryID)

		rec = api.do(http.MethodPut, fmt.Sprintf("/api/files/%d/", file.ID), map[string]any{"name": ""})
		assertError(t, rec, http.StatusBadRequest, "ValidationError")

		rec = api.do(http.MethodPut, fmt.Sprintf("/api/files/%d/", file.ID), map[string]any{"name": "h.txt", "directory": 999})
		assertError(t, rec, http.StatusNotFound, "NotFoundError")

		rec = api.do(http.MethodGet, fmt.Sprintf("/api/directories/%d/files/", dst.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var files []metadata.File
		decode(t, rec, &files)
		require.Len(t, files, 1)
		assert.Equal(t, "g.txt", files[0].Name)
	})

	t.Run("SearchListAndDelete", func(t *testing.T) {
		api := newTestAPI(t, service.Options{}, Config{})
		dir := api.createDirectory("docs", nil)
		report := api.uploadFile(dir.ID, "Report.pdf", "%PDF-1.4")
		api.uploadFile(dir.ID, "notes.txt", "x")

		rec := api.do(http.MethodGet, "/api/files/search/?q=report", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var found []metadata.File
		decode(t, rec, &found)
		require.Len(t, found, 1)
		assert.Equal(t, report.ID, found[0].ID)

		assertError(t, api.do(http.MethodGet, "/api/files/search/?q=", nil), http.StatusBadRequest, "ValidationError")

		rec = api.do(http.MethodDelete, fmt.Sprintf("/api/files/%d/", report.ID), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assertError(t, api.do(http.MethodDelete, fmt.Sprintf("/api/files/%d/", report.ID), nil),
			http.StatusNotFound, "NotFoundError")

		rec = api.do(http.MethodGet, "/api/files/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var all []metadata.File
		decode(t, rec, &all)
		require.Len(t, all, 1)
		assert.Equal(t, "notes.txt", all[0].Name)
	})
}

func TestAPI_Healthz(t *testing.T) {
	api := newTestAPI(t, service.Options{}, Config{})

	rec := api.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_RateLimit(t *testing.T) {
	api := newTestAPI(t, service.Options{}, Config{
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 2},
	})

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)

	rec := api.do(http.MethodGet, "/healthz", nil)
	assertError(t, rec, http.StatusTooManyRequests, "RateLimitedError")
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestAPI_UnknownRoute(t *testing.T) {
	api := newTestAPI(t, service.Options{}, Config{})
	assertError(t, api.do(http.MethodGet, "/api/nothing/", nil), http.StatusNotFound, "NotFoundError")
}
