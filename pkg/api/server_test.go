package api

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/service"
	contentmemory "github.com/marmos91/nestfs/pkg/store/content/memory"
	metadatamemory "github.com/marmos91/nestfs/pkg/store/metadata/memory"
)

func freeAddress(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestNewServer_ShutdownTimeoutDefault(t *testing.T) {
	srv := NewServer(nil, Config{}, nil)
	assert.Equal(t, 30*time.Second, srv.config.ShutdownTimeout)

	srv = NewServer(nil, Config{ShutdownTimeout: 5 * time.Second}, nil)
	assert.Equal(t, 5*time.Second, srv.config.ShutdownTimeout)
}

func TestServer_CancelUsesConfiguredShutdownTimeout(t *testing.T) {
	blobs, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	svc := service.New(metadatamemory.NewMemoryMetadataStore(), blobs, service.Options{})

	addr := freeAddress(t)
	srv := NewServer(svc, Config{Address: addr, ShutdownTimeout: 100 * time.Millisecond}, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	srv.router.GET("/block", func(c *gin.Context) {
		close(entered)
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	go func() {
		resp, err := http.Get("http://" + addr + "/block")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-entered

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after the shutdown timeout")
	}
}

func TestRequestLogger_LogsLatency(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, "text")
	logger.SetLevel("DEBUG")
	defer func() {
		logger.SetOutput(os.Stdout, "text")
		logger.SetLevel("INFO")
	}()

	api := newTestAPI(t, service.Options{}, Config{})
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)

	assert.Regexp(t, `GET /healthz -> 200 \([0-9.]+(µs|ms|s)\)`, buf.String())
}
