package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/adapter"
)

// fakeAdapter blocks in Serve until ctx is cancelled, or fails immediately
// when failWith is set.
type fakeAdapter struct {
	name     string
	address  string
	failWith error
	stopped  atomic.Int32
}

var _ adapter.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Serve(ctx context.Context) error {
	if f.failWith != nil {
		return f.failWith
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeAdapter) Stop(context.Context) error {
	f.stopped.Add(1)
	return nil
}

func (f *fakeAdapter) Name() string    { return f.name }
func (f *fakeAdapter) Address() string { return f.address }

func TestAddAdapter(t *testing.T) {
	srv := New(0)

	require.NoError(t, srv.AddAdapter(&fakeAdapter{name: "HTTP", address: ":8000"}))
	assert.Error(t, srv.AddAdapter(&fakeAdapter{name: "HTTP", address: ":8001"}), "duplicate name")
	assert.Error(t, srv.AddAdapter(&fakeAdapter{name: "Metrics", address: ":8000"}), "duplicate address")
	assert.Error(t, srv.AddAdapter(nil))
	require.NoError(t, srv.AddAdapter(&fakeAdapter{name: "Metrics", address: ":9090"}))

	assert.Len(t, srv.Adapters(), 2)
}

func TestServe_NoAdapters(t *testing.T) {
	assert.Error(t, New(0).Serve(context.Background()))
}

func TestServe_ContextCancelStopsAll(t *testing.T) {
	srv := New(time.Second)
	api := &fakeAdapter{name: "HTTP", address: ":8000"}
	metrics := &fakeAdapter{name: "Metrics", address: ":9090"}
	require.NoError(t, srv.AddAdapter(api))
	require.NoError(t, srv.AddAdapter(metrics))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	assert.Equal(t, int32(1), api.stopped.Load())
	assert.Equal(t, int32(1), metrics.stopped.Load())

	assert.Error(t, srv.Serve(context.Background()), "Serve may only be called once")
	assert.Error(t, srv.AddAdapter(&fakeAdapter{name: "Late", address: ":1"}))
}

func TestServe_AdapterFailureStopsOthers(t *testing.T) {
	srv := New(time.Second)
	healthy := &fakeAdapter{name: "HTTP", address: ":8000"}
	broken := &fakeAdapter{name: "Metrics", address: ":9090", failWith: errors.New("address in use")}
	require.NoError(t, srv.AddAdapter(healthy))
	require.NoError(t, srv.AddAdapter(broken))

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "address in use")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after adapter failure")
	}
	assert.Equal(t, int32(1), healthy.stopped.Load())
}
