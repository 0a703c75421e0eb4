package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/adapter"
)

// DefaultShutdownTimeout bounds Stop() calls when none is configured.
const DefaultShutdownTimeout = 30 * time.Second

// NestServer runs a set of adapters (the REST API and, when enabled, the
// metrics endpoint) and shuts them all down together.
//
// Lifecycle:
//  1. Creation: New()
//  2. Registration: AddAdapter() for each front end
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: context cancellation or any adapter failure stops all
//     adapters in reverse registration order
//
// Example usage:
//
//	srv := server.New(cfg.Server.ShutdownTimeout)
//	srv.AddAdapter(api.NewServer(svc, apiConfig, apiMetrics))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
type NestServer struct {
	shutdownTimeout time.Duration

	// mu protects adapters
	mu       sync.Mutex
	adapters []adapter.Adapter

	served atomic.Bool
}

// New creates a server with no adapters. A zero shutdownTimeout selects
// DefaultShutdownTimeout.
func New(shutdownTimeout time.Duration) *NestServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &NestServer{
		shutdownTimeout: shutdownTimeout,
		adapters:        make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers an adapter. Two adapters may not share a name or a
// listen address.
//
// Returns an error if Serve() was already called or on a conflict.
func (s *NestServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		return errors.New("adapter cannot be nil")
	}
	if s.served.Load() {
		return errors.New("cannot add adapter after Serve() has been called")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.adapters {
		if existing.Name() == a.Name() {
			return fmt.Errorf("adapter %s already registered", a.Name())
		}
		if existing.Address() == a.Address() {
			return fmt.Errorf("address %s already in use by %s adapter", a.Address(), existing.Name())
		}
	}

	s.adapters = append(s.adapters, a)
	logger.Info("Registered %s adapter on %s", a.Name(), a.Address())
	return nil
}

// Serve starts every registered adapter and blocks until ctx is cancelled
// or one of them fails.
//
// Returns:
//   - ctx.Err() when shutdown was triggered by cancellation
//   - the first adapter error otherwise
func (s *NestServer) Serve(ctx context.Context) error {
	if !s.served.CompareAndSwap(false, true) {
		return errors.New("server is already serving")
	}

	s.mu.Lock()
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	if len(adapters) == 0 {
		return errors.New("no adapters registered; call AddAdapter() before Serve()")
	}

	logger.Info("Starting NestFS with %d adapter(s)", len(adapters))

	// Cancelled on the way out so a failing adapter also stops the others.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so failing adapters never block after shutdown began.
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			err := a.Serve(ctx)
			switch {
			case err == nil, errors.Is(err, context.Canceled) && ctx.Err() != nil:
				logger.Debug("%s adapter stopped", a.Name())
			default:
				errChan <- adapterError{name: a.Name(), err: err}
			}
		}(a)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()
	case adapterErr := <-errChan:
		logger.Error("%s adapter failed: %v - shutting down", adapterErr.name, adapterErr.err)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.name, adapterErr.err)
	}

	cancel()
	s.stopAll(adapters)
	wg.Wait()

	logger.Info("NestFS stopped")
	return shutdownErr
}

type adapterError struct {
	name string
	err  error
}

// stopAll stops adapters in reverse registration order, sharing one
// shutdown deadline.
func (s *NestServer) stopAll(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	for i := len(adapters) - 1; i >= 0; i-- {
		a := adapters[i]
		if err := a.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", a.Name(), err)
		}
	}
}

// Adapters returns a copy of the registered adapters.
func (s *NestServer) Adapters() []adapter.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
