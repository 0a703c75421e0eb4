package adapter

import (
	"context"
)

// Adapter is a network front end managed by server.NestServer, such as the
// REST API or the metrics endpoint.
//
// Adapters receive the service (or whatever else they serve) at
// construction time; NestServer only drives their lifecycle.
//
// Thread safety:
// Stop may be called concurrently with Serve.
type Adapter interface {
	// Serve starts the listener and blocks until ctx is cancelled or an
	// unrecoverable error occurs.
	//
	// Returns:
	//   - nil or context.Canceled on graceful shutdown
	//   - error if the listener could not start or failed while serving
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown, bounded by ctx. It must be
	// idempotent.
	Stop(ctx context.Context) error

	// Name returns a human-readable adapter name for logging (e.g. "HTTP").
	Name() string

	// Address returns the configured listen address.
	Address() string
}
