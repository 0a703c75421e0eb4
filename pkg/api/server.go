// Package api exposes the NestFS service over a JSON REST API built on gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/ratelimiter"
	"github.com/marmos91/nestfs/pkg/metrics"
	"github.com/marmos91/nestfs/pkg/service"
)

// limiterIdleTimeout is how long a client's token bucket is kept after its
// last request.
const limiterIdleTimeout = 10 * time.Minute

// multipartOverhead is allowed on top of the upload limit for multipart
// boundaries and form fields.
const multipartOverhead = 1 << 20

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond uint
	Burst             uint
}

// Config configures the API server.
type Config struct {
	// Address to listen on.
	// Default: ":8000"
	Address string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout bounds the graceful shutdown started when the Serve
	// context is cancelled.
	// Default: 30s
	ShutdownTimeout time.Duration

	RateLimit RateLimitConfig
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = ":8000"
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// Server is the HTTP adapter. It implements adapter.Adapter.
type Server struct {
	config  Config
	service *service.Service
	metrics metrics.APIMetrics
	limiter *ratelimiter.RateLimiter
	router  *gin.Engine

	server       *http.Server
	shutdownOnce sync.Once
}

// NewServer builds the router for svc. A nil m disables API metrics.
func NewServer(svc *service.Service, config Config, m metrics.APIMetrics) *Server {
	config.applyDefaults()
	if m == nil {
		m = metrics.NewNoopAPIMetrics()
	}

	s := &Server{
		config:  config,
		service: svc,
		metrics: m,
	}
	if config.RateLimit.Enabled {
		s.limiter = ratelimiter.New(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst)
	}

	s.router = s.newRouter()
	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	router.Use(gin.Recovery(), requestLogger(), recordMetrics(s.metrics))
	if s.limiter != nil {
		router.Use(rateLimit(s.limiter, s.metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFoundError", Message: "no such endpoint"})
	})

	s.registerRoutes(router)
	return router
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address and blocks until ctx is cancelled
// or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}

	logger.Info("API server listening on %s", listener.Addr())

	if s.limiter != nil {
		go s.pruneLimiter(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.Stop(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(limiterIdleTimeout); n > 0 {
				logger.Debug("Rate limiter forgot %d idle clients", n)
			}
		}
	}
}

// Stop gracefully shuts down the server. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Info("Shutting down API server...")
		err = s.server.Shutdown(ctx)
	})
	return err
}

// Name returns the adapter name used in logs.
func (s *Server) Name() string {
	return "HTTP"
}

// ShutdownTimeout returns the deadline applied when Serve's context is
// cancelled.
func (s *Server) ShutdownTimeout() time.Duration {
	return s.config.ShutdownTimeout
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
