package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// DefaultShutdownTimeout bounds Stop when the config leaves it unset.
const DefaultShutdownTimeout = 5 * time.Second

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Address is the host:port to listen on. Port 0 picks a free port.
	Address string

	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server exposes a Prometheus registry over HTTP:
//   - GET /metrics: metrics in text or OpenMetrics format
//   - GET /healthz: liveness probe
type Server struct {
	server       *http.Server
	listener     net.Listener
	timeout      time.Duration
	logger       logger.Logger
	shutdownOnce sync.Once
}

// NewServer binds the listen address and prepares the handlers for registry.
// A nil registry serves 503 on /metrics.
func NewServer(cfg ServerConfig, registry *prometheus.Registry, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	mux := http.NewServeMux()

	if registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintln(w, "metrics collection is disabled")
		})
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintln(w, "ok")
	})

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "metrics server cannot listen on %s", cfg.Address)
	}

	return &Server{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		listener: listener,
		timeout:  cfg.ShutdownTimeout,
		logger:   log,
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("metrics server listening", "address", s.Addr())

		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return errors.Wrap(err, "metrics server failed")
	}
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		// Shutdown only closes listeners Serve has taken over.
		defer s.listener.Close()

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = errors.Wrap(err, "metrics server shutdown")
			s.logger.Error("metrics server shutdown failed", "error", err)

			return
		}

		s.logger.Info("metrics server stopped")
	})

	return shutdownErr
}
