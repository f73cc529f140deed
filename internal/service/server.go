// Package service exposes saltbox's encrypt/decrypt operations over HTTP,
// plus health and Prometheus endpoints, for running `saltbox serve` as a
// long-lived daemon.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/postalsys/saltbox/internal/config"
	"github.com/postalsys/saltbox/internal/metrics"
)

// Server is the saltbox HTTP service. It runs two listeners: the data
// listener serving /v1/encrypt, /v1/decrypt and /healthz, and a separate
// metrics listener serving /metrics, mirroring the teacher's separation
// of its data plane from its control/health endpoints.
type Server struct {
	cfg              config.ServiceConfig
	logger           *slog.Logger
	metrics          *metrics.Metrics
	defaultChunkSize int

	dataServer      *http.Server
	metricsServer   *http.Server
	dataListener    net.Listener
	metricsListener net.Listener

	running atomic.Bool
}

// NewServer constructs a Server. defaultChunkSize is used for any
// /v1/encrypt request that omits chunk_size.
func NewServer(cfg config.ServiceConfig, logger *slog.Logger, m *metrics.Metrics, defaultChunkSize int) *Server {
	s := &Server{
		cfg:              cfg,
		logger:           logger,
		metrics:          m,
		defaultChunkSize: defaultChunkSize,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/encrypt", s.handleEncrypt)
	mux.HandleFunc("/v1/decrypt", s.handleDecrypt)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.dataServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.MaxBodyBytes > 0 {
		s.dataServer.Handler = maxBodyBytes(mux, cfg.MaxBodyBytes)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	s.metricsServer = &http.Server{
		Addr:         cfg.MetricsAddress,
		Handler:      metricsMux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// maxBodyBytes wraps h so that no request body larger than n bytes is read.
func maxBodyBytes(h http.Handler, n int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h.ServeHTTP(w, r)
	})
}

// Start starts both listeners and returns once they are accepting
// connections. Errors encountered after Start returns are logged, not
// returned; call Shutdown to stop both servers.
func (s *Server) Start() error {
	dataLn, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on data address %s: %w", s.cfg.Address, err)
	}
	s.dataListener = dataLn

	metricsLn, err := net.Listen("tcp", s.cfg.MetricsAddress)
	if err != nil {
		dataLn.Close()
		return fmt.Errorf("listen on metrics address %s: %w", s.cfg.MetricsAddress, err)
	}
	s.metricsListener = metricsLn

	s.running.Store(true)

	go func() {
		if err := s.dataServer.Serve(dataLn); err != nil && err != http.ErrServerClosed {
			s.logger.Error("data server exited", "error", err)
		}
	}()
	go func() {
		if err := s.metricsServer.Serve(metricsLn); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server exited", "error", err)
		}
	}()

	s.logger.Info("saltbox service started",
		"address", s.cfg.Address,
		"metrics_address", s.cfg.MetricsAddress,
	)

	return nil
}

// Shutdown gracefully stops both listeners, waiting up to the shorter of
// ctx's deadline or 30 seconds for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.Swap(false) {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var firstErr error
	if err := s.dataServer.Shutdown(shutdownCtx); err != nil {
		firstErr = err
	}
	if err := s.metricsServer.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// IsRunning reports whether the server is currently serving.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}
