package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/postalsys/saltbox/internal/config"
	"github.com/postalsys/saltbox/internal/logging"
	"github.com/postalsys/saltbox/internal/metrics"
)

func TestServerStartStop(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry(reg)
	cfg := config.ServiceConfig{
		Address:        "127.0.0.1:0",
		MetricsAddress: "127.0.0.1:0",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
	s := NewServer(cfg, logging.NopLogger(), m, 1<<16)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !s.IsRunning() {
		t.Error("expected server to report running after Start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if s.IsRunning() {
		t.Error("expected server to report stopped after Shutdown")
	}
}

func TestServerHealthzOverRealListener(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry(reg)
	cfg := config.ServiceConfig{
		Address:        "127.0.0.1:0",
		MetricsAddress: "127.0.0.1:0",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
	s := NewServer(cfg, logging.NopLogger(), m, 1<<16)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Shutdown(context.Background())

	addr := s.dataListener.Addr().String()
	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestServerShutdownIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry(reg)
	cfg := config.ServiceConfig{
		Address:        "127.0.0.1:0",
		MetricsAddress: "127.0.0.1:0",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
	s := NewServer(cfg, logging.NopLogger(), m, 1<<16)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	ctx := context.Background()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown() error: %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
}
