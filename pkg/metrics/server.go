package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mhadysydney/fridge-controll-app/internal/logger"
)

// Server exposes the /metrics scrape endpoint.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server for the given registry.
func NewServer(reg *prometheus.Registry, port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Addr:        fmt.Sprintf(":%d", port),
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
		},
	}
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	logger.Info("Metrics server listening", "address", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
