// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the analysis pipeline over HTTP: document upload,
// URL and DOI processing, paper search, synthesis, health, generated audio
// files, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/metrics"
	"github.com/pdiddy/paper-analyzer/internal/pipeline"
	"github.com/pdiddy/paper-analyzer/internal/search"
	"github.com/pdiddy/paper-analyzer/internal/storage"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Searcher runs paper searches.
type Searcher interface {
	Search(ctx context.Context, query, source string, maxResults int) (search.Output, error)
}

// Server routes HTTP requests to the pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	search   Searcher
	store    *storage.Store
	cfg      types.AppConfig
	logger   *zap.Logger
}

// New returns a Server. search may be nil, in which case search requests
// return no papers.
func New(p *pipeline.Pipeline, s Searcher, st *storage.Store, cfg types.AppConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 50 << 20
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 10
	}
	return &Server{pipeline: p, search: s, store: st, cfg: cfg, logger: logger}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload/", s.handleUpload)
	mux.HandleFunc("POST /process-url/", s.handleProcessURL)
	mux.HandleFunc("POST /process-doi/", s.handleProcessDOI)
	mux.HandleFunc("POST /search-papers/", s.handleSearch)
	mux.HandleFunc("POST /synthesize-papers/", s.handleSynthesize)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /"+storage.URLPrefix+"/", http.StripPrefix("/"+storage.URLPrefix+"/", audioFiles(s.store.Dir())))

	return recoverMiddleware(s.logger, corsMiddleware(s.cfg.Server.AllowedOrigins, loggingMiddleware(s.logger, mux)))
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully. It also runs the storage sweeper.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.store.RunSweeper(sweepCtx, s.cfg.Storage.SweepInterval, s.cfg.Storage.AudioRetention, func(r storage.SweepResult) {
		metrics.ObserveSweep(r.Empty, r.Expired, r.Temp)
	})

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("data_dir", s.store.Dir()),
			zap.Strings("allowed_origins", s.cfg.Server.AllowedOrigins))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("server shutting down", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
