// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/acquire"
	"github.com/pdiddy/paper-analyzer/internal/audio"
	"github.com/pdiddy/paper-analyzer/internal/logging"
	"github.com/pdiddy/paper-analyzer/internal/metrics"
	"github.com/pdiddy/paper-analyzer/internal/pipeline"
	"github.com/pdiddy/paper-analyzer/internal/search"
	"github.com/pdiddy/paper-analyzer/internal/storage"
	"github.com/pdiddy/paper-analyzer/internal/summarize"
	"github.com/pdiddy/paper-analyzer/internal/synthesize"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      types.AppConfig
	log      *logging.Logger
	store    *storage.Store
	search   *search.Service
	pipeline *pipeline.Pipeline
	cache    *summarize.SQLiteCache
}

// newApp builds every stage from cfg. Close releases the summary cache and
// flushes the log.
func newApp(cfg types.AppConfig) (*app, error) {
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := log.Logger

	st, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	var cache *summarize.SQLiteCache
	var summaryCache summarize.Cache
	if cfg.Summarizer.CacheDir != "" {
		cache, err = summarize.OpenCache(cfg.Summarizer.CacheDir)
		if err != nil {
			logger.Warn("summary cache disabled", zap.Error(err))
		} else {
			summaryCache = cache
		}
	}
	if cfg.Summarizer.Offline {
		logger.Info("offline mode: summaries use the extractive fallback")
	}

	sum := summarize.New(summarize.NewHFModel(cfg.Summarizer), summaryCache, cfg.Summarizer, logger)
	sum.OnFallback = func(error) { metrics.SummaryFallbacks.Inc() }

	rend := audio.New(audio.NewGoogleTTS(cfg.Audio), st, cfg.Audio, logger)
	rend.OnFallback = func(error) { metrics.AudioFallbacks.Inc() }

	svc := search.NewService(cfg.Search, cfg.Timeouts.Search, logger)
	svc.OnSearch = metrics.ObserveSearch

	p := pipeline.New(st, acquire.NewFetcher(cfg.Fetch, logger), sum, rend, logger)
	p.Timeouts = cfg.Timeouts
	p.Synthesis = cfg.Synthesis
	p.Synthesizer = synthesize.New(cfg.Synthesis, logger)
	p.Papers = svc
	p.OnStage = func(stage pipeline.Stage, d time.Duration, err error) {
		metrics.ObserveStage(string(stage), stageKind(err), d)
	}

	return &app{cfg: cfg, log: log, store: st, search: svc, pipeline: p, cache: cache}, nil
}

// stageKind labels a stage outcome for metrics.
func stageKind(err error) string {
	if err == nil {
		return ""
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	return string(pipeline.KindInternal)
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("closing summary cache", zap.Error(err))
		}
	}
	_ = a.log.Close()
}
