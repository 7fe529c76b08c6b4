// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// staleTempAge is how long an unrenamed temp file may live before a sweep
// removes it.
const staleTempAge = time.Hour

// SweepResult counts the outcome of one sweep.
type SweepResult struct {
	Empty   int
	Expired int
	Temp    int
	Kept    int
	Errors  []error
}

// Removed returns the number of files deleted.
func (r SweepResult) Removed() int { return r.Empty + r.Expired + r.Temp }

// Sweep deletes zero-byte audio files, audio files older than retention,
// and abandoned temp files. A zero retention keeps non-empty audio forever.
func (s *Store) Sweep(retention time.Duration) (SweepResult, error) {
	var res SweepResult
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return res, fmt.Errorf("reading data directory: %w", err)
	}
	now := s.now()

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		isTemp := strings.HasPrefix(name, ".tmp-")
		isAudio := strings.HasPrefix(name, audioPrefix) && strings.HasSuffix(name, audioExt)
		if !isTemp && !isAudio {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		age := now.Sub(fi.ModTime())

		var counter *int
		switch {
		case isTemp && age > staleTempAge:
			counter = &res.Temp
		case isAudio && fi.Size() == 0:
			counter = &res.Empty
		case isAudio && retention > 0 && age > retention:
			counter = &res.Expired
		default:
			if isAudio {
				res.Kept++
			}
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			res.Errors = append(res.Errors, err)
			continue
		}
		*counter++
	}

	s.logger.Info("storage sweep finished",
		zap.Int("empty", res.Empty),
		zap.Int("expired", res.Expired),
		zap.Int("temp", res.Temp),
		zap.Int("kept", res.Kept),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// RunSweeper sweeps every interval until ctx is cancelled. onSweep, when
// non-nil, receives each successful sweep's result.
func (s *Store) RunSweeper(ctx context.Context, interval, retention time.Duration, onSweep func(SweepResult)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			res, err := s.Sweep(retention)
			if err != nil {
				s.logger.Warn("storage sweep failed", zap.Error(err))
				continue
			}
			if onSweep != nil {
				onSweep(res)
			}
		}
	}
}
