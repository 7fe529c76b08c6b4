// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audio renders narrative text to a spoken MP3 artifact in the data
// directory. Error text is never narrated, input is sanitized and capped,
// and a failed synthesis is retried once with a neutral fallback utterance.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/storage"
	"github.com/pdiddy/paper-analyzer/internal/summarize"
	"github.com/pdiddy/paper-analyzer/internal/validity"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

var (
	ErrSkipped    = errors.New("input is error text")
	ErrTooShort   = errors.New("text too short for audio")
	ErrGarbled    = errors.New("text is garbled")
	ErrEngine     = errors.New("speech synthesis failed")
	ErrNoArtifact = errors.New("audio artifact missing or empty")
)

// TruncationSuffix is appended when input exceeds the character cap.
const TruncationSuffix = "... [Audio truncated due to length]"

const (
	defaultMaxChars  = 4000
	minCleanedChars  = 10
	defaultUtterance = "This is a summary of the research paper."
	defaultLanguage  = "en"
)

// Engine is an external text-to-speech service.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string, slow bool, w io.Writer) error
}

// Renderer turns text into stored audio artifacts.
type Renderer struct {
	Engine Engine
	Store  *storage.Store
	Config types.AudioConfig
	Logger *zap.Logger

	// OnFallback is called when the fallback utterance is used.
	OnFallback func(err error)
}

// New returns a Renderer with defaults filled in from cfg.
func New(e Engine, st *storage.Store, cfg types.AudioConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if cfg.FallbackUtterance == "" {
		cfg.FallbackUtterance = defaultUtterance
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	return &Renderer{Engine: e, Store: st, Config: cfg, Logger: logger}
}

// Render cleans text and synthesizes it. sourceRef names the summary or
// synthesis the audio is rendered from. On success the artifact exists in
// storage with a size above zero.
func (r *Renderer) Render(ctx context.Context, text, sourceRef string) (types.AudioArtifact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.AudioArtifact{}, ErrTooShort
	}
	if summarize.IsErrorText(text) {
		r.Logger.Info("skipping audio for error text", zap.String("stage", "audio"), zap.String("source", sourceRef))
		return types.AudioArtifact{}, ErrSkipped
	}
	if validity.IsGarbled(text, validity.Audio) {
		return types.AudioArtifact{}, ErrGarbled
	}

	cleaned, truncated := Clean(text, r.Config.MaxChars)
	if utf8.RuneCountInString(strings.TrimSpace(cleaned)) < minCleanedChars {
		return types.AudioArtifact{}, ErrTooShort
	}

	start := time.Now()
	art, err := r.synthesize(ctx, cleaned)
	if err != nil {
		r.Logger.Warn("speech synthesis failed, trying fallback utterance",
			zap.String("stage", "audio"),
			zap.String("source", sourceRef),
			zap.Error(err))
		if r.OnFallback != nil {
			r.OnFallback(err)
		}
		art, err = r.synthesize(ctx, r.Config.FallbackUtterance)
		if err != nil {
			return types.AudioArtifact{}, fmt.Errorf("%w: %v", ErrEngine, err)
		}
		art.Fallback = true
	}

	art.SourceRef = sourceRef
	art.Truncated = truncated
	r.Logger.Info("audio rendered",
		zap.String("stage", "audio"),
		zap.String("source", sourceRef),
		zap.String("path", art.Path),
		zap.Int64("size", art.Size),
		zap.Bool("fallback", art.Fallback),
		zap.Duration("duration", time.Since(start)))
	return art, nil
}

// synthesize writes one artifact and verifies it is non-empty.
func (r *Renderer) synthesize(ctx context.Context, text string) (art types.AudioArtifact, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("speech engine panicked: %v", rec)
		}
	}()
	if r.Engine == nil {
		return art, errors.New("no speech engine configured")
	}

	name, size, err := r.Store.WriteAudio(func(w io.Writer) error {
		return r.Engine.Synthesize(ctx, text, r.Config.Language, r.Config.Slow, w)
	})
	if err != nil {
		return art, err
	}
	if size <= 0 {
		return art, fmt.Errorf("%w: %s", ErrNoArtifact, name)
	}
	return types.AudioArtifact{
		Path:      storage.RefPath(name),
		Size:      size,
		CreatedAt: time.Now().UTC(),
	}, nil
}

var (
	reNewlines   = regexp.MustCompile(`\n+`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:\-()]`)
)

// Clean collapses whitespace, removes characters outside the speech
// allow-list, and caps the result at max runes with TruncationSuffix.
func Clean(text string, max int) (string, bool) {
	text = strings.TrimSpace(text)
	text = reNewlines.ReplaceAllString(text, " ")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reDisallowed.ReplaceAllString(text, "")

	if max > 0 && utf8.RuneCountInString(text) > max {
		return string([]rune(text)[:max]) + TruncationSuffix, true
	}
	return text, false
}
