// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize reduces a validated document to a short abstractive
// summary. Input is cleaned and gated first; rejections are terminal. The
// external model is then called with a deadline, and any failure on that
// path falls back to an extractive summary built from the leading sentences.
package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/convert"
	"github.com/pdiddy/paper-analyzer/internal/validity"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// Sentinel errors carried by a *Rejection.
var (
	ErrInvalidInput       = errors.New("no text provided")
	ErrExtractionSentinel = errors.New("input is an extraction failure")
	ErrGarbled            = errors.New("text is garbled or binary")
	ErrInsufficientText   = errors.New("insufficient readable text")
	ErrNoSentences        = errors.New("no meaningful sentences")
)

// Primary-path errors. These trigger the extractive fallback.
var (
	ErrOffline     = errors.New("summarization model is offline")
	ErrShortOutput = errors.New("model output too short")
)

// FallbackPrefix labels summaries produced without the model.
const FallbackPrefix = "Document Summary (extracted from beginning): "

const (
	minCleanedLength = 100
	minOutputLength  = 20
	minSentenceLen   = 20
	fallbackCount    = 3
	fallbackMaxChars = 500
)

// Rejection is a terminal refusal to summarize. Its Error text is the
// client-facing message and begins with "Error:" or
// "Document Processing Error:".
type Rejection struct {
	Err     error
	Input   string
	Verdict types.ValidityVerdict
}

func (r *Rejection) Error() string {
	switch {
	case errors.Is(r.Err, ErrExtractionSentinel):
		return "Document Processing Error: " + r.Input
	case errors.Is(r.Err, ErrGarbled):
		return "Error: The document contains unreadable or binary content that cannot be summarized."
	case errors.Is(r.Err, ErrInsufficientText):
		return "Error: The document contains insufficient readable text for summarization."
	case errors.Is(r.Err, ErrNoSentences):
		return "Error: No meaningful sentences found in the document."
	default:
		return "Error: Invalid text provided for summarization."
	}
}

func (r *Rejection) Unwrap() error { return r.Err }

// Params are the generation bounds passed to the model.
type Params struct {
	MaxLength int
	MinLength int
}

// Model is an external abstractive summarizer.
type Model interface {
	Name() string
	Summarize(ctx context.Context, text string, p Params) (string, error)
}

// Cache stores model output keyed by model and input.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, model, summary string) error
}

// Summarizer holds the model, optional cache, and limits.
type Summarizer struct {
	Model  Model
	Cache  Cache
	Config types.SummarizerConfig
	Logger *zap.Logger

	// OnFallback is called with the primary-path error whenever the
	// extractive fallback is used.
	OnFallback func(err error)
}

// New returns a Summarizer with defaults filled in from cfg.
func New(m Model, c Cache, cfg types.SummarizerConfig, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 1024
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 130
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 30
	}
	return &Summarizer{Model: m, Cache: c, Config: cfg, Logger: logger}
}

// Summarize produces a Summary for doc's text. It returns a *Rejection when
// the input is unusable and never calls the model in that case.
func (s *Summarizer) Summarize(ctx context.Context, doc types.Document) (types.Summary, error) {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return types.Summary{}, &Rejection{Err: ErrInvalidInput}
	}
	if convert.IsSentinel(text) {
		return types.Summary{}, &Rejection{Err: ErrExtractionSentinel, Input: text}
	}
	if v := validity.Assess(text, validity.Summarization); v.Verdict == types.VerdictGarbled {
		return types.Summary{}, &Rejection{Err: ErrGarbled, Verdict: v}
	}

	cleaned := Clean(text)
	if len(cleaned) < minCleanedLength {
		return types.Summary{}, &Rejection{Err: ErrInsufficientText}
	}

	start := time.Now()
	out, prov, err := s.primary(ctx, cleaned)
	if err == nil {
		s.Logger.Info("summary generated",
			zap.String("stage", "summarize"),
			zap.String("source", doc.Source),
			zap.String("provenance", string(prov)),
			zap.Int("chars", len(out)),
			zap.Duration("duration", time.Since(start)))
		return types.Summary{Text: out, Provenance: prov, DocumentID: doc.ID, Model: s.modelName()}, nil
	}

	s.Logger.Warn("model summary failed, using extractive fallback",
		zap.String("stage", "summarize"),
		zap.String("source", doc.Source),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	if s.OnFallback != nil {
		s.OnFallback(err)
	}

	fb, ferr := Fallback(cleaned)
	if ferr != nil {
		return types.Summary{}, &Rejection{Err: ferr}
	}
	return types.Summary{Text: fb, Provenance: types.ProvenanceFallback, DocumentID: doc.ID}, nil
}

// primary runs the cache and model path. A panic in the model client is
// converted into an error.
func (s *Summarizer) primary(ctx context.Context, cleaned string) (out string, prov types.Provenance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("summarization model panicked")
		}
	}()

	if s.Model == nil {
		return "", "", ErrOffline
	}
	input := truncateRunes(cleaned, s.Config.MaxInputChars)
	key := CacheKey(s.Model.Name(), input)

	if s.Cache != nil {
		if hit, ok, cerr := s.Cache.Get(ctx, key); cerr == nil && ok {
			return hit, types.ProvenanceCache, nil
		} else if cerr != nil {
			s.Logger.Warn("summary cache read failed", zap.Error(cerr))
		}
	}

	out, err = s.Model.Summarize(ctx, input, Params{MaxLength: s.Config.MaxLength, MinLength: s.Config.MinLength})
	if err != nil {
		return "", "", err
	}
	out = strings.TrimSpace(out)
	if len(out) < minOutputLength {
		return "", "", ErrShortOutput
	}

	if s.Cache != nil {
		if cerr := s.Cache.Put(ctx, key, s.Model.Name(), out); cerr != nil {
			s.Logger.Warn("summary cache write failed", zap.Error(cerr))
		}
	}
	return out, types.ProvenanceModel, nil
}

func (s *Summarizer) modelName() string {
	if s.Model == nil {
		return ""
	}
	return s.Model.Name()
}

// CacheKey hashes the model name and input.
func CacheKey(model, input string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

var (
	reWhitespace  = regexp.MustCompile(`\s+`)
	reNonASCII    = regexp.MustCompile(`[^\x00-\x7F]+`)
	reControl     = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	rePageOf      = regexp.MustCompile(`\b\d+\s*of\s*\d+\b`)
	rePageNumber  = regexp.MustCompile(`(?i)\bpage\s+\d+\b`)
	reRepeatPunct = regexp.MustCompile(`[.!?]{3,}`)
	reSentenceEnd = regexp.MustCompile(`[.!?]+`)
)

// Clean collapses whitespace and strips non-ASCII, control characters, page
// counters, and runs of terminal punctuation.
func Clean(text string) string {
	text = reWhitespace.ReplaceAllString(text, " ")
	text = reNonASCII.ReplaceAllString(text, "")
	text = reControl.ReplaceAllString(text, "")
	text = rePageOf.ReplaceAllString(text, "")
	text = rePageNumber.ReplaceAllString(text, "")
	text = reRepeatPunct.ReplaceAllString(text, ".")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

// Fallback builds an extractive summary from the first sentences of cleaned
// text that are longer than 20 characters.
func Fallback(cleaned string) (string, error) {
	if len(cleaned) < minCleanedLength {
		return "", ErrInsufficientText
	}
	var picked []string
	for _, s := range reSentenceEnd.Split(cleaned, -1) {
		s = strings.TrimSpace(s)
		if len(s) > minSentenceLen {
			picked = append(picked, s)
			if len(picked) == fallbackCount {
				break
			}
		}
	}
	if len(picked) == 0 {
		return "", ErrNoSentences
	}
	out := strings.Join(picked, ". ") + "."
	if len(out) > fallbackMaxChars {
		out = out[:fallbackMaxChars] + "..."
	}
	return FallbackPrefix + out, nil
}

// IsErrorText reports whether text is a client-facing error message from
// extraction or summarization.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, "Error:") ||
		strings.HasPrefix(text, "Document Processing Error:") ||
		strings.HasPrefix(text, convert.SentinelPrefix)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
