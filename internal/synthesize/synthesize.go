// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize combines the summaries of several papers into one
// structured narrative. It never fails by returning a bare error: every
// outcome is a SynthesisResult whose Synthesis text is non-empty, with Err
// set when that text is an error message.
package synthesize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

var (
	ErrNoPapers       = errors.New("no papers provided")
	ErrNoUsablePapers = errors.New("no usable papers")
	ErrUnknownMode    = errors.New("unknown synthesis mode")
	ErrBuild          = errors.New("narrative builder failed")
)

const (
	maxInsights      = 5
	maxSummaryChars  = 500
	defaultSummary   = "No summary available"
	defaultSource    = "unknown"
	themeMinMentions = 2
)

// Keywords is the fixed theme vocabulary.
var Keywords = []string{
	"machine learning", "deep learning", "neural networks", "artificial intelligence",
	"data analysis", "optimization", "algorithm", "model", "performance", "accuracy",
}

var insightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:findings?|results?|conclusions?|insights?|discoveries?)[:\s]+([^.]*\.)`),
	regexp.MustCompile(`(?i)(?:key|main|primary|important)\s+(?:finding|result|conclusion|insight)[:\s]+([^.]*\.)`),
	regexp.MustCompile(`(?i)(?:study|research|analysis|investigation)\s+(?:shows?|demonstrates?|reveals?|indicates?)\s+([^.]*\.)`),
	regexp.MustCompile(`(?i)(?:we|this|our)\s+(?:find|discover|conclude|determine)\s+([^.]*\.)`),
}

// Synthesizer builds SynthesisResults.
type Synthesizer struct {
	Config types.SynthesisConfig
	Logger *zap.Logger
	Now    func() time.Time
}

// New returns a Synthesizer using cfg.
func New(cfg types.SynthesisConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{Config: cfg, Logger: logger, Now: time.Now}
}

// Synthesize analyses papers and renders the narrative for mode.
func (s *Synthesizer) Synthesize(ctx context.Context, papers []types.PaperRecord, mode types.SynthesisMode) types.SynthesisResult {
	start := time.Now()
	res := s.synthesize(ctx, papers, mode)
	if res.Failed() {
		s.Logger.Warn("synthesis failed",
			zap.String("stage", "synthesize"),
			zap.String("mode", string(mode)),
			zap.Int("papers", len(papers)),
			zap.Error(res.Err))
	} else {
		s.Logger.Info("synthesis generated",
			zap.String("stage", "synthesize"),
			zap.String("mode", string(res.Mode)),
			zap.Int("papers", res.TotalPapers),
			zap.Int("themes", len(res.CommonThemes)),
			zap.Int("chars", len(res.Synthesis)),
			zap.Duration("duration", time.Since(start)))
	}
	return res
}

func (s *Synthesizer) synthesize(ctx context.Context, papers []types.PaperRecord, mode types.SynthesisMode) types.SynthesisResult {
	if len(papers) == 0 {
		return s.errorResult(mode, ErrNoPapers, "Error: No papers provided for synthesis")
	}

	build := mode
	if !mode.Known() {
		if !s.Config.LenientModes {
			return s.errorResult(mode, fmt.Errorf("%w: %q", ErrUnknownMode, mode),
				fmt.Sprintf("Error: Unsupported synthesis mode %q. Use comprehensive, comparative, or thematic.", mode))
		}
		build = types.ModeComprehensive
	}

	var analyses []types.PaperAnalysis
	var summaries []string
	for i, p := range papers {
		if !p.Usable() {
			continue
		}
		analyses = append(analyses, Analyze(i, p))
		if p.Summary != "" {
			summaries = append(summaries, p.Summary)
		}
	}
	if len(analyses) == 0 {
		return s.errorResult(mode, ErrNoUsablePapers, "Error: No valid papers found for synthesis")
	}
	if err := ctx.Err(); err != nil {
		return s.errorResult(mode, err, "Error generating synthesis: "+err.Error())
	}

	var themes []string
	if s.Config.DistinctPaperThemes {
		themes = DistinctThemes(summaries)
	} else {
		themes = CorpusThemes(summaries)
	}

	text, err := render(build, analyses, themes)
	res := types.SynthesisResult{
		Synthesis:           text,
		PaperAnalyses:       analyses,
		CommonThemes:        themes,
		ConflictingFindings: []string{},
		Mode:                mode,
		TotalPapers:         len(analyses),
		GeneratedAt:         s.Now(),
		Err:                 err,
	}
	if strings.TrimSpace(res.Synthesis) == "" {
		res.Synthesis = "Error: Generated synthesis is empty"
		res.Err = ErrBuild
	}
	return res
}

func (s *Synthesizer) errorResult(mode types.SynthesisMode, err error, text string) types.SynthesisResult {
	return types.SynthesisResult{
		Synthesis:           text,
		PaperAnalyses:       []types.PaperAnalysis{},
		CommonThemes:        []string{},
		ConflictingFindings: []string{},
		Mode:                mode,
		TotalPapers:         0,
		GeneratedAt:         s.Now(),
		Err:                 err,
	}
}

// Analyze builds the per-paper analysis for the paper at index i.
func Analyze(i int, p types.PaperRecord) types.PaperAnalysis {
	summary := p.Summary
	if strings.TrimSpace(summary) == "" {
		summary = defaultSummary
	}
	title := p.Title
	if title == "" {
		title = fmt.Sprintf("Paper %d", i+1)
	}
	source := p.Source
	if source == "" {
		source = defaultSource
	}
	authors := p.Authors
	if authors == nil {
		authors = []string{}
	}
	return types.PaperAnalysis{
		Title:       title,
		Authors:     authors,
		Year:        p.Year,
		KeyInsights: Insights(summary),
		Summary:     truncate(summary, maxSummaryChars),
		Source:      source,
	}
}

// Insights returns up to five insight clauses from text, pattern by pattern.
func Insights(text string) []string {
	out := []string{}
	for _, re := range insightPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
			if len(out) == maxInsights {
				return out
			}
		}
	}
	return out
}

// CorpusThemes returns the keywords occurring at least twice in the
// concatenated summaries.
func CorpusThemes(summaries []string) []string {
	all := strings.ToLower(strings.Join(summaries, " "))
	themes := []string{}
	for _, k := range Keywords {
		if strings.Count(all, k) >= themeMinMentions {
			themes = append(themes, k)
		}
	}
	return themes
}

// DistinctThemes returns the keywords occurring in at least two distinct
// summaries.
func DistinctThemes(summaries []string) []string {
	themes := []string{}
	for _, k := range Keywords {
		n := 0
		for _, s := range summaries {
			if strings.Contains(strings.ToLower(s), k) {
				n++
			}
		}
		if n >= themeMinMentions {
			themes = append(themes, k)
		}
	}
	return themes
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
