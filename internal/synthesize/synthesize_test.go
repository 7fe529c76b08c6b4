// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSynth(cfg types.SynthesisConfig) *Synthesizer {
	s := New(cfg, nil)
	s.Now = func() time.Time { return fixedNow }
	return s
}

var twoPapers = []types.PaperRecord{
	{
		Title:   "Efficient Transformers for Vision",
		Authors: []string{"Ada Lovelace", "Alan Turing", "Grace Hopper", "Edsger Dijkstra"},
		Year:    "2021",
		Summary: "We apply machine learning to image recognition. Our results: accuracy improves by four points.",
		Source:  "arxiv",
	},
	{
		Title:   "Sparse Attention at Scale",
		Authors: []string{"Barbara Liskov"},
		Summary: "This study shows that machine learning pipelines benefit from sparse attention.",
	},
}

func TestSynthesize_EmptyInputEveryMode(t *testing.T) {
	for _, mode := range []types.SynthesisMode{types.ModeComprehensive, types.ModeComparative, types.ModeThematic, "bogus", ""} {
		for _, lenient := range []bool{false, true} {
			s := newTestSynth(types.SynthesisConfig{LenientModes: lenient})
			res := s.Synthesize(context.Background(), nil, mode)

			assert.Equal(t, 0, res.TotalPapers)
			assert.NotEmpty(t, strings.TrimSpace(res.Synthesis))
			assert.Equal(t, "Error: No papers provided for synthesis", res.Synthesis)
			assert.ErrorIs(t, res.Err, ErrNoPapers)
			assert.Empty(t, res.PaperAnalyses)
			assert.NotNil(t, res.PaperAnalyses)
		}
	}
}

func TestSynthesize_NoUsablePapers(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	res := s.Synthesize(context.Background(), []types.PaperRecord{{}, {}}, types.ModeComprehensive)

	assert.ErrorIs(t, res.Err, ErrNoUsablePapers)
	assert.Equal(t, 0, res.TotalPapers)
	assert.Equal(t, "Error: No valid papers found for synthesis", res.Synthesis)
}

func TestSynthesize_UnknownMode(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	res := s.Synthesize(context.Background(), twoPapers, "narrative")

	assert.ErrorIs(t, res.Err, ErrUnknownMode)
	assert.Equal(t, 0, res.TotalPapers)
	assert.True(t, strings.HasPrefix(res.Synthesis, "Error: Unsupported synthesis mode"), res.Synthesis)
	assert.Equal(t, types.SynthesisMode("narrative"), res.Mode)
}

func TestSynthesize_UnknownModeLenient(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{LenientModes: true})
	res := s.Synthesize(context.Background(), twoPapers, "narrative")

	require.NoError(t, res.Err)
	assert.True(t, strings.HasPrefix(res.Synthesis, "# Cross-Paper Synthesis Analysis"))
	assert.Equal(t, 2, res.TotalPapers)
}

func TestSynthesize_Comprehensive(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	res := s.Synthesize(context.Background(), twoPapers, types.ModeComprehensive)

	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.TotalPapers)
	assert.Equal(t, fixedNow, res.GeneratedAt)
	assert.Equal(t, types.ModeComprehensive, res.Mode)
	assert.Contains(t, res.CommonThemes, "machine learning")
	assert.NotNil(t, res.ConflictingFindings)

	text := res.Synthesis
	assert.Contains(t, text, "This synthesis analyzes 2 research papers")
	assert.Contains(t, text, "- **Machine Learning**: Appears in multiple studies")
	assert.Contains(t, text, "**Authors**: Ada Lovelace, Alan Turing, Grace Hopper et al.")
	assert.Contains(t, text, "**Year**: N/A")
	assert.Contains(t, text, "**Total Key Insights Identified**: 2")
	assert.Contains(t, text, "**Future Research Directions**:")
}

func TestSynthesize_Comparative(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	res := s.Synthesize(context.Background(), twoPapers, types.ModeComparative)

	require.NoError(t, res.Err)
	assert.Contains(t, res.Synthesis, "| Efficient Transformers for Vis... | Not specified | Standard approach | Comprehensive analysis |")
	assert.Contains(t, res.Synthesis, "| Sparse Attention at Scale... |")
}

func TestSynthesize_Thematic(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	res := s.Synthesize(context.Background(), twoPapers, types.ModeThematic)

	require.NoError(t, res.Err)
	assert.Contains(t, res.Synthesis, "## Theme: Machine Learning")
	assert.Contains(t, res.Synthesis, "- Efficient Transformers for Vision (2021)")
	assert.Contains(t, res.Synthesis, "- Sparse Attention at Scale (N/A)")
}

func TestSynthesize_Defaults(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	res := s.Synthesize(context.Background(), []types.PaperRecord{{Year: "2020"}}, types.ModeComprehensive)

	require.Len(t, res.PaperAnalyses, 1)
	a := res.PaperAnalyses[0]
	assert.Equal(t, "Paper 1", a.Title)
	assert.Equal(t, "No summary available", a.Summary)
	assert.Equal(t, "unknown", a.Source)
	assert.Empty(t, a.KeyInsights)
}

func TestSynthesize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestSynth(types.SynthesisConfig{}).Synthesize(ctx, twoPapers, types.ModeComprehensive)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.NotEmpty(t, res.Synthesis)
}

func TestAnalyze_TruncatesSummary(t *testing.T) {
	a := Analyze(0, types.PaperRecord{Title: "Long", Summary: strings.Repeat("a", 700)})
	assert.Len(t, a.Summary, 503)
	assert.True(t, strings.HasSuffix(a.Summary, "..."))
}

func TestInsights(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"results", "Results: the model converges quickly.", []string{"the model converges quickly."}},
		{"we find", "We find that depth matters.", []string{"that depth matters."}},
		{"study shows", "This study demonstrates robust gains.", []string{"robust gains."}},
		{"none", "Nothing to see here.", []string{}},
		{"capped", strings.Repeat("Findings: one. ", 8), []string{"one.", "one.", "one.", "one.", "one."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Insights(tt.in))
		})
	}
}

func TestThemes(t *testing.T) {
	single := []string{"machine learning and more machine learning"}
	assert.Equal(t, []string{"machine learning"}, CorpusThemes(single))
	assert.Empty(t, DistinctThemes(single))

	both := []string{"Machine Learning for X", "a machine learning view"}
	assert.Equal(t, []string{"machine learning"}, CorpusThemes(both))
	assert.Equal(t, []string{"machine learning"}, DistinctThemes(both))
}

func TestSynthesize_DistinctPaperThemes(t *testing.T) {
	papers := []types.PaperRecord{
		{Title: "One", Summary: "optimization of optimization problems"},
		{Title: "Two", Summary: "graph theory"},
	}
	corpus := newTestSynth(types.SynthesisConfig{}).Synthesize(context.Background(), papers, types.ModeThematic)
	assert.Equal(t, []string{"optimization"}, corpus.CommonThemes)

	distinct := newTestSynth(types.SynthesisConfig{DistinctPaperThemes: true}).Synthesize(context.Background(), papers, types.ModeThematic)
	assert.Empty(t, distinct.CommonThemes)
	assert.NotEmpty(t, distinct.Synthesis)
}

func TestSynthesize_ConcurrentCallsAreIndependent(t *testing.T) {
	s := newTestSynth(types.SynthesisConfig{})
	modes := []types.SynthesisMode{types.ModeComprehensive, types.ModeComparative, types.ModeThematic}

	want := make(map[types.SynthesisMode]string, len(modes))
	for _, m := range modes {
		res := s.Synthesize(context.Background(), twoPapers, m)
		require.False(t, res.Failed())
		want[m] = res.Synthesis
	}
	require.Contains(t, want[types.ModeThematic], "## Theme: Machine Learning")

	var wg sync.WaitGroup
	got := make(chan string, 16*20)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				m := modes[(g+i)%len(modes)]
				res := s.Synthesize(context.Background(), twoPapers, m)
				if res.Synthesis != want[m] {
					got <- string(m)
				}
			}
		}(g)
	}
	wg.Wait()
	close(got)

	var mismatched []string
	for m := range got {
		mismatched = append(mismatched, m)
	}
	assert.Empty(t, mismatched, "narratives differed from the sequential run")
}
