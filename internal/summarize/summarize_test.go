// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

const paperText = `Transformers have become the dominant architecture for sequence modelling tasks. ` +
	`We show that attention alone is sufficient to reach state of the art translation quality. ` +
	`Our experiments cover two benchmark datasets and several model sizes. ` +
	`The results indicate that training cost drops substantially compared with recurrent baselines.`

type fakeModel struct {
	calls int32
	fn    func(ctx context.Context, text string) (string, error)
}

func (f *fakeModel) Name() string { return "fake-model" }

func (f *fakeModel) Summarize(ctx context.Context, text string, _ Params) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(ctx, text)
}

type memCache struct {
	m map[string]string
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key, _, summary string) error {
	c.m[key] = summary
	return nil
}

func doc(text string) types.Document {
	return types.Document{ID: "doc-1", Source: "paper.pdf", Text: text}
}

func TestSummarize_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
		prefix  string
	}{
		{"empty", "   ", ErrInvalidInput, "Error: Invalid text"},
		{"extraction sentinel", "Unable to extract text from PDF. The file may be corrupted.", ErrExtractionSentinel, "Document Processing Error: Unable to extract"},
		{"garbled", strings.Repeat("\x01\x02\x03 abc ", 40), ErrGarbled, "Error: The document contains unreadable"},
		{"short after cleanup", "Page 1 of 3. A short note about results and nothing else at all here.", ErrInsufficientText, "Error: The document contains insufficient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{fn: func(context.Context, string) (string, error) {
				return "a perfectly good model summary of the paper", nil
			}}
			s := New(m, nil, types.SummarizerConfig{}, nil)

			_, err := s.Summarize(context.Background(), doc(tt.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var rej *Rejection
			require.True(t, errors.As(err, &rej))
			assert.True(t, strings.HasPrefix(rej.Error(), tt.prefix), rej.Error())
			assert.True(t, IsErrorText(rej.Error()))
			assert.Equal(t, int32(0), atomic.LoadInt32(&m.calls), "model must not be called")
		})
	}
}

func TestSummarize_ModelPath(t *testing.T) {
	m := &fakeModel{fn: func(_ context.Context, text string) (string, error) {
		return "  Attention alone reaches state of the art translation.  ", nil
	}}
	s := New(m, nil, types.SummarizerConfig{}, nil)

	got, err := s.Summarize(context.Background(), doc(paperText))
	require.NoError(t, err)
	assert.Equal(t, "Attention alone reaches state of the art translation.", got.Text)
	assert.Equal(t, types.ProvenanceModel, got.Provenance)
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "fake-model", got.Model)
}

func TestSummarize_InputTruncated(t *testing.T) {
	var seen string
	m := &fakeModel{fn: func(_ context.Context, text string) (string, error) {
		seen = text
		return "a perfectly good model summary of the paper", nil
	}}
	s := New(m, nil, types.SummarizerConfig{MaxInputChars: 120}, nil)

	_, err := s.Summarize(context.Background(), doc(paperText))
	require.NoError(t, err)
	assert.Len(t, seen, 120)
}

func TestSummarize_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, text string) (string, error)
	}{
		{"error", func(context.Context, string) (string, error) { return "", errors.New("model load failed") }},
		{"panic", func(context.Context, string) (string, error) { panic("boom") }},
		{"offline", func(context.Context, string) (string, error) { return "", ErrOffline }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fallbacks int
			s := New(&fakeModel{fn: tt.fn}, nil, types.SummarizerConfig{}, nil)
			s.OnFallback = func(error) { fallbacks++ }

			got, err := s.Summarize(context.Background(), doc(paperText))
			require.NoError(t, err)
			assert.Equal(t, types.ProvenanceFallback, got.Provenance)
			assert.True(t, strings.HasPrefix(got.Text, FallbackPrefix), got.Text)
			assert.Equal(t, 1, fallbacks)
		})
	}
}

// Model output under the minimum length is a model failure: the caller gets
// the extractive summary rather than an error string.
func TestSummarize_ShortModelOutputFallsBackInsteadOfErroring(t *testing.T) {
	var fallbackErr error
	s := New(&fakeModel{fn: func(context.Context, string) (string, error) { return "too short", nil }}, nil, types.SummarizerConfig{}, nil)
	s.OnFallback = func(err error) { fallbackErr = err }

	got, err := s.Summarize(context.Background(), doc(paperText))
	require.NoError(t, err)
	assert.Equal(t, types.ProvenanceFallback, got.Provenance)
	assert.True(t, strings.HasPrefix(got.Text, FallbackPrefix), got.Text)
	assert.False(t, IsErrorText(got.Text))
	assert.ErrorIs(t, fallbackErr, ErrShortOutput)
}

func TestSummarize_HangTimesOutToFallback(t *testing.T) {
	m := &fakeModel{fn: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := New(m, nil, types.SummarizerConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := s.Summarize(ctx, doc(paperText))
	require.NoError(t, err)
	assert.Equal(t, types.ProvenanceFallback, got.Provenance)
}

func TestSummarize_NilModelUsesFallback(t *testing.T) {
	s := New(nil, nil, types.SummarizerConfig{}, nil)
	got, err := s.Summarize(context.Background(), doc(paperText))
	require.NoError(t, err)
	assert.Equal(t, types.ProvenanceFallback, got.Provenance)
	assert.Empty(t, got.Model)
}

func TestSummarize_CacheHit(t *testing.T) {
	m := &fakeModel{fn: func(context.Context, string) (string, error) {
		return "a perfectly good model summary of the paper", nil
	}}
	c := &memCache{m: map[string]string{}}
	s := New(m, c, types.SummarizerConfig{}, nil)

	first, err := s.Summarize(context.Background(), doc(paperText))
	require.NoError(t, err)
	assert.Equal(t, types.ProvenanceModel, first.Provenance)

	second, err := s.Summarize(context.Background(), doc(paperText))
	require.NoError(t, err)
	assert.Equal(t, types.ProvenanceCache, second.Provenance)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.calls))
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\n\n b\t c", "a b c"},
		{"café au lait", "caf au lait"},
		{"see page 4 and 2 of 10 here", "see and here"},
		{"wait... what!!!", "wait. what."},
		{"bell\x07 char", "bell char"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestFallback(t *testing.T) {
	got, err := Fallback(Clean(paperText))
	require.NoError(t, err)
	assert.Equal(t, FallbackPrefix+
		"Transformers have become the dominant architecture for sequence modelling tasks. "+
		"We show that attention alone is sufficient to reach state of the art translation quality. "+
		"Our experiments cover two benchmark datasets and several model sizes.", got)

	long := strings.Repeat("x", 600) + ". Another sentence that is long enough to count."
	got, err = Fallback(long)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, len(FallbackPrefix)+500+3)

	_, err = Fallback(strings.Repeat("tiny. ", 30))
	assert.ErrorIs(t, err, ErrNoSentences)

	_, err = Fallback("short")
	assert.ErrorIs(t, err, ErrInsufficientText)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("m", "text"), CacheKey("m", "text"))
	assert.NotEqual(t, CacheKey("m", "text"), CacheKey("n", "text"))
	assert.NotEqual(t, CacheKey("mt", "ext"), CacheKey("m", "text"))
	assert.Len(t, CacheKey("m", "text"), 64)
}

func TestHFModel(t *testing.T) {
	var gotAuth string
	var gotReq inferenceRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/facebook/bart-large-cnn", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`[{"summary_text":"A concise model summary."}]`))
	}))
	defer ts.Close()

	m := NewHFModel(types.SummarizerConfig{Model: "facebook/bart-large-cnn", BaseURL: ts.URL, APIKey: "k"})
	out, err := m.Summarize(context.Background(), "input text", Params{MaxLength: 130, MinLength: 30})
	require.NoError(t, err)

	assert.Equal(t, "A concise model summary.", out)
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "input text", gotReq.Inputs)
	assert.Equal(t, 130, gotReq.Parameters.MaxLength)
	assert.True(t, gotReq.Options.WaitForModel)
}

func TestHFModel_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"error field", http.StatusServiceUnavailable, `{"error":"Model is currently loading"}`},
		{"bad status", http.StatusInternalServerError, `[]`},
		{"missing text", http.StatusOK, `[{"generated_text":"x"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			m := NewHFModel(types.SummarizerConfig{Model: "m", BaseURL: ts.URL})
			_, err := m.Summarize(context.Background(), "text", Params{})
			assert.Error(t, err)
		})
	}
}

func TestHFModel_Offline(t *testing.T) {
	m := NewHFModel(types.SummarizerConfig{Model: "m", Offline: true})
	_, err := m.Summarize(context.Background(), "text", Params{})
	assert.ErrorIs(t, err, ErrOffline)
}

func TestSQLiteCache(t *testing.T) {
	c, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", "m", "first"))
	require.NoError(t, c.Put(ctx, "k", "m", "second"))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", got)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
