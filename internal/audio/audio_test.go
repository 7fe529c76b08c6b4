// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-analyzer/internal/storage"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

type fakeEngine struct {
	mu    sync.Mutex
	texts []string
	fn    func(ctx context.Context, text string, w io.Writer) error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Synthesize(ctx context.Context, text, _ string, _ bool, w io.Writer) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return f.fn(ctx, text, w)
}

func okEngine() *fakeEngine {
	return &fakeEngine{fn: func(_ context.Context, _ string, w io.Writer) error {
		_, err := w.Write([]byte("ID3 mp3 bytes"))
		return err
	}}
}

func newRenderer(t *testing.T, e Engine) (*Renderer, *storage.Store) {
	t.Helper()
	st, err := storage.Open(types.StorageConfig{DataDir: filepath.Join(t.TempDir(), "data")}, nil)
	require.NoError(t, err)
	return New(e, st, types.AudioConfig{}, nil), st
}

const narration = "Transformers replace recurrence with attention and train faster on translation benchmarks."

func TestRender_Success(t *testing.T) {
	e := okEngine()
	r, st := newRenderer(t, e)

	art, err := r.Render(context.Background(), narration, "doc-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(art.Path, "data/audio_"), art.Path)
	assert.True(t, strings.HasSuffix(art.Path, ".mp3"))
	assert.Greater(t, art.Size, int64(0))
	assert.Equal(t, "doc-1", art.SourceRef)
	assert.False(t, art.Fallback)

	size, err := st.Size(strings.TrimPrefix(art.Path, "data/"))
	require.NoError(t, err)
	assert.Equal(t, art.Size, size)
}

func TestRender_UniquePaths(t *testing.T) {
	r, _ := newRenderer(t, okEngine())
	a, err := r.Render(context.Background(), narration, "x")
	require.NoError(t, err)
	b, err := r.Render(context.Background(), narration, "x")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

func TestRender_SkipsErrorText(t *testing.T) {
	for _, text := range []string{
		"Error: x",
		"Error: The document contains insufficient readable text for summarization.",
		"Document Processing Error: x",
		"Unable to extract text from PDF. The file may be corrupted.",
	} {
		t.Run(text, func(t *testing.T) {
			e := okEngine()
			r, _ := newRenderer(t, e)
			art, err := r.Render(context.Background(), text, "doc")
			assert.ErrorIs(t, err, ErrSkipped)
			assert.Empty(t, art.Path)
			assert.Empty(t, e.texts)
		})
	}
}

func TestRender_TooShort(t *testing.T) {
	for _, text := range []string{"", "   ", "Hi there", "@@@@ ### !!"} {
		t.Run(text, func(t *testing.T) {
			r, _ := newRenderer(t, okEngine())
			_, err := r.Render(context.Background(), text, "doc")
			assert.Error(t, err)
		})
	}
}

func TestRender_Garbled(t *testing.T) {
	r, _ := newRenderer(t, okEngine())
	_, err := r.Render(context.Background(), strings.Repeat("\ue000\ue001 ab ", 30), "doc")
	assert.ErrorIs(t, err, ErrGarbled)
}

func TestRender_Truncates(t *testing.T) {
	e := okEngine()
	r, _ := newRenderer(t, e)

	long := strings.Repeat("word ", 1000)
	art, err := r.Render(context.Background(), long, "doc")
	require.NoError(t, err)
	assert.True(t, art.Truncated)

	require.Len(t, e.texts, 1)
	sent := e.texts[0]
	assert.True(t, strings.HasSuffix(sent, TruncationSuffix))
	assert.Equal(t, 4000, len([]rune(strings.TrimSuffix(sent, TruncationSuffix))))
}

func TestRender_FallbackUtterance(t *testing.T) {
	var fallbacks int
	e := &fakeEngine{fn: func(_ context.Context, text string, w io.Writer) error {
		if text != "This is a summary of the research paper." {
			return errors.New("engine rejected text")
		}
		_, err := w.Write([]byte("fallback audio"))
		return err
	}}
	r, _ := newRenderer(t, e)
	r.OnFallback = func(error) { fallbacks++ }

	art, err := r.Render(context.Background(), narration, "doc")
	require.NoError(t, err)
	assert.True(t, art.Fallback)
	assert.Greater(t, art.Size, int64(0))
	assert.Equal(t, 1, fallbacks)
	assert.Len(t, e.texts, 2)
}

func TestRender_BothFail(t *testing.T) {
	e := &fakeEngine{fn: func(context.Context, string, io.Writer) error { return errors.New("down") }}
	r, st := newRenderer(t, e)

	art, err := r.Render(context.Background(), narration, "doc")
	assert.ErrorIs(t, err, ErrEngine)
	assert.Empty(t, art.Path)

	n, err := st.CountAudio()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRender_EmptyOutputIsFailure(t *testing.T) {
	e := &fakeEngine{fn: func(context.Context, string, io.Writer) error { return nil }}
	r, _ := newRenderer(t, e)

	_, err := r.Render(context.Background(), narration, "doc")
	assert.ErrorIs(t, err, ErrEngine)
}

func TestRender_EnginePanics(t *testing.T) {
	e := &fakeEngine{fn: func(context.Context, string, io.Writer) error { panic("boom") }}
	r, _ := newRenderer(t, e)

	_, err := r.Render(context.Background(), narration, "doc")
	assert.ErrorIs(t, err, ErrEngine)
}

func TestRender_HangTimesOut(t *testing.T) {
	e := &fakeEngine{fn: func(ctx context.Context, _ string, _ io.Writer) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	r, _ := newRenderer(t, e)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Render(ctx, narration, "doc")
	assert.ErrorIs(t, err, ErrEngine)
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"line one\n\nline two", "line one line two"},
		{"# Heading **bold**", " Heading bold"},
		{"keep (these), punct: yes; no? ok!", "keep (these), punct: yes; no? ok!"},
		{"café naïve", "café naïve"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, truncated := Clean(tt.in, 4000)
			assert.Equal(t, tt.want, got)
			assert.False(t, truncated)
		})
	}
}

func TestChunks(t *testing.T) {
	text := strings.Repeat("alpha beta gamma. ", 20)
	chunks := Chunks(text, 100)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(chunks, " "))

	long := strings.Repeat("x", 250)
	assert.Equal(t, []string{strings.Repeat("x", 100), strings.Repeat("x", 100), strings.Repeat("x", 50)}, Chunks(long, 100))
	assert.Empty(t, Chunks("   ", 100))
}

func TestGoogleTTS(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("q"))
		mu.Unlock()
		assert.Equal(t, "tw-ob", r.URL.Query().Get("client"))
		assert.Equal(t, "en", r.URL.Query().Get("tl"))
		w.Write([]byte("mp3"))
	}))
	defer ts.Close()

	old := ttsAPIBase
	ttsAPIBase = ts.URL
	defer func() { ttsAPIBase = old }()

	g := NewGoogleTTS(types.AudioConfig{})
	var buf strings.Builder
	err := g.Synthesize(context.Background(), strings.Repeat("hello world. ", 20), "en", false, &buf)
	require.NoError(t, err)

	assert.Greater(t, len(queries), 1)
	assert.Equal(t, strings.Repeat("mp3", len(queries)), buf.String())
}

func TestGoogleTTS_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	old := ttsAPIBase
	ttsAPIBase = ts.URL
	defer func() { ttsAPIBase = old }()

	var buf strings.Builder
	err := NewGoogleTTS(types.AudioConfig{}).Synthesize(context.Background(), "hello world", "en", false, &buf)
	assert.Error(t, err)
}
