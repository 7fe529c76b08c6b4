// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StorageConfig{DataDir: filepath.Join(t.TempDir(), "data")}, nil)
	require.NoError(t, err)
	return s
}

func TestSaveSourceAndRecord(t *testing.T) {
	s := openTemp(t)

	rec, err := s.SaveSource("Paper.PDF", []byte("%PDF-1.4 body"), Record{
		Source:     "Paper.PDF",
		SourceKind: types.SourceUpload,
	})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 32)
	assert.Equal(t, rec.ID+".pdf", rec.File)
	assert.Equal(t, int64(13), rec.Size)

	data, err := os.ReadFile(filepath.Join(s.Dir(), rec.File))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	rec.Status = types.ExtractionFailed
	rec.FailureReason = "protected"
	require.NoError(t, s.WriteRecord(rec))

	got, err := s.ReadRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionFailed, got.Status)
	assert.Equal(t, "protected", got.FailureReason)
	assert.Equal(t, "Paper.PDF", got.OriginalName)
	assert.Equal(t, types.SourceUpload, got.SourceKind)
}

func TestSaveSource_UniqueNames(t *testing.T) {
	s := openTemp(t)
	a, err := s.SaveSource("x.pdf", []byte("a"), Record{})
	require.NoError(t, err)
	b, err := s.SaveSource("x.pdf", []byte("b"), Record{})
	require.NoError(t, err)
	assert.NotEqual(t, a.File, b.File)
}

func TestSaveSource_NoExtension(t *testing.T) {
	s := openTemp(t)
	rec, err := s.SaveSource("https://example.org/paper", []byte("x"), Record{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.File, ".bin"), rec.File)
}

func TestReadRecord_NotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.ReadRecord("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteAudio(t *testing.T) {
	s := openTemp(t)

	name, size, err := s.WriteAudio(func(w io.Writer) error {
		_, err := w.Write([]byte("ID3 fake mp3"))
		return err
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "audio_"))
	assert.True(t, strings.HasSuffix(name, ".mp3"))
	assert.Equal(t, int64(12), size)
	assert.Equal(t, "data/"+name, RefPath(name))

	n, err := s.CountAudio()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteAudio_WriterErrorLeavesNothing(t *testing.T) {
	s := openTemp(t)
	_, _, err := s.WriteAudio(func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("engine failed")
	})
	require.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweep(t *testing.T) {
	s := openTemp(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	write := func(name string, body string, age time.Duration) {
		p := filepath.Join(s.Dir(), name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		mt := now.Add(-age)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}
	write("audio_empty.mp3", "", time.Minute)
	write("audio_old.mp3", "data", 48*time.Hour)
	write("audio_new.mp3", "data", time.Minute)
	write(".tmp-123", "x", 2*time.Hour)
	write(".tmp-456", "x", time.Minute)
	write("abc.pdf", "", 100*time.Hour)

	res, err := s.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Empty)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Temp)
	assert.Equal(t, 1, res.Kept)
	assert.Equal(t, 3, res.Removed())

	for _, gone := range []string{"audio_empty.mp3", "audio_old.mp3", ".tmp-123"} {
		_, err := os.Stat(filepath.Join(s.Dir(), gone))
		assert.True(t, os.IsNotExist(err), gone)
	}
	for _, kept := range []string{"audio_new.mp3", ".tmp-456", "abc.pdf"} {
		_, err := os.Stat(filepath.Join(s.Dir(), kept))
		assert.NoError(t, err, kept)
	}
}

func TestSweep_ZeroRetentionKeepsAudio(t *testing.T) {
	s := openTemp(t)
	p := filepath.Join(s.Dir(), "audio_old.mp3")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
	old := time.Now().Add(-1000 * time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	res, err := s.Sweep(0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed())
	assert.Equal(t, 1, res.Kept)
}

func TestRunSweeper(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "audio_empty.mp3"), nil, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan SweepResult, 4)
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Millisecond, 0, func(r SweepResult) {
			select {
			case results <- r:
			default:
			}
		})
		close(done)
	}()

	select {
	case r := <-results:
		assert.Equal(t, 1, r.Empty)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestRunSweeper_ZeroIntervalReturns(t *testing.T) {
	s := openTemp(t)
	s.RunSweeper(context.Background(), 0, time.Hour, nil)
}
