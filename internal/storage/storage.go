// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage manages the flat data directory that holds uploaded source
// documents, their YAML sidecar records, and generated audio files. Every
// file name carries a fresh random identifier, so writers never collide and
// nothing is overwritten.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-analyzer/pkg/types"
)

const (
	audioPrefix = "audio_"
	audioExt    = ".mp3"
	recordExt   = ".yaml"
	tempPattern = ".tmp-*"

	// URLPrefix is the path under which the server exposes the directory.
	URLPrefix = "data"
)

// ErrNotFound is returned when a referenced artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Record is the sidecar written next to each stored source document.
type Record struct {
	ID            string                 `yaml:"id"`
	File          string                 `yaml:"file"`
	OriginalName  string                 `yaml:"original_name,omitempty"`
	Source        string                 `yaml:"source"`
	SourceKind    types.SourceKind       `yaml:"source_kind"`
	ContentKind   types.ContentKind      `yaml:"content_kind,omitempty"`
	Size          int64                  `yaml:"size"`
	SavedAt       time.Time              `yaml:"saved_at"`
	Status        types.ExtractionStatus `yaml:"status,omitempty"`
	Method        string                 `yaml:"method,omitempty"`
	FailureReason string                 `yaml:"failure_reason,omitempty"`
	Metadata      *types.Metadata        `yaml:"metadata,omitempty"`
}

// Store is a handle on the data directory.
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// Open creates the data directory if needed and returns a Store for it.
func Open(cfg types.StorageConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := cfg.DataDir
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

// NewID returns a fresh artifact identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SaveSource writes raw source bytes under a new identifier, keeping the
// extension of name, and writes the sidecar record. The returned record
// has ID, File, Size, and SavedAt filled in.
func (s *Store) SaveSource(name string, raw []byte, rec Record) (Record, error) {
	rec.ID = NewID()
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 6 {
		ext = ".bin"
	}
	rec.File = rec.ID + ext
	rec.OriginalName = filepath.Base(name)
	rec.Size = int64(len(raw))
	rec.SavedAt = s.now().UTC()

	if err := writeAtomic(filepath.Join(s.dir, rec.File), raw); err != nil {
		return rec, fmt.Errorf("writing source %s: %w", rec.File, err)
	}
	if err := s.WriteRecord(rec); err != nil {
		return rec, err
	}
	s.logger.Debug("source stored", zap.String("id", rec.ID), zap.String("file", rec.File), zap.Int64("size", rec.Size))
	return rec, nil
}

// WriteRecord writes or replaces the sidecar for rec.ID.
func (s *Store) WriteRecord(rec Record) error {
	if rec.ID == "" {
		return errors.New("record has no id")
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", rec.ID, err)
	}
	if err := writeAtomic(filepath.Join(s.dir, rec.ID+recordExt), data); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ID, err)
	}
	return nil
}

// ReadRecord loads the sidecar for id.
func (s *Store) ReadRecord(id string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(id)+recordExt))
	if errors.Is(err, os.ErrNotExist) {
		return rec, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("reading record %s: %w", id, err)
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parsing record %s: %w", id, err)
	}
	return rec, nil
}

// WriteAudio streams an audio file through write into a temporary file and
// renames it to audio_<id>.mp3. It returns the file name and its size.
func (s *Store) WriteAudio(write func(w io.Writer) error) (name string, size int64, err error) {
	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return "", 0, fmt.Errorf("creating temp audio file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err = tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("closing temp audio file: %w", err)
	}

	name = audioPrefix + NewID() + audioExt
	if err = os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", 0, fmt.Errorf("renaming audio file: %w", err)
	}
	size, err = s.Size(name)
	return name, size, err
}

// Size returns the size of the named file in the data directory.
func (s *Store) Size(name string) (int64, error) {
	fi, err := os.Stat(filepath.Join(s.dir, filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// RefPath returns the client-facing path for a stored file, for example
// "data/audio_ab12.mp3".
func RefPath(name string) string {
	return path.Join(URLPrefix, name)
}

// CountAudio returns the number of .mp3 files in the data directory.
func (s *Store) CountAudio() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading data directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), audioExt) {
			n++
		}
	}
	return n, nil
}

func writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPattern)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
