// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const cacheDBFile = "summaries.db"

// SQLiteCache stores model summaries in a SQLite database inside the model
// cache directory.
type SQLiteCache struct {
	db *sql.DB
}

// OpenCache opens or creates dir/summaries.db.
func OpenCache(dir string) (*SQLiteCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, cacheDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS summaries (
			key TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_model ON summaries(model)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached summary for key.
func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var summary string
	err := c.db.QueryRowContext(ctx, `SELECT summary FROM summaries WHERE key = ?`, key).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading summary: %w", err)
	}
	return summary, true, nil
}

// Put stores or replaces the summary for key.
func (c *SQLiteCache) Put(ctx context.Context, key, model, summary string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO summaries (key, model, summary, created_at) VALUES (?, ?, ?, ?)`,
		key, model, summary, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// Count returns the number of cached summaries.
func (c *SQLiteCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM summaries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting summaries: %w", err)
	}
	return n, nil
}
