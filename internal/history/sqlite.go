// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/persistence/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS play_history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id  INTEGER NOT NULL,
	entry_id  INTEGER NOT NULL,
	played_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history (played_at DESC);
`

// SQLiteStore keeps play history in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// OpenSQLite opens (creating if needed) the history database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: create %s: %w", dir, err)
		}
	}
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) RecordPlay(ctx context.Context, videoID, entryID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO play_history (video_id, entry_id, played_at) VALUES (?, ?, ?)",
		videoID, entryID, s.now().UnixMilli())
	metrics.RecordHistory("sqlite", outcome(err))
	if err != nil {
		return fmt.Errorf("history: insert play: %w", err)
	}
	return nil
}

// Recent returns the latest plays, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.PlayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT video_id, entry_id, played_at FROM play_history ORDER BY played_at DESC, id DESC LIMIT ?",
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.PlayRecord{}
	for rows.Next() {
		var rec model.PlayRecord
		var playedAt int64
		if err := rows.Scan(&rec.VideoID, &rec.EntryID, &playedAt); err != nil {
			return nil, fmt.Errorf("history: scan play: %w", err)
		}
		rec.PlayedAt = time.UnixMilli(playedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		err = s.db.Close()
	})
	return err
}
