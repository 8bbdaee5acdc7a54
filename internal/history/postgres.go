// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS play_history (
	id        BIGSERIAL PRIMARY KEY,
	video_id  BIGINT NOT NULL,
	entry_id  BIGINT NOT NULL,
	played_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore keeps play history in PostgreSQL.
type PostgresStore struct {
	pool Pool
	now  func() time.Time
}

// NewPostgresStore ensures the schema exists and returns a store over pool.
func NewPostgresStore(ctx context.Context, pool Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

func (s *PostgresStore) RecordPlay(ctx context.Context, videoID, entryID int64) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO play_history (video_id, entry_id, played_at) VALUES ($1, $2, $3)",
		videoID, entryID, s.now().UTC())
	metrics.RecordHistory("postgres", outcome(err))
	if err != nil {
		return fmt.Errorf("history: insert play: %w", err)
	}
	return nil
}

// Recent returns the latest plays, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.PlayRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT video_id, entry_id, played_at FROM play_history ORDER BY played_at DESC, id DESC LIMIT $1",
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	out := []model.PlayRecord{}
	for rows.Next() {
		var rec model.PlayRecord
		if err := rows.Scan(&rec.VideoID, &rec.EntryID, &rec.PlayedAt); err != nil {
			return nil, fmt.Errorf("history: scan play: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
