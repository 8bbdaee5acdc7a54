// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package history records completed plays locally and with the backend.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
)

const defaultRecentLimit = 50

// Sink receives completed plays.
type Sink interface {
	RecordPlay(ctx context.Context, videoID, entryID int64) error
}

// Store is a Sink that can be queried.
type Store interface {
	Sink
	Recent(ctx context.Context, limit int) ([]model.PlayRecord, error)
	Close() error
}

// PlayLogger is the backend endpoint for play history.
type PlayLogger interface {
	PostPlayLog(ctx context.Context, videoID, entryID int64) error
}

// Remote forwards plays to the backend.
type Remote struct {
	Logger PlayLogger
}

func (r Remote) RecordPlay(ctx context.Context, videoID, entryID int64) error {
	err := r.Logger.PostPlayLog(ctx, videoID, entryID)
	metrics.RecordHistory("remote", outcome(err))
	return err
}

// Tee fans a play out to every sink. All sinks are attempted; the first
// error is returned.
type Tee []Sink

func (t Tee) RecordPlay(ctx context.Context, videoID, entryID int64) error {
	var first error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.RecordPlay(ctx, videoID, entryID); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open selects a store by DSN: postgres:// or postgresql:// URLs open a pgx
// pool, anything else is a SQLite path. An empty DSN returns a nil store.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "":
		return nil, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("history: connect postgres: %w", err)
		}
		store, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		store, err := OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

var errClosed = errors.New("history: store closed")

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultRecentLimit
	}
	return limit
}
