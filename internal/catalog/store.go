// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
)

// DetailFetcher loads raw video details from the backend.
type DetailFetcher interface {
	VideoDetail(ctx context.Context, id int64) (*model.VideoDetail, error)
}

// Store owns the current video detail. It is the only writer of that record;
// readers get copies.
type Store struct {
	fetcher DetailFetcher
	base    string
	logger  zerolog.Logger

	mu      sync.RWMutex
	current *model.VideoDetail
}

// NewStore creates a Store that normalizes covers against base.
func NewStore(fetcher DetailFetcher, base string) *Store {
	return &Store{
		fetcher: fetcher,
		base:    base,
		logger:  xglog.WithComponent("catalog"),
	}
}

// FetchVideoDetail always fetches id, normalizes it and makes it the current detail.
// Concurrent fetches are not deduplicated; the last one to complete wins.
func (s *Store) FetchVideoDetail(ctx context.Context, id int64) (*model.VideoDetail, error) {
	raw, err := s.fetcher.VideoDetail(ctx, id)
	if err == nil && raw == nil {
		err = wrapError("video_detail", errors.New("empty detail"), http.StatusOK, nil)
	}
	if err != nil {
		metrics.RecordDetailFetch(outcome(err))
		logger := xglog.WithContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "catalog.fetch_failed").
			Int64(xglog.FieldVideoID, id).
			Msg("video detail fetch failed")
		return nil, err
	}
	metrics.RecordDetailFetch("ok")

	detail := Normalize(raw, s.base)
	if detail.ID == 0 {
		detail.ID = id
	}

	s.mu.Lock()
	s.current = detail
	s.mu.Unlock()

	logger := xglog.WithContext(ctx, s.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "catalog.detail_cached").
		Int64(xglog.FieldVideoID, id).
		Int("entries", len(detail.Playlist)).
		Msg("video detail cached")
	return detail.Clone(), nil
}

// Detail returns the current detail when it matches id, fetching otherwise.
func (s *Store) Detail(ctx context.Context, id int64) (*model.VideoDetail, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()

	if cur != nil && cur.ID == id {
		metrics.RecordDetailCache(true)
		return cur.Clone(), nil
	}
	metrics.RecordDetailCache(false)
	return s.FetchVideoDetail(ctx, id)
}

// Current returns a copy of the current detail, or nil.
func (s *Store) Current() *model.VideoDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// BaseURL returns the base used for cover normalization.
func (s *Store) BaseURL() string { return s.base }
