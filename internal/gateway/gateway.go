// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package gateway maps recommendation, listing and report requests onto the
// catalog backend.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
)

// ErrValidation is returned for requests rejected before reaching the backend.
var ErrValidation = errors.New("validation failed")

// Backend is the subset of the catalog client the gateway relies on.
type Backend interface {
	CategoryLister
	Recommend(ctx context.Context, page int) (model.Page[model.Video], error)
	RecommendFor(ctx context.Context, videoID int64) ([]model.Video, error)
	CategoryVideos(ctx context.Context, category string, page int) (model.Page[model.Video], error)
	Search(ctx context.Context, keywords string, page int) (model.Page[model.Video], error)
	PostReport(ctx context.Context, r model.Report) (model.Ack, error)
}

// DetailFetcher loads and caches a video detail.
type DetailFetcher interface {
	FetchVideoDetail(ctx context.Context, id int64) (*model.VideoDetail, error)
}

// Options configures a Gateway.
type Options struct {
	// RecommendEnabled is consulted on every call so config reloads apply.
	RecommendEnabled func() bool
	Categories       *CategoryResolver
	Details          DetailFetcher
	Location         *time.Location
}

// Gateway is a thin request/response layer over the backend.
type Gateway struct {
	backend    Backend
	categories *CategoryResolver
	details    DetailFetcher
	recommend  func() bool
	loc        *time.Location
	logger     zerolog.Logger
}

func New(backend Backend, opts Options) *Gateway {
	if opts.RecommendEnabled == nil {
		opts.RecommendEnabled = func() bool { return true }
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Gateway{
		backend:    backend,
		categories: opts.Categories,
		details:    opts.Details,
		recommend:  opts.RecommendEnabled,
		loc:        opts.Location,
		logger:     xglog.WithComponent("gateway"),
	}
}

// FetchRecommended returns videos recommended alongside videoID.
func (g *Gateway) FetchRecommended(ctx context.Context, videoID int64) ([]model.Video, error) {
	list, err := g.backend.RecommendFor(ctx, videoID)
	metrics.RecordRecommend("video", outcome(err))
	if err != nil {
		return nil, err
	}
	return list, nil
}

// FetchRecommendedByCategory returns the first page of the category of
// categoryID. It returns nil without a backend call when recommendations are
// disabled, and nil when the category is unknown.
func (g *Gateway) FetchRecommendedByCategory(ctx context.Context, categoryID int64) ([]model.Video, error) {
	if !g.recommend() {
		metrics.RecordRecommend("category", "disabled")
		return nil, nil
	}
	if g.categories == nil {
		return nil, nil
	}
	cat, ok, err := g.categories.Resolve(ctx, categoryID)
	if err != nil {
		metrics.RecordRecommend("category", outcome(err))
		return nil, err
	}
	if !ok {
		metrics.RecordRecommend("category", "unknown_category")
		return nil, nil
	}
	page, err := g.backend.CategoryVideos(ctx, cat.URL, 1)
	metrics.RecordRecommend("category", outcome(err))
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// SubmitReport forwards a viewer report. Blank text or a missing video id is
// rejected with ErrValidation and nothing is sent.
func (g *Gateway) SubmitReport(ctx context.Context, text string, videoID, entryID int64) (model.Ack, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.RecordReport("invalid")
		return model.Ack{}, fmt.Errorf("%w: report text is empty", ErrValidation)
	}
	if videoID <= 0 {
		metrics.RecordReport("invalid")
		return model.Ack{}, fmt.Errorf("%w: video id is required", ErrValidation)
	}

	ack, err := g.backend.PostReport(ctx, model.Report{Text: text, VideoID: videoID, EntryID: entryID})
	if err != nil {
		metrics.RecordReport("error")
		logger := xglog.WithContext(ctx, g.logger)
		logger.Warn().
			Err(err).
			Int64(xglog.FieldVideoID, videoID).
			Int64(xglog.FieldPlayID, entryID).
			Msg("report submission failed")
		return model.Ack{}, err
	}
	metrics.RecordReport("ok")
	return ack, nil
}

// Home returns a page of home recommendations.
func (g *Gateway) Home(ctx context.Context, page int) (model.Page[model.Video], error) {
	return g.backend.Recommend(ctx, page)
}

// Category returns a page of the named category.
func (g *Gateway) Category(ctx context.Context, category string, page int) (model.Page[model.Video], error) {
	return g.backend.CategoryVideos(ctx, category, page)
}

// Search returns a page of search results.
func (g *Gateway) Search(ctx context.Context, keywords string, page int) (model.Page[model.Video], error) {
	return g.backend.Search(ctx, keywords, page)
}

// Categories returns the cached category list.
func (g *Gateway) Categories(ctx context.Context) ([]model.Category, error) {
	if g.categories == nil {
		return g.backend.Categories(ctx)
	}
	return g.categories.Categories(ctx)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
