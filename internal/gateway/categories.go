// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package gateway

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/vodplay/internal/cache"
	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/model"
)

const (
	categoriesKey      = "categories"
	defaultCategoryTTL = 10 * time.Minute
)

// CategoryLister loads the category list from the backend.
type CategoryLister interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

// CategoryResolver maps category ids to the url slugs used by category
// listings. The list is cached as JSON; concurrent misses share one load.
type CategoryResolver struct {
	lister CategoryLister
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
}

// NewCategoryResolver returns a resolver caching in c for ttl.
func NewCategoryResolver(lister CategoryLister, c cache.Cache, ttl time.Duration) *CategoryResolver {
	if ttl <= 0 {
		ttl = defaultCategoryTTL
	}
	return &CategoryResolver{lister: lister, cache: c, ttl: ttl}
}

// Categories returns the cached category list, loading it on a miss.
func (r *CategoryResolver) Categories(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if cache.GetJSON(ctx, r.cache, categoriesKey, &cached) {
		return cached, nil
	}

	v, err, _ := r.group.Do(categoriesKey, func() (any, error) {
		list, err := r.lister.Categories(ctx)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, r.cache, categoriesKey, list, r.ttl); err != nil {
			logger := xglog.WithContext(ctx, xglog.WithComponent("gateway"))
			logger.Warn().Err(err).Msg("failed to cache categories")
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Category), nil
}

// Resolve looks up a category by id.
func (r *CategoryResolver) Resolve(ctx context.Context, id int64) (model.Category, bool, error) {
	list, err := r.Categories(ctx)
	if err != nil {
		return model.Category{}, false, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, true, nil
		}
	}
	return model.Category{}, false, nil
}

// Invalidate drops the cached list.
func (r *CategoryResolver) Invalidate(ctx context.Context) {
	r.cache.Delete(ctx, categoriesKey)
}
