// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vodplay/internal/cache"
	"github.com/ManuGH/vodplay/internal/catalog"
	"github.com/ManuGH/vodplay/internal/model"
)

type fakeBackend struct {
	mu             sync.Mutex
	categoryCalls  atomic.Int32
	reports        []model.Report
	categoryPages  []string
	categories     []model.Category
	categoriesErr  error
	recommendErr   error
	recommendDelay time.Duration
}

func (b *fakeBackend) Categories(context.Context) ([]model.Category, error) {
	b.categoryCalls.Add(1)
	if b.categoriesErr != nil {
		return nil, b.categoriesErr
	}
	return b.categories, nil
}

func (b *fakeBackend) Recommend(_ context.Context, page int) (model.Page[model.Video], error) {
	return model.Page[model.Video]{Data: []model.Video{{ID: 1}}, Page: page}, nil
}

func (b *fakeBackend) RecommendFor(context.Context, int64) ([]model.Video, error) {
	if b.recommendDelay > 0 {
		time.Sleep(b.recommendDelay)
	}
	if b.recommendErr != nil {
		return nil, b.recommendErr
	}
	return []model.Video{{ID: 2, Title: "related"}}, nil
}

func (b *fakeBackend) CategoryVideos(_ context.Context, category string, page int) (model.Page[model.Video], error) {
	b.mu.Lock()
	b.categoryPages = append(b.categoryPages, category)
	b.mu.Unlock()
	return model.Page[model.Video]{Data: []model.Video{{ID: 3, Category: category}}, Page: page}, nil
}

func (b *fakeBackend) Search(_ context.Context, keywords string, page int) (model.Page[model.Video], error) {
	return model.Page[model.Video]{Data: []model.Video{{ID: 4, Title: keywords}}, Page: page}, nil
}

func (b *fakeBackend) PostReport(_ context.Context, r model.Report) (model.Ack, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, r)
	return model.Ack{OK: true}, nil
}

type fakeDetails struct {
	detail *model.VideoDetail
	err    error
}

func (f fakeDetails) FetchVideoDetail(context.Context, int64) (*model.VideoDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail.Clone(), nil
}

func newTestGateway(t *testing.T, b *fakeBackend, enabled *atomic.Bool, details DetailFetcher) *Gateway {
	t.Helper()
	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return New(b, Options{
		RecommendEnabled: enabled.Load,
		Categories:       NewCategoryResolver(b, c, time.Minute),
		Details:          details,
		Location:         time.UTC,
	})
}

func enabledFlag(v bool) *atomic.Bool {
	var b atomic.Bool
	b.Store(v)
	return &b
}

func TestSubmitReport_Validation(t *testing.T) {
	b := &fakeBackend{}
	g := newTestGateway(t, b, enabledFlag(true), nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := g.SubmitReport(context.Background(), text, 5, 51)
		require.ErrorIs(t, err, ErrValidation)
	}
	_, err := g.SubmitReport(context.Background(), "no sound", 0, 51)
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, b.reports, "rejected reports must not reach the backend")

	ack, err := g.SubmitReport(context.Background(), "  no sound  ", 5, 51)
	require.NoError(t, err)
	assert.True(t, ack.OK)
	assert.Equal(t, []model.Report{{Text: "no sound", VideoID: 5, EntryID: 51}}, b.reports)
}

func TestFetchRecommendedByCategory(t *testing.T) {
	b := &fakeBackend{categories: []model.Category{{ID: 3, Name: "Drama", URL: "drama"}}}
	enabled := enabledFlag(true)
	g := newTestGateway(t, b, enabled, nil)

	list, err := g.FetchRecommendedByCategory(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "drama", list[0].Category)

	list, err = g.FetchRecommendedByCategory(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, list, "unknown category yields nothing")
	assert.Equal(t, int32(1), b.categoryCalls.Load(), "category list is cached")

	enabled.Store(false)
	list, err = g.FetchRecommendedByCategory(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, list)
	assert.Equal(t, []string{"drama"}, b.categoryPages, "disabled recommendations make no call")
}

func TestFetchRecommendedByCategory_ListError(t *testing.T) {
	b := &fakeBackend{categoriesErr: catalog.ErrNetwork}
	g := newTestGateway(t, b, enabledFlag(true), nil)
	_, err := g.FetchRecommendedByCategory(context.Background(), 3)
	require.ErrorIs(t, err, catalog.ErrNetwork)
}

func TestPassThroughs(t *testing.T) {
	b := &fakeBackend{}
	g := newTestGateway(t, b, enabledFlag(true), nil)

	home, err := g.Home(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, home.Page)

	cat, err := g.Category(context.Background(), "anime", 1)
	require.NoError(t, err)
	assert.Equal(t, "anime", cat.Data[0].Category)

	found, err := g.Search(context.Background(), "space", 1)
	require.NoError(t, err)
	assert.Equal(t, "space", found.Data[0].Title)

	rec, err := g.FetchRecommended(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, rec, 1)
}

func TestCategoryResolver_SharedLoadAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	b := &fakeBackend{categories: []model.Category{{ID: 1, URL: "movie"}, {ID: 2, URL: "tv"}}}
	r := NewCategoryResolver(b, rc, time.Minute)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Categories(context.Background())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, b.categoryCalls.Load(), int32(8))

	cat, ok, err := r.Resolve(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tv", cat.URL)
	calls := b.categoryCalls.Load()

	mr.FastForward(2 * time.Minute)
	_, _, err = r.Resolve(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, calls+1, b.categoryCalls.Load(), "expired list is reloaded")

	r.Invalidate(context.Background())
	_, err = r.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls+2, b.categoryCalls.Load())
}

func TestDetailPage(t *testing.T) {
	detail := &model.VideoDetail{
		Video: model.Video{ID: 5, Title: "Show", Category: "Drama", CategoryID: 3, PublishedAt: 1700000000},
		Playlist: []model.PlaylistEntry{
			{ID: 51, Title: "1", Src: "https://cdn/1.m3u8"},
			{ID: 52, Title: "2", Src: "https://cdn/2.m3u8"},
		},
	}
	b := &fakeBackend{categories: []model.Category{{ID: 3, URL: "drama"}}}
	g := newTestGateway(t, b, enabledFlag(true), fakeDetails{detail: detail})

	page, err := g.DetailPage(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Detail.ID)
	require.NotNil(t, page.DefaultEntry)
	assert.Equal(t, int64(51), page.DefaultEntry.ID)
	assert.Len(t, page.Recommended, 1)
	assert.Len(t, page.SameCategory, 1)
	assert.Equal(t, []model.InfoItem{
		{Key: catalog.InfoCategory, Label: "Category", Value: "Drama"},
		{Key: catalog.InfoPublished, Label: "Published", Value: "2023-11-14"},
	}, page.Info)
}

func TestDetailPage_PartialOnRecommendFailure(t *testing.T) {
	detail := &model.VideoDetail{Video: model.Video{ID: 5, Title: "Show", CategoryID: 3}}
	b := &fakeBackend{recommendErr: catalog.ErrNetwork, categoriesErr: catalog.ErrNetwork}
	g := newTestGateway(t, b, enabledFlag(true), fakeDetails{detail: detail})

	page, err := g.DetailPage(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, page.Recommended)
	assert.Empty(t, page.Recommended)
	assert.Empty(t, page.SameCategory)
	assert.Nil(t, page.DefaultEntry)
}

func TestDetailPage_DetailErrorFails(t *testing.T) {
	b := &fakeBackend{recommendDelay: 10 * time.Millisecond}
	g := newTestGateway(t, b, enabledFlag(false), fakeDetails{err: catalog.ErrNotFound})

	_, err := g.DetailPage(context.Background(), 5)
	require.True(t, errors.Is(err, catalog.ErrNotFound))
}
