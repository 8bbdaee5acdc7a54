// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vodplay/internal/model"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[int64]int
	details map[int64]*model.VideoDetail
	errs    map[int64]error
	gates   map[int64]chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:   map[int64]int{},
		details: map[int64]*model.VideoDetail{},
		errs:    map[int64]error{},
		gates:   map[int64]chan struct{}{},
	}
}

func (f *fakeFetcher) VideoDetail(ctx context.Context, id int64) (*model.VideoDetail, error) {
	f.mu.Lock()
	f.calls[id]++
	gate := f.gates[id]
	d, err := f.details[id], f.errs[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return d.Clone(), nil
}

func (f *fakeFetcher) callCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func detail(id int64, playlistTitles ...string) *model.VideoDetail {
	d := &model.VideoDetail{Video: model.Video{ID: id, Title: "video", Cover: "/cover.jpg"}}
	for i, t := range playlistTitles {
		d.Playlist = append(d.Playlist, model.PlaylistEntry{ID: id*100 + int64(i), Title: t})
	}
	return d
}

func TestStore_FetchNormalizesAndCaches(t *testing.T) {
	f := newFakeFetcher()
	f.details[5] = detail(5, "10", "2")
	s := NewStore(f, "https://cdn.example")

	d, err := s.FetchVideoDetail(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/cover.jpg", d.Cover)
	assert.Equal(t, []string{"2", "10"}, titles(d.Playlist))

	cur := s.Current()
	require.NotNil(t, cur)
	assert.Equal(t, int64(5), cur.ID)
}

func TestStore_DetailReusesMatchingCurrent(t *testing.T) {
	f := newFakeFetcher()
	f.details[5] = detail(5, "1")
	f.details[7] = detail(7, "1")
	s := NewStore(f, "https://cdn.example")
	ctx := context.Background()

	_, err := s.Detail(ctx, 5)
	require.NoError(t, err)
	_, err = s.Detail(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, f.callCount(5), "matching current detail must not refetch")

	_, err = s.Detail(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Current().ID, "different id replaces the current detail")

	_, err = s.FetchVideoDetail(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, f.callCount(7), "FetchVideoDetail always fetches")
}

func TestStore_ErrorsKeepCurrent(t *testing.T) {
	f := newFakeFetcher()
	f.details[5] = detail(5, "1")
	f.errs[9] = wrapError("video_detail", nil, 404, nil)
	s := NewStore(f, "")
	ctx := context.Background()

	_, err := s.Detail(ctx, 5)
	require.NoError(t, err)

	_, err = s.Detail(ctx, 9)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(5), s.Current().ID)
}

func TestStore_CurrentIsReadOnlyCopy(t *testing.T) {
	f := newFakeFetcher()
	f.details[5] = detail(5, "1")
	s := NewStore(f, "")

	d, err := s.Detail(context.Background(), 5)
	require.NoError(t, err)
	d.Title = "mutated"
	d.Playlist[0].Title = "mutated"

	cur := s.Current()
	assert.Equal(t, "video", cur.Title)
	assert.Equal(t, "1", cur.Playlist[0].Title)
	assert.Nil(t, NewStore(f, "").Current())
}

func TestStore_LatestCompletedWriteWins(t *testing.T) {
	f := newFakeFetcher()
	f.details[5] = detail(5, "1")
	f.details[7] = detail(7, "1")
	f.gates[5] = make(chan struct{})
	s := NewStore(f, "")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.FetchVideoDetail(ctx, 5)
		done <- err
	}()

	_, err := s.FetchVideoDetail(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Current().ID)

	close(f.gates[5])
	require.NoError(t, <-done)
	assert.Equal(t, int64(5), s.Current().ID, "the store keeps the last completed response")
}

func TestStore_FillsMissingID(t *testing.T) {
	f := newFakeFetcher()
	f.details[3] = &model.VideoDetail{}
	s := NewStore(f, "")
	d, err := s.FetchVideoDetail(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.ID)
}

func TestStore_PropagatesCancellation(t *testing.T) {
	f := newFakeFetcher()
	f.gates[5] = make(chan struct{})
	s := NewStore(f, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchVideoDetail(ctx, 5)
	assert.True(t, errors.Is(err, context.Canceled))
}
