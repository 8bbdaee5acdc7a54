// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/vodplay/internal/model"
)

func titles(entries []model.PlaylistEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func entries(ts ...string) []model.PlaylistEntry {
	out := make([]model.PlaylistEntry, len(ts))
	for i, t := range ts {
		out[i] = model.PlaylistEntry{ID: int64(i + 1), Title: t}
	}
	return out
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{name: "relative with slash", base: "https://cdn.example", ref: "/img/x.jpg", want: "https://cdn.example/img/x.jpg"},
		{name: "relative without slash", base: "https://cdn.example", ref: "img/x.jpg", want: "https://cdn.example/img/x.jpg"},
		{name: "base with trailing slash", base: "https://cdn.example/", ref: "/img/x.jpg", want: "https://cdn.example/img/x.jpg"},
		{name: "base with path", base: "https://api.example/v1", ref: "img/x.jpg", want: "https://api.example/v1/img/x.jpg"},
		{name: "already absolute", base: "https://cdn.example", ref: "https://other.example/a.jpg", want: "https://other.example/a.jpg"},
		{name: "protocol relative", base: "https://cdn.example", ref: "//other.example/a.jpg", want: "//other.example/a.jpg"},
		{name: "empty", base: "https://cdn.example", ref: "", want: ""},
		{name: "data uri", base: "https://cdn.example", ref: "data:image/png;base64,xx", want: "data:image/png;base64,xx"},
		{name: "blob uri", base: "https://cdn.example", ref: "blob:https://app.example/3f2a", want: "blob:https://app.example/3f2a"},
		{name: "colon in path", base: "https://cdn.example", ref: "img/a:b.jpg", want: "https://cdn.example/img/a:b.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AbsoluteURL(tt.base, tt.ref))
		})
	}
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{"  7", 7, true},
		{"-3", -3, true},
		{"+4", 4, true},
		{"2集", 2, true},
		{"12abc", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"第1集", 0, false},
	}
	for _, tt := range tests {
		got, ok := leadingInt(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSortPlaylist(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "numeric not lexicographic", in: []string{"10", "2", "1", "9"}, want: []string{"1", "2", "9", "10"}},
		{name: "lexicographic fallback", in: []string{"b", "a", "c"}, want: []string{"a", "b", "c"}},
		{name: "numeric prefix", in: []string{"3集", "10集", "1集"}, want: []string{"1集", "3集", "10集"}},
		{name: "empty", in: []string{}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(SortPlaylist(entries(tt.in...))))
		})
	}
}

func TestSortPlaylist_Stable(t *testing.T) {
	in := []model.PlaylistEntry{
		{ID: 1, Title: "HD"},
		{ID: 2, Title: "1"},
		{ID: 3, Title: "HD"},
		{ID: 4, Title: "01"},
	}
	got := SortPlaylist(in)
	ids := make([]int64, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	// "1" and "01" are numerically equal and keep their input order.
	assert.Equal(t, []int64{2, 4, 1, 3}, ids)
}

func TestSortPlaylist_DoesNotMutateInput(t *testing.T) {
	in := entries("2", "1")
	_ = SortPlaylist(in)
	assert.Equal(t, []string{"2", "1"}, titles(in))
	assert.Nil(t, SortPlaylist(nil))
}

func TestNormalize(t *testing.T) {
	circuit := int64(1)
	in := &model.VideoDetail{
		Video: model.Video{ID: 5, Title: "Show", Cover: "/img/x.jpg"},
		Playlist: []model.PlaylistEntry{
			{ID: 11, Title: "10", Src: "b.m3u8", CircuitID: &circuit},
			{ID: 10, Title: "9", Src: "https://media.example/a.m3u8", CircuitID: &circuit},
		},
	}
	want := &model.VideoDetail{
		Video: model.Video{ID: 5, Title: "Show", Cover: "https://cdn.example/img/x.jpg"},
		Playlist: []model.PlaylistEntry{
			{ID: 10, Title: "9", Src: "https://media.example/a.m3u8", CircuitID: &circuit},
			{ID: 11, Title: "10", Src: "https://cdn.example/b.m3u8", CircuitID: &circuit},
		},
	}

	got := Normalize(in, "https://cdn.example")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "/img/x.jpg", in.Cover, "input must not be mutated")
	assert.Equal(t, int64(11), in.Playlist[0].ID)
	assert.Equal(t, "b.m3u8", in.Playlist[0].Src)
	assert.Nil(t, Normalize(nil, "https://cdn.example"))
}
