// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestVideoDetail_DecodeWire(t *testing.T) {
	raw := `{"id":5,"title":"Show","cover":"/img/x.jpg","category_id":2,"druation":"45min","published_at":1700000000,
		"playlist":[{"id":10,"title":"1","src":"a.m3u8","circuit_id":3},{"id":11,"title":"2","src":"b.mp4"}]}`

	var d VideoDetail
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Equal(t, int64(5), d.ID)
	assert.Equal(t, "45min", d.Duration)
	assert.Equal(t, int64(2), d.CategoryID)
	require.Len(t, d.Playlist, 2)
	require.NotNil(t, d.Playlist[0].CircuitID)
	assert.Equal(t, int64(3), *d.Playlist[0].CircuitID)
	assert.Nil(t, d.Playlist[1].CircuitID)
	assert.False(t, d.Published().IsZero())
}

func TestVideoDetail_Entry(t *testing.T) {
	d := &VideoDetail{Playlist: []PlaylistEntry{{ID: 1}, {ID: 2}}}

	e, idx, ok := d.Entry(2)
	require.True(t, ok)
	assert.Equal(t, int64(2), e.ID)
	assert.Equal(t, 1, idx)

	_, idx, ok = d.Entry(9)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	var nilDetail *VideoDetail
	_, _, ok = nilDetail.Entry(1)
	assert.False(t, ok)
}

func TestVideoDetail_DefaultEntry(t *testing.T) {
	d := &VideoDetail{Playlist: []PlaylistEntry{{ID: 7}, {ID: 8}}}
	e, ok := d.DefaultEntry()
	require.True(t, ok)
	assert.Equal(t, int64(7), e.ID)

	_, ok = (&VideoDetail{}).DefaultEntry()
	assert.False(t, ok)
}

func TestVideoDetail_CloneIsDeep(t *testing.T) {
	orig := &VideoDetail{
		Video:    Video{ID: 1, Title: "t"},
		Playlist: []PlaylistEntry{{ID: 1, CircuitID: ptr(4)}},
	}
	c := orig.Clone()
	if diff := cmp.Diff(orig, c); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	*c.Playlist[0].CircuitID = 99
	c.Playlist[0].Title = "changed"
	assert.Equal(t, int64(4), *orig.Playlist[0].CircuitID)
	assert.Empty(t, orig.Playlist[0].Title)

	var nilDetail *VideoDetail
	assert.Nil(t, nilDetail.Clone())
}

func TestPlaylistEntry_SameCircuit(t *testing.T) {
	a := PlaylistEntry{CircuitID: ptr(1)}
	b := PlaylistEntry{CircuitID: ptr(1)}
	c := PlaylistEntry{CircuitID: ptr(2)}
	none := PlaylistEntry{}

	assert.True(t, a.SameCircuit(b))
	assert.False(t, a.SameCircuit(c))
	assert.False(t, none.SameCircuit(none))
	assert.False(t, none.HasCircuit())

	zero := PlaylistEntry{CircuitID: ptr(0)}
	assert.False(t, zero.HasCircuit(), "0 means no group")
	assert.False(t, zero.SameCircuit(zero))
}
