// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package model defines the catalog records shared across vodplay packages.
package model

import "time"

// Video is the top-level content record. The wire field for Duration is spelled "druation" by the backend.
type Video struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	Category    string `json:"category"`
	CategoryID  int64  `json:"category_id"`
	Actress     string `json:"actress"`
	Area        string `json:"area"`
	Director    string `json:"director"`
	Definition  string `json:"definition"`
	Duration    string `json:"druation"`
	PublishedAt int64  `json:"published_at"`
	CreatedAt   int64  `json:"created_at"`
	Description string `json:"description"`
}

// Published returns the publish timestamp, or the zero time when unset.
func (v Video) Published() time.Time {
	if v.PublishedAt == 0 {
		return time.Time{}
	}
	return time.Unix(v.PublishedAt, 0)
}

// PlaylistEntry is one playable track of a Video.
type PlaylistEntry struct {
	ID        int64  `json:"id"`
	VideoID   int64  `json:"video_id,omitempty"`
	Title     string `json:"title"`
	Src       string `json:"src"`
	CircuitID *int64 `json:"circuit_id,omitempty"`
}

// HasCircuit reports whether the entry belongs to a circuit group. The
// backend sends 0 for entries outside any group.
func (e PlaylistEntry) HasCircuit() bool {
	return e.CircuitID != nil && *e.CircuitID != 0
}

// SameCircuit reports whether both entries belong to the same circuit group.
func (e PlaylistEntry) SameCircuit(other PlaylistEntry) bool {
	return e.HasCircuit() && other.HasCircuit() && *e.CircuitID == *other.CircuitID
}

// VideoDetail is a Video together with its ordered playlist.
type VideoDetail struct {
	Video
	Playlist []PlaylistEntry `json:"playlist"`
}

// Entry looks up a playlist entry by id.
func (d *VideoDetail) Entry(id int64) (PlaylistEntry, int, bool) {
	if d == nil {
		return PlaylistEntry{}, -1, false
	}
	for i, e := range d.Playlist {
		if e.ID == id {
			return e, i, true
		}
	}
	return PlaylistEntry{}, -1, false
}

// DefaultEntry returns the first playlist entry, the play target offered by the detail page.
func (d *VideoDetail) DefaultEntry() (PlaylistEntry, bool) {
	if d == nil || len(d.Playlist) == 0 {
		return PlaylistEntry{}, false
	}
	return d.Playlist[0], true
}

// Clone returns a deep copy safe to hand to readers.
func (d *VideoDetail) Clone() *VideoDetail {
	if d == nil {
		return nil
	}
	out := &VideoDetail{Video: d.Video}
	if d.Playlist != nil {
		out.Playlist = make([]PlaylistEntry, len(d.Playlist))
		for i, e := range d.Playlist {
			if e.CircuitID != nil {
				c := *e.CircuitID
				e.CircuitID = &c
			}
			out.Playlist[i] = e
		}
	}
	return out
}
