// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// Page is one page of a paged backend listing.
type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Category maps a category id to the url slug used by category listings.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// InfoItem is one labelled line of the detail info summary.
type InfoItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report is a viewer-submitted playback error report.
type Report struct {
	Text    string `json:"text"`
	VideoID int64  `json:"videoId"`
	EntryID int64  `json:"entryId"`
}

// Ack is the backend acknowledgement of a write.
type Ack struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// PlayRecord is one play-history event.
type PlayRecord struct {
	VideoID  int64     `json:"videoId"`
	EntryID  int64     `json:"entryId"`
	PlayedAt time.Time `json:"playedAt"`
}
