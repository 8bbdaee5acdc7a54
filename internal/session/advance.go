// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"net/url"
	"strings"

	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/player"
)

// NextInCircuit returns the entry following current within its circuit group,
// in playlist order. Entries without a circuit never advance and the last
// entry of a group has no successor.
func NextInCircuit(playlist []model.PlaylistEntry, current model.PlaylistEntry) (model.PlaylistEntry, bool) {
	if !current.HasCircuit() {
		return model.PlaylistEntry{}, false
	}
	found := false
	for _, e := range playlist {
		if !e.SameCircuit(current) {
			continue
		}
		if found {
			return e, true
		}
		if e.ID == current.ID {
			found = true
		}
	}
	return model.PlaylistEntry{}, false
}

// DownloadLink builds the toolbox link offered for m3u8 sources outside the
// app shell. It returns "" when no link applies.
func DownloadLink(cfg model.PlaybackEnvironmentConfig, src, title string) string {
	if cfg.ToolboxURL == "" || cfg.Environment == model.EnvApp || !player.IsSegmented(src) {
		return ""
	}
	q := url.Values{}
	q.Set("url", src)
	q.Set("name", title)
	return strings.TrimRight(cfg.ToolboxURL, "/") + "/video/m3u8?" + q.Encode()
}

// PlayTitle is the page title of a playing entry.
func PlayTitle(videoTitle, entryTitle string) string {
	return videoTitle + " - " + entryTitle
}
