// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/ManuGH/vodplay/internal/model"
)

// AbsoluteURL joins ref onto base with exactly one slash. Refs that already
// carry a scheme or are protocol-relative are returned unchanged; an empty
// ref stays empty.
func AbsoluteURL(base, ref string) string {
	if ref == "" || isAbsolute(ref) {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

// isAbsolute covers scheme URLs, including opaque ones such as data: and
// blob:, and protocol-relative refs.
func isAbsolute(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && u.IsAbs()
}

// leadingInt parses the integer prefix of a title: optional whitespace, an
// optional sign, then decimal digits. Trailing text is ignored, so "2集" is 2.
func leadingInt(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	// Float keeps arbitrarily long digit runs comparable.
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func compareTitles(a, b string) int {
	na, okA := leadingInt(a)
	nb, okB := leadingInt(b)
	if okA && okB {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// SortPlaylist returns a stably sorted copy of entries ordered by title.
func SortPlaylist(entries []model.PlaylistEntry) []model.PlaylistEntry {
	if entries == nil {
		return nil
	}
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b model.PlaylistEntry) int {
		return compareTitles(a.Title, b.Title)
	})
	return out
}

// Normalize returns a copy of d with absolute cover and entry sources and a
// sorted playlist. The input is not modified.
func Normalize(d *model.VideoDetail, base string) *model.VideoDetail {
	if d == nil {
		return nil
	}
	out := d.Clone()
	out.Cover = AbsoluteURL(base, out.Cover)
	for i := range out.Playlist {
		out.Playlist[i].Src = AbsoluteURL(base, out.Playlist[i].Src)
	}
	out.Playlist = SortPlaylist(out.Playlist)
	return out
}
