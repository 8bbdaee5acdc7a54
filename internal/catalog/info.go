// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"strings"
	"time"

	"github.com/ManuGH/vodplay/internal/model"
)

// Info summary keys in display order.
const (
	InfoCategory   = "category"
	InfoCast       = "cast"
	InfoDirector   = "director"
	InfoDefinition = "definition"
	InfoRegion     = "region"
	InfoDuration   = "duration"
	InfoPublished  = "published"
)

var infoLabels = map[string]string{
	InfoCategory:   "Category",
	InfoCast:       "Cast",
	InfoDirector:   "Director",
	InfoDefinition: "Definition",
	InfoRegion:     "Region",
	InfoDuration:   "Duration",
	InfoPublished:  "Published",
}

// InfoSummary builds the labelled info list shown on detail and play pages.
// Blank values are omitted; the publish date is rendered as YYYY-MM-DD in loc.
func InfoSummary(v *model.Video, loc *time.Location) []model.InfoItem {
	if v == nil {
		return []model.InfoItem{}
	}
	if loc == nil {
		loc = time.Local
	}

	published := ""
	if t := v.Published(); !t.IsZero() {
		published = t.In(loc).Format("2006-01-02")
	}

	fields := []struct {
		key   string
		value string
	}{
		{InfoCategory, v.Category},
		{InfoCast, v.Actress},
		{InfoDirector, v.Director},
		{InfoDefinition, v.Definition},
		{InfoRegion, v.Area},
		{InfoDuration, v.Duration},
		{InfoPublished, published},
	}

	items := make([]model.InfoItem, 0, len(fields))
	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if value == "" {
			continue
		}
		items = append(items, model.InfoItem{Key: f.key, Label: infoLabels[f.key], Value: value})
	}
	return items
}
