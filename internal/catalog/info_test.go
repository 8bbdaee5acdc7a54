// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/vodplay/internal/model"
)

func TestInfoSummary_FullOrder(t *testing.T) {
	v := &model.Video{
		Category:    "Drama",
		Actress:     "A. Actor",
		Director:    "D. Rector",
		Definition:  "1080p",
		Area:        "JP",
		Duration:    "45min",
		PublishedAt: time.Date(2023, 3, 7, 12, 0, 0, 0, time.UTC).Unix(),
	}

	got := InfoSummary(v, time.UTC)
	keys := make([]string, len(got))
	for i, it := range got {
		keys[i] = it.Key
	}
	assert.Equal(t, []string{InfoCategory, InfoCast, InfoDirector, InfoDefinition, InfoRegion, InfoDuration, InfoPublished}, keys)
	assert.Equal(t, "2023-03-07", got[6].Value)
	assert.Equal(t, "Region", got[4].Label)
	assert.Equal(t, "JP", got[4].Value)
}

func TestInfoSummary_OmitsBlank(t *testing.T) {
	v := &model.Video{Category: "Drama", Director: "   ", Duration: ""}
	got := InfoSummary(v, time.UTC)
	assert.Equal(t, []model.InfoItem{{Key: InfoCategory, Label: "Category", Value: "Drama"}}, got)
	for _, it := range got {
		assert.NotEmpty(t, it.Value)
	}
}

func TestInfoSummary_DateUsesLocation(t *testing.T) {
	ts := time.Date(2023, 3, 7, 23, 30, 0, 0, time.UTC).Unix()
	tokyo := time.FixedZone("JST", 9*3600)
	got := InfoSummary(&model.Video{PublishedAt: ts}, tokyo)
	assert.Equal(t, []model.InfoItem{{Key: InfoPublished, Label: "Published", Value: "2023-03-08"}}, got)
}

func TestInfoSummary_Nil(t *testing.T) {
	assert.Empty(t, InfoSummary(nil, time.UTC))
	assert.NotNil(t, InfoSummary(nil, nil))
}
