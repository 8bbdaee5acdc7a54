// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package gateway

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/vodplay/internal/catalog"
	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/model"
)

// DetailPage is the payload of the video detail view.
type DetailPage struct {
	Detail       *model.VideoDetail   `json:"video"`
	Info         []model.InfoItem     `json:"info"`
	DefaultEntry *model.PlaylistEntry `json:"defaultEntry,omitempty"`
	Recommended  []model.Video        `json:"recommended"`
	SameCategory []model.Video        `json:"sameCategory"`
}

// DetailPage loads a detail together with its recommendations. The detail
// and video recommendations load concurrently with the category list; the
// category listing follows once the detail names its category. Only a failed
// detail fails the page.
func (g *Gateway) DetailPage(ctx context.Context, id int64) (DetailPage, error) {
	if g.details == nil {
		return DetailPage{}, errors.New("gateway: no detail source")
	}
	logger := xglog.WithContext(ctx, g.logger).With().Int64(xglog.FieldVideoID, id).Logger()

	var (
		detail      *model.VideoDetail
		recommended []model.Video
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		d, err := g.details.FetchVideoDetail(egCtx, id)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	eg.Go(func() error {
		list, err := g.FetchRecommended(egCtx, id)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("video recommendations unavailable")
		}
		recommended = list
		return nil
	})
	if g.categories != nil && g.recommend() {
		eg.Go(func() error {
			if _, err := g.categories.Categories(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("category list unavailable")
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return DetailPage{}, err
	}

	page := DetailPage{
		Detail:      detail,
		Info:        catalog.InfoSummary(&detail.Video, g.loc),
		Recommended: nonNil(recommended),
	}
	if e, ok := detail.DefaultEntry(); ok {
		page.DefaultEntry = &e
	}
	same, err := g.FetchRecommendedByCategory(ctx, detail.CategoryID)
	if err != nil {
		logger.Warn().Err(err).Int64("category_id", detail.CategoryID).Msg("category recommendations unavailable")
	}
	page.SameCategory = nonNil(same)
	return page, nil
}

func nonNil(v []model.Video) []model.Video {
	if v == nil {
		return []model.Video{}
	}
	return v
}
