// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/vodplay/internal/cache"
	"github.com/ManuGH/vodplay/internal/catalog"
	"github.com/ManuGH/vodplay/internal/config"
	"github.com/ManuGH/vodplay/internal/gateway"
)

// httpClient is swapped in tests.
var httpClient *http.Client

// catalogTools is the backend stack used by one-shot commands.
type catalogTools struct {
	client  *catalog.Client
	gateway *gateway.Gateway
	cache   cache.Cache
}

func newCatalogTools(cfg config.AppConfig) *catalogTools {
	client := catalog.NewClient(catalog.Options{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		Retries:           cfg.Backend.Retries,
		RetryDelay:        cfg.Backend.RetryDelay,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		BreakerThreshold:  cfg.Backend.BreakerThreshold,
		BreakerReset:      cfg.Backend.BreakerReset,
		UserAgent:         cfg.Backend.UserAgent,
		HTTPClient:        httpClient,
	})
	c := cache.NewMemoryCache(time.Minute)
	gw := gateway.New(client, gateway.Options{
		RecommendEnabled: func() bool { return cfg.Recommend.Enabled },
		Categories:       gateway.NewCategoryResolver(client, c, cfg.Recommend.CategoryTTL),
		Details:          catalog.NewStore(client, client.BaseURL()),
		Location:         time.Local,
	})
	return &catalogTools{client: client, gateway: gw, cache: c}
}

func (t *catalogTools) Close() { _ = t.cache.Close() }

func withCatalog(cmd *cobra.Command, flags *globalFlags, fn func(*catalogTools) (any, error)) error {
	holder, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	tools := newCatalogTools(holder.Get())
	defer tools.Close()
	out, err := fn(tools)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func newDetailCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <videoId>",
		Short: "Show a video with its playlist and recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("videoId", args[0])
			if err != nil {
				return err
			}
			return withCatalog(cmd, flags, func(t *catalogTools) (any, error) {
				return t.gateway.DetailPage(cmd.Context(), id)
			})
		},
	}
}

func newSearchCommand(flags *globalFlags) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Search the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords := strings.Join(args, " ")
			return withCatalog(cmd, flags, func(t *catalogTools) (any, error) {
				return t.gateway.Search(cmd.Context(), keywords, page)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}

func newCategoriesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, flags, func(t *catalogTools) (any, error) {
				return t.gateway.Categories(cmd.Context())
			})
		},
	}
}

func newReportCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report <videoId> <entryId> <text...>",
		Short: "Report a broken episode to the backend",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID("videoId", args[0])
			if err != nil {
				return err
			}
			entryID, err := parseID("entryId", args[1])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			return withCatalog(cmd, flags, func(t *catalogTools) (any, error) {
				return t.gateway.SubmitReport(cmd.Context(), text, videoID, entryID)
			})
		},
	}
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
