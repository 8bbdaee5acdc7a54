// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strings"

	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/validate"
)

var (
	environmentModes = []string{string(model.EnvWeb), string(model.EnvApp), string(model.EnvDesktop)}
	fitModes         = []string{model.FitFixed, model.FitFixWidth, model.FitFixHeight}
	exporters        = []string{"grpc", "http"}
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("api.listen", cfg.API.Listen)
	if cfg.API.RateLimit < 0 {
		v.AddError("api.rate_limit", "must not be negative", cfg.API.RateLimit)
	}

	v.AbsoluteURL("backend.base_url", cfg.Backend.BaseURL, "http", "https")
	v.Range("backend.retries", cfg.Backend.Retries, 0, 10)
	v.NonNegative("backend.timeout", cfg.Backend.Timeout)

	v.OneOf("environment.mode", cfg.Environment.Mode, environmentModes)
	v.OptionalURL("environment.toolbox_url", cfg.Environment.ToolboxURL, "http", "https")

	pb := cfg.Playback
	v.Range("playback.volume", pb.Volume, 0, 100)
	v.Positive("playback.playback_rate", pb.PlaybackRate)
	for _, r := range pb.PlaybackRates {
		v.Positive("playback.playback_rates", r)
	}
	v.OneOf("playback.fit_mode", pb.FitMode, fitModes)
	v.NonNegative("playback.rate_settle_delay", pb.RateSettleDelay)
	v.NonNegative("playback.attach_settle_delay", pb.AttachSettleDelay)

	v.NonNegative("recommend.category_ttl", cfg.Recommend.CategoryTTL)
	v.NonNegative("player.stop_grace", cfg.Player.StopGrace)
	v.NonNegative("player.detach_timeout", cfg.Player.DetachTimeout)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", strings.ToLower(cfg.Telemetry.Exporter), exporters)
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("telemetry.sampling_rate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	return v.Err()
}
