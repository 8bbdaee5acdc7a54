// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/vodplay/internal/daemon"
	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/version"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the playback daemon and its control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			holder, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = xglog.Close() }()
			cfg := holder.Get()
			if listen != "" {
				cfg.API.Listen = listen
			}

			logger := xglog.WithComponent("daemon")
			logger.Info().
				Str("version", version.String()).
				Str("config", flags.configPath).
				Msg("starting vodplay")

			app, err := daemon.Build(cmd.Context(), holder, daemon.Options{Version: version.Version})
			if err != nil {
				return fmt.Errorf("assemble daemon: %w", err)
			}
			mgr, err := app.Manager(cfg.API.Listen, cfg.API.ShutdownTimeout)
			if err != nil {
				_ = app.Close(cmd.Context())
				return err
			}
			if err := mgr.Start(cmd.Context()); err != nil {
				return fmt.Errorf("daemon: %w", err)
			}
			logger.Info().Msg("vodplay stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override api.listen")
	return cmd
}
