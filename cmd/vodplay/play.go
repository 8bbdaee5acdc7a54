// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/vodplay/internal/daemon"
	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/player"
	"github.com/ManuGH/vodplay/internal/session"
	"github.com/ManuGH/vodplay/internal/version"
)

const playPollInterval = 250 * time.Millisecond

// playerRunner is swapped in tests.
var playerRunner player.Runner

func newPlayCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "play <videoId> <playId>",
		Short: "Play an episode in the foreground, following its circuit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID("videoId", args[0])
			if err != nil {
				return err
			}
			playID, err := parseID("playId", args[1])
			if err != nil {
				return err
			}
			holder, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = xglog.Close() }()

			ctx := cmd.Context()
			app, err := daemon.Build(ctx, holder, daemon.Options{Version: version.Version, Runner: playerRunner})
			if err != nil {
				return fmt.Errorf("assemble player: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), holder.Get().API.ShutdownTimeout)
				defer cancel()
				_ = app.Controller.Exit(shutdownCtx)
				_ = app.Close(shutdownCtx)
			}()

			if err := app.Router.Push(ctx, videoID, playID); err != nil && !errors.Is(err, session.ErrStale) {
				_ = printJSON(cmd.OutOrStdout(), app.Controller.Snapshot())
				return err
			}
			final := waitForSession(ctx, app.Controller, playPollInterval)
			return printJSON(cmd.OutOrStdout(), final)
		},
	}
}

// snapshotter is the part of the controller waitForSession polls.
type snapshotter interface {
	Snapshot() session.Snapshot
}

// waitForSession blocks until the session settles in a terminal state or ctx
// ends. A state counts as settled once it is seen twice under the same epoch,
// so the ended-to-next hop of an auto-advance is not mistaken for the end.
func waitForSession(ctx context.Context, c snapshotter, interval time.Duration) session.Snapshot {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev session.Snapshot
	seen := false
	for {
		snap := c.Snapshot()
		if terminal(snap.State) && seen && snap.Epoch == prev.Epoch && snap.State == prev.State {
			return snap
		}
		prev, seen = snap, true
		select {
		case <-ctx.Done():
			return c.Snapshot()
		case <-ticker.C:
		}
	}
}

func terminal(s session.State) bool {
	switch s {
	case session.StateEnded, session.StateFailed, session.StateUnplayable, session.StateUnavailable, session.StateTornDown:
		return true
	}
	return false
}
