// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/vodplay/internal/history"
	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/persistence/sqlite"
)

var errIntegrity = errors.New("history database failed integrity check")

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently played episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			holder, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), holder.Get().History.DSN)
			if err != nil {
				return err
			}
			if store == nil {
				return printJSON(cmd.OutOrStdout(), []model.PlayRecord{})
			}
			defer func() { _ = store.Close() }()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if records == nil {
				records = []model.PlayRecord{}
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	cmd.AddCommand(newHistoryVerifyCommand(flags))
	return cmd
}

func newHistoryVerifyCommand(flags *globalFlags) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "verify [path]",
		Short: "Check the integrity of the SQLite history database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				holder, err := loadConfig(cmd, flags)
				if err != nil {
					return err
				}
				path = holder.Get().History.DSN
			}
			if path == "" || strings.Contains(path, "://") && !strings.HasPrefix(path, "sqlite://") {
				return fmt.Errorf("history DSN %q is not a SQLite database", path)
			}
			path = strings.TrimPrefix(path, "sqlite://")

			problems, err := sqlite.Verify(cmd.Context(), path, full)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errIntegrity
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "run a full integrity_check instead of quick_check")
	return cmd
}
