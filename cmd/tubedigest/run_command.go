package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one digest run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			st, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := ctx.buildRunner(cfg, st, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			return withRunLock(cfg, func() error {
				report, err := runner.Run(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.String())
				return nil
			})
		},
	}
}

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Retry transcript fetches for videos without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			st, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := ctx.buildRunner(cfg, st, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			return withRunLock(cfg, func() error {
				updated, err := runner.BackfillTranscripts(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d transcript(s)\n", updated)
				return nil
			})
		},
	}
}
