package main

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"tubedigest/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run digests on the configured schedule until interrupted",
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

			watchCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			runOnce := func() {
				err := withRunLock(cfg, func() error {
					report, err := runner.Run(watchCtx)
					if err != nil {
						return err
					}
					logger.Info("scheduled run finished", report.LogAttrs()...)
					return nil
				})
				if err != nil {
					logger.Error("scheduled run failed", logging.Error(err))
				}
			}

			if runOnStart {
				runOnce()
			}

			schedule := strings.TrimSpace(cfg.Pipeline.Schedule)
			scheduler := cron.New()
			if _, err := scheduler.AddFunc(schedule, runOnce); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}
			scheduler.Start()
			logger.Info("watch started", logging.String("schedule", schedule))

			<-watchCtx.Done()
			logger.Info("watch stopping")
			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Execute one run immediately before scheduling")
	return cmd
}
