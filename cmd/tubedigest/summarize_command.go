package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubedigest/internal/services"
	"tubedigest/internal/services/anthropic"
	"tubedigest/internal/store"
	"tubedigest/internal/summarizer"
)

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var customPrompt string

	cmd := &cobra.Command{
		Use:   "summarize <video-id>",
		Short: "Summarize one stored video outside the scheduled run",
		Args:  cobra.ExactArgs(1),
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

			videoID := strings.TrimSpace(args[0])
			video, err := st.GetVideo(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			if video == nil {
				return services.Wrap(services.ErrNotFound, "cli", "summarize",
					fmt.Sprintf("video %s is not stored; run discovery first", videoID), nil)
			}
			if !video.HasTranscript {
				return services.Wrap(services.ErrValidation, "cli", "summarize",
					fmt.Sprintf("video %s has no transcript; try `tubedigest backfill`", videoID), nil)
			}

			generator := anthropic.NewClient(cfg.Anthropic.APIKey,
				anthropic.WithBaseURL(cfg.Anthropic.BaseURL),
				anthropic.WithModel(cfg.Anthropic.Model),
				anthropic.WithMaxTokens(cfg.Anthropic.MaxTokens),
				anthropic.WithTemperature(cfg.Anthropic.Temperature),
				anthropic.WithTimeout(cfg.AnthropicTimeout()))
			summarize := summarizer.New(generator, st, logger)

			var result summarizer.Result
			if strings.TrimSpace(customPrompt) != "" {
				result = summarize.SummarizeWithPrompt(cmd.Context(), customPrompt, video.Title, video.Transcript)
			} else {
				result = summarize.SummarizeVideo(cmd.Context(), video.Title, video.Transcript)
			}
			if !result.HasContent {
				return services.Wrap(services.ErrExternalAPI, "cli", "summarize",
					"summary generation produced no content", nil)
			}

			if _, err := st.AddInsight(cmd.Context(), video.ID, store.InsightVideo, video.Title, result.Content); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Summary for %s (%s):\n\n%s\n", video.Title, video.ID, result.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&customPrompt, "prompt", "", "Custom prompt to use instead of the stored template")
	return cmd
}
