package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"tubedigest/internal/services"
)

// promptFile is the TOML shape accepted by `prompts load`.
type promptFile struct {
	VideoPrompt   string `toml:"video_prompt"`
	ChannelPrompt string `toml:"channel_prompt"`
	MasterPrompt  string `toml:"master_prompt"`
}

func newPromptsCommand(ctx *commandContext) *cobra.Command {
	promptsCmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage the summarization prompt templates",
	}
	promptsCmd.AddCommand(newPromptsLoadCommand(ctx))
	promptsCmd.AddCommand(newPromptsShowCommand(ctx))
	return promptsCmd
}

func newPromptsLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.toml>",
		Short: "Store a new prompt set from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read prompt file: %w", err)
			}
			var file promptFile
			if err := toml.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("parse prompt file: %w", err)
			}
			if strings.TrimSpace(file.VideoPrompt) == "" ||
				strings.TrimSpace(file.ChannelPrompt) == "" ||
				strings.TrimSpace(file.MasterPrompt) == "" {
				return services.Wrap(services.ErrValidation, "cli", "prompts load",
					"prompt file must set video_prompt, channel_prompt, and master_prompt", nil)
			}

			st, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			set, err := st.SavePromptSet(cmd.Context(), file.VideoPrompt, file.ChannelPrompt, file.MasterPrompt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored prompt set %d; it is now active\n", set.ID)
			return nil
		},
	}
}

func newPromptsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active prompt set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			set, err := st.LatestPromptSet(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if set == nil {
				fmt.Fprintln(out, "No prompt set loaded. Load one with `tubedigest prompts load`.")
				return nil
			}

			fmt.Fprintf(out, "Prompt set %d (created %s)\n\n", set.ID, set.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "[video]\n%s\n\n", set.VideoPrompt)
			fmt.Fprintf(out, "[channel]\n%s\n\n", set.ChannelPrompt)
			fmt.Fprintf(out, "[master]\n%s\n", set.MasterPrompt)
			return nil
		},
	}
}
