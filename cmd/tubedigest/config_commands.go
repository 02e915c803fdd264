package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tubedigest/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the YouTube, transcript, and Anthropic credentials before running.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults are shown")
			}
			fmt.Fprintf(out, "Data dir:        %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Log dir:         %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Database:        %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "Model:           %s\n", cfg.Anthropic.Model)
			fmt.Fprintf(out, "Schedule:        %s\n", cfg.Pipeline.Schedule)
			fmt.Fprintf(out, "Staleness:       channel %s, master %s\n", cfg.ChannelStaleness(), cfg.MasterStaleness())
			fmt.Fprintf(out, "Discovery:       trailing %s\n", cfg.DiscoveryWindow())
			fmt.Fprintf(out, "Rate limit:      %.1f requests/minute\n", cfg.Pipeline.RequestsPerMinute)
			fmt.Fprintf(out, "Resolve budget:  %d attempts\n", cfg.Pipeline.MaxResolveAttempts)
			fmt.Fprintf(out, "YouTube key:     %s\n", maskSecret(cfg.YouTube.APIKey))
			fmt.Fprintf(out, "Transcript tok:  %s\n", maskSecret(cfg.Transcript.APIToken))
			fmt.Fprintf(out, "Anthropic key:   %s\n", maskSecret(cfg.Anthropic.APIKey))
			fmt.Fprintf(out, "Notifications:   %s\n", notificationsLabel(cfg))
			return nil
		},
	}
}

func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

func notificationsLabel(cfg *config.Config) string {
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return "disabled"
	}
	return cfg.Notifications.NtfyTopic
}
