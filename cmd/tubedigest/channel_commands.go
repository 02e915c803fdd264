package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tubedigest/internal/store"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	channelCmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage tracked channels",
	}
	channelCmd.AddCommand(newChannelAddCommand(ctx))
	channelCmd.AddCommand(newChannelListCommand(ctx))
	return channelCmd
}

func newChannelAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> <url>",
		Short: "Track a new channel by URL",
		Args:  cobra.ExactArgs(2),
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

			channel, err := st.AddChannel(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added channel %d (%s); it will resolve on the next run\n", channel.ID, channel.Title)
			return nil
		},
	}
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked channels",
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

			channels, err := st.ListChannels(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(channels) == 0 {
				fmt.Fprintln(out, "No channels tracked yet. Add one with `tubedigest channel add`.")
				return nil
			}

			rows := make([][]string, 0, len(channels))
			for _, channel := range channels {
				rows = append(rows, []string{
					strconv.FormatInt(channel.ID, 10),
					channel.Title,
					string(channel.Status),
					channelIDOrDash(channel),
					strconv.FormatInt(channel.SubscriberCount, 10),
					lastProcessedLabel(channel),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Status", "Channel ID", "Subscribers", "Last Processed"},
				rows,
				0, 4,
			))
			if !stdoutIsTerminal() {
				return nil
			}
			fmt.Fprintf(out, "%d channel(s)\n", len(channels))
			return nil
		},
	}
}

func channelIDOrDash(channel *store.Channel) string {
	if channel.CanonicalID == "" {
		return "-"
	}
	return channel.CanonicalID
}

func lastProcessedLabel(channel *store.Channel) string {
	if channel.LastProcessedAt == nil {
		return "never"
	}
	return channel.LastProcessedAt.Local().Format(time.DateTime)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
