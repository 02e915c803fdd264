package pipeline

import (
	"fmt"
	"strings"
	"time"

	"tubedigest/internal/logging"
	"tubedigest/internal/notifications"
)

// Report aggregates the outcome of one digest run. Counters are the audit
// trail; per-unit failures never surface as run errors.
type Report struct {
	RunID                 string
	StartedAt             time.Time
	Duration              time.Duration
	ChannelsResolved      int
	ChannelsResolveFailed int
	ChannelsSkipped       int
	ChannelsProcessed     int
	ChannelsFailed        int
	VideosDiscovered      int
	VideosNew             int
	VideosSummarized      int
	InsightsWritten       int
	MasterGenerated       bool
}

func newReport(runID string, startedAt time.Time) *Report {
	return &Report{RunID: runID, StartedAt: startedAt}
}

func (r *Report) finish(now time.Time) {
	r.Duration = now.Sub(r.StartedAt)
	if r.Duration < 0 {
		r.Duration = 0
	}
}

// Summary converts the report into the notification payload.
func (r *Report) Summary() notifications.RunSummary {
	return notifications.RunSummary{
		ChannelsProcessed: r.ChannelsProcessed,
		ChannelsFailed:    r.ChannelsFailed,
		ChannelsSkipped:   r.ChannelsSkipped,
		VideosDiscovered:  r.VideosDiscovered,
		VideosSummarized:  r.VideosSummarized,
		MasterGenerated:   r.MasterGenerated,
		Duration:          r.Duration,
	}
}

// LogAttrs renders the report as structured logging arguments.
func (r *Report) LogAttrs() []any {
	return logging.Args(
		logging.Int("channels_resolved", r.ChannelsResolved),
		logging.Int("channels_resolve_failed", r.ChannelsResolveFailed),
		logging.Int("channels_skipped", r.ChannelsSkipped),
		logging.Int("channels_processed", r.ChannelsProcessed),
		logging.Int("channels_failed", r.ChannelsFailed),
		logging.Int("videos_discovered", r.VideosDiscovered),
		logging.Int("videos_new", r.VideosNew),
		logging.Int("videos_summarized", r.VideosSummarized),
		logging.Int("insights_written", r.InsightsWritten),
		logging.Bool("master_generated", r.MasterGenerated),
		logging.Duration("duration", r.Duration),
	)
}

// String renders a human-readable multi-line report for the CLI.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  channels: %d resolved, %d resolve-failed, %d processed, %d skipped, %d failed\n",
		r.ChannelsResolved, r.ChannelsResolveFailed, r.ChannelsProcessed, r.ChannelsSkipped, r.ChannelsFailed)
	fmt.Fprintf(&b, "  videos:   %d discovered (%d new), %d summarized\n",
		r.VideosDiscovered, r.VideosNew, r.VideosSummarized)
	fmt.Fprintf(&b, "  insights: %d written", r.InsightsWritten)
	if r.MasterGenerated {
		b.WriteString(", master digest generated")
	}
	return b.String()
}
