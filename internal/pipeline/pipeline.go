// Package pipeline orchestrates the digest run: resolving pending channels,
// discovering and summarizing fresh videos per channel, and rolling the
// week's channel digests into a master digest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tubedigest/internal/config"
	"tubedigest/internal/logging"
	"tubedigest/internal/notifications"
	"tubedigest/internal/services"
	"tubedigest/internal/services/youtube"
	"tubedigest/internal/staleness"
	"tubedigest/internal/store"
	"tubedigest/internal/summarizer"
)

// URLResolver turns a channel URL into a canonical channel id.
type URLResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// ChannelMetadata fetches channel-level metadata.
type ChannelMetadata interface {
	ChannelInfo(ctx context.Context, channelID string) (*youtube.ChannelDetails, error)
}

// VideoDiscoverer lists and enriches a channel's recent videos.
type VideoDiscoverer interface {
	Discover(ctx context.Context, channelID string, publishedAfter time.Time) ([]*store.Video, error)
}

// DigestSummarizer produces the three digest tiers.
type DigestSummarizer interface {
	SummarizeVideo(ctx context.Context, title, transcript string) summarizer.Result
	SummarizeChannelWeek(ctx context.Context, channelTitle string, videos []summarizer.VideoSummary) summarizer.Result
	SummarizeMasterWeek(ctx context.Context, contributions []summarizer.Contribution) summarizer.Result
}

// TranscriptFetcher backs the transcript backfill pass.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, bool, error)
}

// Options wires a Runner's collaborators.
type Options struct {
	Config      *config.Config
	Store       *store.Store
	Resolver    URLResolver
	Channels    ChannelMetadata
	Discoverer  VideoDiscoverer
	Summarizer  DigestSummarizer
	Transcripts TranscriptFetcher
	Notifier    notifications.Service
	Logger      *slog.Logger
	Now         func() time.Time
}

// Runner executes digest runs.
type Runner struct {
	cfg         *config.Config
	store       *store.Store
	resolver    URLResolver
	channels    ChannelMetadata
	discoverer  VideoDiscoverer
	summarizer  DigestSummarizer
	transcripts TranscriptFetcher
	notifier    notifications.Service
	logger      *slog.Logger
	now         func() time.Time
}

// NewRunner validates the wiring and constructs a Runner.
func NewRunner(opts Options) (*Runner, error) {
	switch {
	case opts.Config == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "config required", nil)
	case opts.Store == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "store required", nil)
	case opts.Resolver == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "resolver required", nil)
	case opts.Channels == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "channel metadata client required", nil)
	case opts.Discoverer == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "discoverer required", nil)
	case opts.Summarizer == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "summarizer required", nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		cfg:         opts.Config,
		store:       opts.Store,
		resolver:    opts.Resolver,
		channels:    opts.Channels,
		discoverer:  opts.Discoverer,
		summarizer:  opts.Summarizer,
		transcripts: opts.Transcripts,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		now:         now,
	}, nil
}

// Run executes one full digest pass: resolve, process, master rollup. Only a
// store failure listing channels or a canceled context abort the run; all
// per-channel failures are captured in the Report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := newReport(uuid.NewString(), r.now())
	ctx = services.WithRunID(ctx, report.RunID)
	logger := r.logger.With(logging.String(logging.FieldRunID, report.RunID))

	pending, err := r.store.ChannelsByStatus(ctx, store.ChannelPending)
	if err != nil {
		return nil, err
	}
	active, err := r.store.ChannelsByStatus(ctx, store.ChannelActive)
	if err != nil {
		return nil, err
	}

	logger.Info("digest run started",
		logging.Int("pending_channels", len(pending)),
		logging.Int("active_channels", len(active)))
	if err := r.notifier.NotifyRunStarted(ctx, len(pending), len(active)); err != nil {
		logger.Warn("run-started notification failed", logging.Error(err))
	}

	if err := r.resolvePending(ctx, pending, report, logger); err != nil {
		return report, err
	}

	// Re-list so channels activated this run are processed immediately.
	active, err = r.store.ChannelsByStatus(ctx, store.ChannelActive)
	if err != nil {
		return report, err
	}
	contributions, err := r.processActive(ctx, active, report, logger)
	if err != nil {
		return report, err
	}

	if err := r.masterRollup(ctx, contributions, report, logger); err != nil {
		return report, err
	}

	report.finish(r.now())
	logger.Info("digest run finished", report.LogAttrs()...)
	if err := r.notifier.NotifyRunCompleted(ctx, report.Summary()); err != nil {
		logger.Warn("run-completed notification failed", logging.Error(err))
	}
	return report, nil
}

// resolvePending is Stage A: each pending channel either becomes active or
// accrues a resolve failure, turning failed once the attempt budget runs out.
func (r *Runner) resolvePending(ctx context.Context, channels []*store.Channel, report *Report, logger *slog.Logger) error {
	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return err
		}

		channelLogger := logger.With(
			logging.String(logging.FieldStage, "resolve"),
			logging.Int64("channel", channel.ID))

		canonicalID, err := r.resolver.Resolve(ctx, channel.URL)
		if err == nil {
			if err := r.store.ActivateChannel(ctx, channel.ID, canonicalID); err != nil {
				channelLogger.Error("activate channel failed", logging.Error(err))
				report.ChannelsResolveFailed++
				continue
			}
			channelLogger.Info("channel resolved",
				logging.String(logging.FieldChannelID, canonicalID))
			report.ChannelsResolved++
			continue
		}

		attempts, terminal, recordErr := r.store.RecordResolveFailure(ctx, channel.ID, r.cfg.Pipeline.MaxResolveAttempts)
		if recordErr != nil {
			channelLogger.Error("record resolve failure", logging.Error(recordErr))
			report.ChannelsResolveFailed++
			continue
		}
		report.ChannelsResolveFailed++
		channelLogger.Warn("channel resolve failed",
			logging.Int("attempts", attempts),
			logging.Bool("terminal", terminal),
			logging.Error(err))
		if terminal {
			if notifyErr := r.notifier.NotifyChannelFailed(ctx, channel.Title, attempts); notifyErr != nil {
				channelLogger.Warn("channel-failed notification failed", logging.Error(notifyErr))
			}
		}
	}
	return nil
}

// processActive is Stage B. Channels fail independently; a channel error is
// recorded and the run moves on.
func (r *Runner) processActive(ctx context.Context, channels []*store.Channel, report *Report, logger *slog.Logger) ([]summarizer.Contribution, error) {
	var contributions []summarizer.Contribution
	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return contributions, err
		}

		if !staleness.IsStale(channel.LastProcessedAt, r.cfg.ChannelStaleness(), r.now()) {
			report.ChannelsSkipped++
			logger.Debug("channel fresh, skipping",
				logging.String(logging.FieldChannelID, channel.CanonicalID))
			continue
		}

		contribution, err := r.processChannel(ctx, channel, report, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return contributions, err
			}
			report.ChannelsFailed++
			logger.Error("channel processing failed",
				logging.String(logging.FieldChannelID, channel.CanonicalID),
				logging.Error(err))
			if notifyErr := r.notifier.NotifyError(ctx, err, fmt.Sprintf("channel %s", channel.Title)); notifyErr != nil {
				logger.Warn("error notification failed", logging.Error(notifyErr))
			}
			continue
		}

		report.ChannelsProcessed++
		if contribution != nil {
			contributions = append(contributions, *contribution)
		}
	}
	return contributions, nil
}

// processChannel refreshes one channel: metadata, discovery, persistence, and
// the per-video plus weekly summaries. Returns the channel's master-digest
// contribution when a weekly digest was generated.
func (r *Runner) processChannel(ctx context.Context, channel *store.Channel, report *Report, logger *slog.Logger) (*summarizer.Contribution, error) {
	ctx = services.WithChannelID(ctx, channel.CanonicalID)
	channelLogger := logger.With(
		logging.String(logging.FieldStage, "process"),
		logging.String(logging.FieldChannelID, channel.CanonicalID))

	details, err := r.channels.ChannelInfo(ctx, channel.CanonicalID)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpdateChannelMetadata(ctx, channel.ID, details.Title, details.Description,
		details.SubscriberCount, details.ViewCount, details.VideoCount); err != nil {
		return nil, err
	}

	discovered, err := r.discoverer.Discover(ctx, channel.CanonicalID, r.now().Add(-r.cfg.DiscoveryWindow()))
	if err != nil {
		return nil, err
	}
	report.VideosDiscovered += len(discovered)
	channelLogger.Info("videos discovered", logging.Int("count", len(discovered)))

	var transcribed []*store.Video
	for _, video := range discovered {
		created, err := r.store.CreateVideo(ctx, video)
		if err != nil {
			return nil, err
		}
		if created {
			report.VideosNew++
		}
		// The stored row is authoritative: a re-discovered video may carry a
		// transcript from an earlier run or backfill.
		stored, err := r.store.GetVideo(ctx, video.ID)
		if err != nil {
			return nil, err
		}
		if stored != nil && stored.HasTranscript {
			transcribed = append(transcribed, stored)
		}
	}

	if len(transcribed) == 0 {
		channelLogger.Info("no transcribed videos; skipping weekly digest")
		return nil, r.store.TouchChannelProcessed(ctx, channel.ID, r.now())
	}

	var summaries []summarizer.VideoSummary
	for _, video := range transcribed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.summarizer.SummarizeVideo(ctx, video.Title, video.Transcript)
		if !result.HasContent {
			continue
		}
		if _, err := r.store.AddInsight(ctx, video.ID, store.InsightVideo, video.Title, result.Content); err != nil {
			return nil, err
		}
		report.VideosSummarized++
		report.InsightsWritten++
		summaries = append(summaries, summarizer.VideoSummary{Title: video.Title, Summary: result.Content})
	}

	var contribution *summarizer.Contribution
	if len(summaries) > 0 {
		weekly := r.summarizer.SummarizeChannelWeek(ctx, details.Title, summaries)
		if weekly.HasContent {
			if _, err := r.store.AddInsight(ctx, channel.CanonicalID, store.InsightChannelWeekly, details.Title, weekly.Content); err != nil {
				return nil, err
			}
			report.InsightsWritten++
			contribution = &summarizer.Contribution{ChannelTitle: details.Title, Content: weekly.Content}
		}
	}

	return contribution, r.store.TouchChannelProcessed(ctx, channel.ID, r.now())
}

// masterRollup is Stage C: at most one master digest per staleness window,
// preferring stored weekly digests and falling back to this run's fresh
// contributions.
func (r *Runner) masterRollup(ctx context.Context, fresh []summarizer.Contribution, report *Report, logger *slog.Logger) error {
	masterLogger := logger.With(logging.String(logging.FieldStage, "master"))

	latest, err := r.store.LatestByKind(ctx, store.InsightMasterWeekly)
	if err != nil {
		return err
	}
	if latest != nil && r.now().Sub(latest.CreatedAt) < r.cfg.MasterStaleness() {
		masterLogger.Info("recent master digest exists, skipping")
		return nil
	}

	cutoff := r.now().Add(-r.cfg.MasterStaleness())
	stored, err := r.store.InsightsSince(ctx, store.InsightChannelWeekly, cutoff)
	if err != nil {
		return err
	}

	contributions := make([]summarizer.Contribution, 0, len(stored))
	for _, insight := range stored {
		contributions = append(contributions, summarizer.Contribution{
			ChannelTitle: insight.Title,
			Content:      insight.Content,
		})
	}
	if len(contributions) == 0 {
		contributions = fresh
	}
	if len(contributions) == 0 {
		masterLogger.Info("no weekly digests available, skipping master digest")
		return nil
	}

	result := r.summarizer.SummarizeMasterWeek(ctx, contributions)
	if !result.HasContent {
		masterLogger.Warn("master digest generation produced no content")
		return nil
	}
	if _, err := r.store.AddInsight(ctx, store.MasterOriginID, store.InsightMasterWeekly,
		"Consolidated Weekly Digest", result.Content); err != nil {
		return err
	}
	report.InsightsWritten++
	report.MasterGenerated = true
	masterLogger.Info("master digest generated",
		logging.Int("contributions", len(contributions)))
	return nil
}

// BackfillTranscripts retries transcript fetches for stored videos that have
// none yet. Fetch failures and unavailable transcripts leave the row as-is.
func (r *Runner) BackfillTranscripts(ctx context.Context) (int, error) {
	if r.transcripts == nil {
		return 0, services.Wrap(services.ErrConfiguration, "pipeline", "backfill transcripts", "transcript client not wired", nil)
	}

	videos, err := r.store.VideosWithoutTranscript(ctx)
	if err != nil {
		return 0, err
	}

	logger := r.logger.With(logging.String(logging.FieldStage, "backfill"))
	updated := 0
	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		text, ok, err := r.transcripts.Fetch(ctx, video.ID)
		if err != nil {
			logger.Warn("transcript backfill fetch failed",
				logging.String(logging.FieldVideoID, video.ID),
				logging.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if err := r.store.UpdateVideoTranscript(ctx, video.ID, text); err != nil {
			return updated, err
		}
		updated++
		logger.Info("transcript backfilled", logging.String(logging.FieldVideoID, video.ID))
	}
	return updated, nil
}
