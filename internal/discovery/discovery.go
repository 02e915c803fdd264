// Package discovery finds recently published videos for a channel and
// enriches them with engagement metrics and transcripts.
package discovery

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"tubedigest/internal/logging"
	"tubedigest/internal/services/youtube"
	"tubedigest/internal/store"
)

// MetadataClient lists uploads and engagement counters.
type MetadataClient interface {
	RecentVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]youtube.VideoItem, error)
	VideoStatistics(ctx context.Context, videoID string) (youtube.VideoStats, error)
}

// TranscriptClient fetches transcript text for a single video.
type TranscriptClient interface {
	Fetch(ctx context.Context, videoID string) (string, bool, error)
}

// Discoverer drains a channel's recent uploads and enriches each one.
// External calls are paced through the shared limiter.
type Discoverer struct {
	metadata    MetadataClient
	transcripts TranscriptClient
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// New constructs a Discoverer. A nil limiter disables pacing and a nil logger
// discards output.
func New(metadata MetadataClient, transcripts TranscriptClient, limiter *rate.Limiter, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Discoverer{
		metadata:    metadata,
		transcripts: transcripts,
		limiter:     limiter,
		logger:      logger.With(logging.String(logging.FieldComponent, "discovery")),
	}
}

// Discover lists videos the channel published after the cutoff and enriches
// each with statistics and a transcript. A video whose statistics are missing
// gets zero counters; a video whose transcript is unavailable or whose
// transcript fetch fails is kept with has_transcript=false. Only the listing
// call itself can fail the discovery.
func (d *Discoverer) Discover(ctx context.Context, channelID string, publishedAfter time.Time) ([]*store.Video, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	items, err := d.metadata.RecentVideos(ctx, channelID, publishedAfter)
	if err != nil {
		return nil, err
	}

	videos := make([]*store.Video, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		video := &store.Video{
			ID:           item.ID,
			ChannelID:    channelID,
			Title:        item.Title,
			Description:  item.Description,
			PublishedAt:  item.PublishedAt,
			ThumbnailURL: item.ThumbnailURL,
		}

		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		stats, err := d.metadata.VideoStatistics(ctx, item.ID)
		if err != nil {
			d.logger.Warn("video statistics lookup failed",
				logging.String(logging.FieldVideoID, item.ID),
				logging.Error(err))
		} else {
			video.ViewCount = stats.ViewCount
			video.LikeCount = stats.LikeCount
			video.CommentCount = stats.CommentCount
		}

		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		text, ok, err := d.transcripts.Fetch(ctx, item.ID)
		switch {
		case err != nil:
			d.logger.Warn("transcript fetch failed",
				logging.String(logging.FieldVideoID, item.ID),
				logging.Error(err))
		case ok:
			video.Transcript = text
			video.HasTranscript = true
		default:
			d.logger.Debug("transcript unavailable",
				logging.String(logging.FieldVideoID, item.ID))
		}

		videos = append(videos, video)
	}
	return videos, nil
}

func (d *Discoverer) wait(ctx context.Context) error {
	if d.limiter == nil {
		return ctx.Err()
	}
	return d.limiter.Wait(ctx)
}
