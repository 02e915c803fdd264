package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"tubedigest/internal/services"
	"tubedigest/internal/services/youtube"
)

type fakeMetadata struct {
	videos    []youtube.VideoItem
	listErr   error
	stats     map[string]youtube.VideoStats
	statsErrs map[string]error
	listCalls int
}

func (f *fakeMetadata) RecentVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]youtube.VideoItem, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.videos, nil
}

func (f *fakeMetadata) VideoStatistics(ctx context.Context, videoID string) (youtube.VideoStats, error) {
	if err := f.statsErrs[videoID]; err != nil {
		return youtube.VideoStats{}, err
	}
	return f.stats[videoID], nil
}

type fakeTranscripts struct {
	texts map[string]string
	errs  map[string]error
	calls int
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string) (string, bool, error) {
	f.calls++
	if err := f.errs[videoID]; err != nil {
		return "", false, err
	}
	text, ok := f.texts[videoID]
	return text, ok && text != "", nil
}

func testLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func TestDiscoverEnrichesVideos(t *testing.T) {
	published := time.Now().UTC().Add(-2 * 24 * time.Hour)
	metadata := &fakeMetadata{
		videos: []youtube.VideoItem{
			{ID: "vid1", Title: "One", PublishedAt: published, ThumbnailURL: "https://img/1.jpg"},
			{ID: "vid2", Title: "Two", PublishedAt: published},
		},
		stats: map[string]youtube.VideoStats{
			"vid1": {ViewCount: 100, LikeCount: 10, CommentCount: 3},
		},
	}
	transcripts := &fakeTranscripts{texts: map[string]string{"vid1": "spoken words"}}

	d := New(metadata, transcripts, testLimiter(), nil)
	videos, err := d.Discover(context.Background(), "UCtest", time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("videos = %d, want 2", len(videos))
	}

	first := videos[0]
	if first.ID != "vid1" || first.ChannelID != "UCtest" || first.ViewCount != 100 {
		t.Fatalf("first = %+v", first)
	}
	if !first.HasTranscript || first.Transcript != "spoken words" {
		t.Fatalf("first transcript = %+v", first)
	}

	second := videos[1]
	if second.ViewCount != 0 || second.LikeCount != 0 {
		t.Fatalf("missing stats should yield zeros, got %+v", second)
	}
	if second.HasTranscript || second.Transcript != "" {
		t.Fatalf("second transcript = %+v", second)
	}
}

func TestDiscoverListFailureAborts(t *testing.T) {
	metadata := &fakeMetadata{listErr: services.Wrap(services.ErrExternalAPI, "youtube", "recent videos", "quota", nil)}
	d := New(metadata, &fakeTranscripts{}, testLimiter(), nil)

	_, err := d.Discover(context.Background(), "UCtest", time.Now())
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("err = %v, want external api", err)
	}
}

func TestDiscoverEnrichmentFailuresDegrade(t *testing.T) {
	published := time.Now().UTC().Add(-24 * time.Hour)
	metadata := &fakeMetadata{
		videos: []youtube.VideoItem{
			{ID: "vid1", Title: "One", PublishedAt: published},
			{ID: "vid2", Title: "Two", PublishedAt: published},
		},
		statsErrs: map[string]error{"vid1": errors.New("stats down")},
	}
	transcripts := &fakeTranscripts{
		texts: map[string]string{"vid2": "still works"},
		errs:  map[string]error{"vid1": errors.New("transcript api down")},
	}

	d := New(metadata, transcripts, testLimiter(), nil)
	videos, err := d.Discover(context.Background(), "UCtest", time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("videos = %d, want both despite per-item failures", len(videos))
	}
	if videos[0].HasTranscript {
		t.Fatal("failed transcript fetch must degrade to has_transcript=false")
	}
	if !videos[1].HasTranscript {
		t.Fatal("second video should keep its transcript")
	}
}

func TestDiscoverHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metadata := &fakeMetadata{videos: []youtube.VideoItem{{ID: "vid1"}}}
	d := New(metadata, &fakeTranscripts{}, testLimiter(), nil)

	_, err := d.Discover(ctx, "UCtest", time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDiscoverWorksWithoutLimiter(t *testing.T) {
	metadata := &fakeMetadata{videos: []youtube.VideoItem{{ID: "vid1", PublishedAt: time.Now().UTC()}}}
	transcripts := &fakeTranscripts{}

	d := New(metadata, transcripts, nil, nil)
	videos, err := d.Discover(context.Background(), "UCtest", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("videos = %d", len(videos))
	}
	if transcripts.calls != 1 {
		t.Fatalf("transcript calls = %d", transcripts.calls)
	}
}
