package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tubedigest/internal/pipeline"
	"tubedigest/internal/services"
	"tubedigest/internal/services/youtube"
	"tubedigest/internal/store"
	"tubedigest/internal/summarizer"
	"tubedigest/internal/testsupport"
)

type fakeResolver struct {
	ids   map[string]string
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, url string) (string, error) {
	f.calls++
	if id, ok := f.ids[url]; ok {
		return id, nil
	}
	return "", services.Wrap(services.ErrNotFound, "resolver", "resolve", "no channel id found", nil)
}

type fakeChannels struct {
	details map[string]*youtube.ChannelDetails
	calls   int
}

func (f *fakeChannels) ChannelInfo(ctx context.Context, channelID string) (*youtube.ChannelDetails, error) {
	f.calls++
	if details, ok := f.details[channelID]; ok {
		return details, nil
	}
	return nil, services.Wrap(services.ErrNotFound, "youtube", "channel info", "channel not found", nil)
}

type fakeDiscoverer struct {
	videos map[string][]*store.Video
	err    error
	calls  int
}

func (f *fakeDiscoverer) Discover(ctx context.Context, channelID string, publishedAfter time.Time) ([]*store.Video, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.videos[channelID], nil
}

type fakeSummarizer struct {
	videoCalls   int
	channelCalls int
	masterCalls  int
}

func (f *fakeSummarizer) SummarizeVideo(ctx context.Context, title, transcript string) summarizer.Result {
	f.videoCalls++
	if transcript == "" {
		return summarizer.Result{}
	}
	return summarizer.Result{Content: "summary of " + title, HasContent: true}
}

func (f *fakeSummarizer) SummarizeChannelWeek(ctx context.Context, channelTitle string, videos []summarizer.VideoSummary) summarizer.Result {
	f.channelCalls++
	if len(videos) == 0 {
		return summarizer.Result{}
	}
	return summarizer.Result{Content: fmt.Sprintf("weekly digest of %s (%d videos)", channelTitle, len(videos)), HasContent: true}
}

func (f *fakeSummarizer) SummarizeMasterWeek(ctx context.Context, contributions []summarizer.Contribution) summarizer.Result {
	f.masterCalls++
	if len(contributions) == 0 {
		return summarizer.Result{}
	}
	return summarizer.Result{Content: fmt.Sprintf("master digest (%d channels)", len(contributions)), HasContent: true}
}

type fixture struct {
	store      *store.Store
	resolver   *fakeResolver
	channels   *fakeChannels
	discoverer *fakeDiscoverer
	summarizer *fakeSummarizer
	runner     *pipeline.Runner
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		store:      st,
		resolver:   &fakeResolver{ids: map[string]string{}},
		channels:   &fakeChannels{details: map[string]*youtube.ChannelDetails{}},
		discoverer: &fakeDiscoverer{videos: map[string][]*store.Video{}},
		summarizer: &fakeSummarizer{},
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		Config:     cfg,
		Store:      st,
		Resolver:   f.resolver,
		Channels:   f.channels,
		Discoverer: f.discoverer,
		Summarizer: f.summarizer,
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	f.runner = runner
	return f
}

func (f *fixture) addResolvableChannel(t *testing.T, title, canonicalID string) *store.Channel {
	t.Helper()

	url := "https://www.youtube.com/@" + title
	channel := testsupport.NewChannel(t, f.store, title, url)
	f.resolver.ids[url] = canonicalID
	f.channels.details[canonicalID] = &youtube.ChannelDetails{
		ID:              canonicalID,
		Title:           title,
		SubscriberCount: 100,
	}
	return channel
}

func TestRunResolvesProcessesAndRollsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addResolvableChannel(t, "TechTalks", "UCtech")
	published := time.Now().UTC().Add(-48 * time.Hour)
	f.discoverer.videos["UCtech"] = []*store.Video{
		{ID: "vid1", ChannelID: "UCtech", Title: "Concurrency", PublishedAt: published, Transcript: "goroutines", HasTranscript: true},
		{ID: "vid2", ChannelID: "UCtech", Title: "No Captions", PublishedAt: published},
	}

	report, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.ChannelsResolved != 1 || report.ChannelsProcessed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.VideosDiscovered != 2 || report.VideosNew != 2 || report.VideosSummarized != 1 {
		t.Fatalf("video counters = %+v", report)
	}
	if !report.MasterGenerated {
		t.Fatal("expected a master digest")
	}
	// one video insight, one weekly, one master
	if report.InsightsWritten != 3 {
		t.Fatalf("insights written = %d, want 3", report.InsightsWritten)
	}

	videoInsight, err := f.store.LatestInsight(ctx, "vid1", store.InsightVideo)
	if err != nil || videoInsight == nil {
		t.Fatalf("video insight: %v %+v", err, videoInsight)
	}
	weekly, err := f.store.LatestInsight(ctx, "UCtech", store.InsightChannelWeekly)
	if err != nil || weekly == nil {
		t.Fatalf("weekly insight: %v %+v", err, weekly)
	}
	master, err := f.store.LatestInsight(ctx, store.MasterOriginID, store.InsightMasterWeekly)
	if err != nil || master == nil {
		t.Fatalf("master insight: %v %+v", err, master)
	}

	channels, err := f.store.ListChannels(ctx)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if channels[0].Status != store.ChannelActive || channels[0].LastProcessedAt == nil {
		t.Fatalf("channel = %+v", channels[0])
	}
}

func TestRunSkipsFreshChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	channel := testsupport.NewActiveChannel(t, f.store, "Fresh", "UCfresh")
	if err := f.store.TouchChannelProcessed(ctx, channel.ID, time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatalf("touch channel: %v", err)
	}

	report, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ChannelsSkipped != 1 || report.ChannelsProcessed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if f.channels.calls != 0 || f.discoverer.calls != 0 {
		t.Fatalf("fresh channel triggered API calls: channels=%d discover=%d", f.channels.calls, f.discoverer.calls)
	}
}

func TestRunWithoutTranscriptsStillRefreshesChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	channel := testsupport.NewActiveChannel(t, f.store, "Silent", "UCsilent")
	f.channels.details["UCsilent"] = &youtube.ChannelDetails{ID: "UCsilent", Title: "Silent"}
	f.discoverer.videos["UCsilent"] = []*store.Video{
		{ID: "mute1", ChannelID: "UCsilent", Title: "Muted", PublishedAt: time.Now().UTC().Add(-24 * time.Hour)},
	}

	report, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ChannelsProcessed != 1 || report.VideosDiscovered != 1 || report.VideosSummarized != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.MasterGenerated {
		t.Fatal("no weekly digest, master must not be generated")
	}
	if f.summarizer.videoCalls != 0 {
		t.Fatalf("summarizer called %d times without transcripts", f.summarizer.videoCalls)
	}

	refreshed, err := f.store.ChannelByID(ctx, channel.ID)
	if err != nil {
		t.Fatalf("channel by id: %v", err)
	}
	if refreshed.LastProcessedAt == nil {
		t.Fatal("last_processed_at must still advance")
	}
	if video, err := f.store.GetVideo(ctx, "mute1"); err != nil || video == nil {
		t.Fatalf("video must be persisted: %v %+v", err, video)
	}
}

func TestRunMasterDigestIsIdempotentWithinWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.store.AddInsight(ctx, store.MasterOriginID, store.InsightMasterWeekly, "Existing", "recent master"); err != nil {
		t.Fatalf("seed master insight: %v", err)
	}
	testsupport.NewActiveChannel(t, f.store, "TechTalks", "UCtech")
	f.channels.details["UCtech"] = &youtube.ChannelDetails{ID: "UCtech", Title: "TechTalks"}
	f.discoverer.videos["UCtech"] = []*store.Video{
		{ID: "vid1", ChannelID: "UCtech", Title: "Talk", PublishedAt: time.Now().UTC(), Transcript: "words", HasTranscript: true},
	}

	report, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.MasterGenerated {
		t.Fatal("master digest must not regenerate within the freshness window")
	}
	if f.summarizer.masterCalls != 0 {
		t.Fatalf("master summarizer called %d times", f.summarizer.masterCalls)
	}

	latest, err := f.store.LatestByKind(ctx, store.InsightMasterWeekly)
	if err != nil {
		t.Fatalf("latest master: %v", err)
	}
	if latest.Content != "recent master" {
		t.Fatalf("master content = %q, want seeded row untouched", latest.Content)
	}
}

func TestRunMasterFallsBackToStoredWeeklies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Weekly digests exist from an earlier run but no channel produces fresh
	// contributions this run.
	if _, err := f.store.AddInsight(ctx, "UCold", store.InsightChannelWeekly, "Old Channel", "last week in review"); err != nil {
		t.Fatalf("seed weekly insight: %v", err)
	}

	report, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.MasterGenerated {
		t.Fatal("stored weekly digests should feed the master digest")
	}
	if f.summarizer.masterCalls != 1 {
		t.Fatalf("master calls = %d", f.summarizer.masterCalls)
	}
}

func TestRunExhaustsResolveAttemptsIntoFailedStatus(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxResolveAttempts(2))
	ctx := context.Background()

	channel := testsupport.NewChannel(t, f.store, "Unresolvable", "https://www.youtube.com/@nowhere")

	for run := 1; run <= 2; run++ {
		report, err := f.runner.Run(ctx)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if report.ChannelsResolveFailed != 1 {
			t.Fatalf("run %d resolve failed = %d", run, report.ChannelsResolveFailed)
		}
	}

	failed, err := f.store.ChannelByID(ctx, channel.ID)
	if err != nil {
		t.Fatalf("channel by id: %v", err)
	}
	if failed.Status != store.ChannelFailed {
		t.Fatalf("status = %q, want failed after exhausting attempts", failed.Status)
	}

	// Failed channels are terminal: further runs must not retry them.
	resolveCalls := f.resolver.calls
	if _, err := f.runner.Run(ctx); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if f.resolver.calls != resolveCalls {
		t.Fatalf("resolver retried a failed channel: %d -> %d", resolveCalls, f.resolver.calls)
	}
}

func TestRunChannelFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testsupport.NewActiveChannel(t, f.store, "Broken", "UCbroken")
	testsupport.NewActiveChannel(t, f.store, "Working", "UCworks")
	// UCbroken has no ChannelInfo entry, so metadata lookup fails.
	f.channels.details["UCworks"] = &youtube.ChannelDetails{ID: "UCworks", Title: "Working"}
	f.discoverer.videos["UCworks"] = []*store.Video{
		{ID: "ok1", ChannelID: "UCworks", Title: "Fine", PublishedAt: time.Now().UTC(), Transcript: "text", HasTranscript: true},
	}

	report, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ChannelsFailed != 1 || report.ChannelsProcessed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.VideosSummarized != 1 {
		t.Fatalf("working channel must still summarize, report = %+v", report)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	f := newFixture(t)
	testsupport.NewActiveChannel(t, f.store, "Later", "UClater")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSecondRunDoesNotDuplicateVideos(t *testing.T) {
	f := newFixture(t, testsupport.WithChannelStalenessHours(0))
	ctx := context.Background()

	testsupport.NewActiveChannel(t, f.store, "TechTalks", "UCtech")
	f.channels.details["UCtech"] = &youtube.ChannelDetails{ID: "UCtech", Title: "TechTalks"}
	f.discoverer.videos["UCtech"] = []*store.Video{
		{ID: "vid1", ChannelID: "UCtech", Title: "Talk", PublishedAt: time.Now().UTC(), Transcript: "words", HasTranscript: true},
	}

	first, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.VideosNew != 1 {
		t.Fatalf("first run videos new = %d", first.VideosNew)
	}

	second, err := f.runner.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.VideosNew != 0 {
		t.Fatalf("second run created %d videos, want 0", second.VideosNew)
	}

	videos, err := f.store.VideosByChannel(ctx, "UCtech")
	if err != nil {
		t.Fatalf("videos by channel: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("videos = %d, want exactly one row", len(videos))
	}
}

type fakeTranscripts struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string) (string, bool, error) {
	if err := f.errs[videoID]; err != nil {
		return "", false, err
	}
	text, ok := f.texts[videoID]
	return text, ok, nil
}

func TestBackfillTranscripts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewVideo(t, st, "vidA", "UCtech", "")
	testsupport.NewVideo(t, st, "vidB", "UCtech", "")
	testsupport.NewVideo(t, st, "vidC", "UCtech", "")

	runner, err := pipeline.NewRunner(pipeline.Options{
		Config:     cfg,
		Store:      st,
		Resolver:   &fakeResolver{},
		Channels:   &fakeChannels{},
		Discoverer: &fakeDiscoverer{},
		Summarizer: &fakeSummarizer{},
		Transcripts: &fakeTranscripts{
			texts: map[string]string{"vidA": "now available"},
			errs:  map[string]error{"vidB": errors.New("api down")},
		},
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	updated, err := runner.BackfillTranscripts(ctx)
	if err != nil {
		t.Fatalf("BackfillTranscripts: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	video, err := st.GetVideo(ctx, "vidA")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if !video.HasTranscript || video.Transcript != "now available" {
		t.Fatalf("video = %+v", video)
	}

	remaining, err := st.VideosWithoutTranscript(ctx)
	if err != nil {
		t.Fatalf("videos without transcript: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
}
