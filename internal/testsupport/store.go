package testsupport

import (
	"context"
	"testing"
	"time"

	"tubedigest/internal/config"
	"tubedigest/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewChannel creates a pending channel for tests using the provided store.
func NewChannel(t testing.TB, st *store.Store, title, url string) *store.Channel {
	t.Helper()

	channel, err := st.AddChannel(context.Background(), title, url)
	if err != nil {
		t.Fatalf("store.AddChannel: %v", err)
	}
	return channel
}

// NewActiveChannel creates a channel and activates it with the given
// canonical id.
func NewActiveChannel(t testing.TB, st *store.Store, title, canonicalID string) *store.Channel {
	t.Helper()

	channel := NewChannel(t, st, title, "https://www.youtube.com/channel/"+canonicalID)
	if err := st.ActivateChannel(context.Background(), channel.ID, canonicalID); err != nil {
		t.Fatalf("store.ActivateChannel: %v", err)
	}
	activated, err := st.ChannelByID(context.Background(), channel.ID)
	if err != nil {
		t.Fatalf("store.ChannelByID: %v", err)
	}
	return activated
}

// NewVideo persists a video row for tests.
func NewVideo(t testing.TB, st *store.Store, id, channelID, transcript string) *store.Video {
	t.Helper()

	video := &store.Video{
		ID:            id,
		ChannelID:     channelID,
		Title:         "Video " + id,
		PublishedAt:   time.Now().UTC().Add(-24 * time.Hour),
		Transcript:    transcript,
		HasTranscript: transcript != "",
	}
	if _, err := st.CreateVideo(context.Background(), video); err != nil {
		t.Fatalf("store.CreateVideo: %v", err)
	}
	return video
}

// SeedPromptSet stores a minimal prompt set so summarization paths have
// templates to work with.
func SeedPromptSet(t testing.TB, st *store.Store) *store.PromptSet {
	t.Helper()

	set, err := st.SavePromptSet(context.Background(),
		"Summarize the video %VIDEO_TITLE:",
		"Summarize this week for %CHANNEL_NAME:",
		"Combine the channel digests below:")
	if err != nil {
		t.Fatalf("store.SavePromptSet: %v", err)
	}
	return set
}
