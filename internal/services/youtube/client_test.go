package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tubedigest/internal/services"
)

func TestChannelInfoParsesSnippetAndStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "UCtest" {
			t.Errorf("id = %q, want UCtest", got)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing api key")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"UCtest","snippet":{"title":"Test Channel","description":"About tech"},"statistics":{"subscriberCount":"1200","viewCount":"34000","videoCount":"87"}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	details, err := client.ChannelInfo(context.Background(), "UCtest")
	if err != nil {
		t.Fatalf("ChannelInfo: %v", err)
	}
	if details.Title != "Test Channel" || details.SubscriberCount != 1200 || details.VideoCount != 87 {
		t.Fatalf("details = %+v", details)
	}
}

func TestChannelInfoMissingChannelIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.ChannelInfo(context.Background(), "UCmissing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestRecentVideosDrainsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("channelId"); got != "UCtest" {
			t.Errorf("channelId = %q", got)
		}
		if r.URL.Query().Get("publishedAfter") == "" {
			t.Error("missing publishedAfter")
		}
		switch r.URL.Query().Get("pageToken") {
		case "":
			w.Write([]byte(`{"nextPageToken":"page2","items":[{"id":{"videoId":"vid1"},"snippet":{"title":"One","publishedAt":"2026-08-28T10:00:00Z","thumbnails":{"high":{"url":"https://img/1.jpg"}}}}]}`))
		case "page2":
			w.Write([]byte(`{"items":[{"id":{"videoId":"vid2"},"snippet":{"title":"Two","publishedAt":"2026-08-27T09:00:00Z","thumbnails":{"high":{"url":"https://img/2.jpg"}}}}]}`))
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	videos, err := client.RecentVideos(context.Background(), "UCtest", time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("RecentVideos: %v", err)
	}
	if len(videos) != 2 || videos[0].ID != "vid1" || videos[1].ID != "vid2" {
		t.Fatalf("videos = %+v", videos)
	}
	if videos[0].ThumbnailURL != "https://img/1.jpg" {
		t.Fatalf("thumbnail = %q", videos[0].ThumbnailURL)
	}
}

func TestVideoStatisticsMissingVideoYieldsZeros(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	stats, err := client.VideoStatistics(context.Background(), "vidGone")
	if err != nil {
		t.Fatalf("VideoStatistics: %v", err)
	}
	if stats != (VideoStats{}) {
		t.Fatalf("stats = %+v, want zeros", stats)
	}
}

func TestVideoStatisticsParsesCounters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"statistics":{"viewCount":"500","likeCount":"42","commentCount":"7"}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	stats, err := client.VideoStatistics(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("VideoStatistics: %v", err)
	}
	want := VideoStats{ViewCount: 500, LikeCount: 42, CommentCount: 7}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestServerErrorSurfacesExternalAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.ChannelInfo(context.Background(), "UCtest")
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("err = %v, want external api", err)
	}
}

func TestMissingAPIKeyIsConfigurationError(t *testing.T) {
	client := NewClient("")
	_, err := client.ChannelInfo(context.Background(), "UCtest")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}
