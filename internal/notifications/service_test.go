package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tubedigest/internal/config"
	"tubedigest/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunStarted(context.Background(), 1, 2); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsRunEvents(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 5
	cfg.Notifications.RunSummary = true
	cfg.Notifications.Errors = true
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunStarted(context.Background(), 2, 5); err != nil {
		t.Fatalf("run started: %v", err)
	}
	if captured.title != "TubeDigest - Run Started" {
		t.Fatalf("title = %q", captured.title)
	}
	if captured.body != "Started digest run: 2 pending, 5 active channels" {
		t.Fatalf("body = %q", captured.body)
	}
	if captured.tags != "tubedigest,run,started" {
		t.Fatalf("tags = %q", captured.tags)
	}

	summary := notifications.RunSummary{
		ChannelsProcessed: 3,
		ChannelsFailed:    1,
		ChannelsSkipped:   2,
		VideosDiscovered:  8,
		VideosSummarized:  6,
		MasterGenerated:   true,
		Duration:          91 * time.Second,
	}
	if err := svc.NotifyRunCompleted(context.Background(), summary); err != nil {
		t.Fatalf("run completed: %v", err)
	}
	if captured.title != "TubeDigest - Run Complete (with errors)" {
		t.Fatalf("title = %q", captured.title)
	}
	if captured.priority != "high" {
		t.Fatalf("priority = %q", captured.priority)
	}
	if !strings.Contains(captured.body, "3 processed, 2 skipped, 1 failed") {
		t.Fatalf("body = %q", captured.body)
	}
	if !strings.Contains(captured.body, "Master digest generated") {
		t.Fatalf("body = %q", captured.body)
	}

	if err := svc.NotifyError(context.Background(), errors.New("api down"), "discovery"); err != nil {
		t.Fatalf("notify error: %v", err)
	}
	if captured.body != "Error with discovery: api down" {
		t.Fatalf("body = %q", captured.body)
	}
	if captured.priority != "high" {
		t.Fatalf("priority = %q", captured.priority)
	}
}

func TestNtfyServiceRespectsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunSummary = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunStarted(context.Background(), 1, 1); err != nil {
		t.Fatalf("suppressed run started: %v", err)
	}
	if err := svc.NotifyRunCompleted(context.Background(), notifications.RunSummary{}); err != nil {
		t.Fatalf("suppressed run completed: %v", err)
	}
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "test"); err != nil {
		t.Fatalf("suppressed error: %v", err)
	}
	if err := svc.NotifyChannelFailed(context.Background(), "Some Channel", 5); err != nil {
		t.Fatalf("suppressed channel failed: %v", err)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from ntfy failure")
	}
}
