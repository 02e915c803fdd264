package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tubedigest/internal/config"
)

const userAgent = "TubeDigest-Go/0.1.0"

// RunSummary carries the headline numbers of a completed pipeline run.
type RunSummary struct {
	ChannelsProcessed int
	ChannelsFailed    int
	ChannelsSkipped   int
	VideosDiscovered  int
	VideosSummarized  int
	MasterGenerated   bool
	Duration          time.Duration
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunStarted(ctx context.Context, pending, active int) error
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyChannelFailed(ctx context.Context, channelTitle string, attempts int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		runSummary: cfg.Notifications.RunSummary,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	runSummary bool
	errors     bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, pending, active int) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title:   "TubeDigest - Run Started",
		message: fmt.Sprintf("Started digest run: %d pending, %d active channels", pending, active),
		tags:    []string{"tubedigest", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	if !n.runSummary {
		return nil
	}

	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Digest run complete in %s\n", duration)
	fmt.Fprintf(&builder, "Channels: %d processed, %d skipped, %d failed\n",
		summary.ChannelsProcessed, summary.ChannelsSkipped, summary.ChannelsFailed)
	fmt.Fprintf(&builder, "Videos: %d discovered, %d summarized", summary.VideosDiscovered, summary.VideosSummarized)
	if summary.MasterGenerated {
		builder.WriteString("\nMaster digest generated")
	}

	title := "TubeDigest - Run Complete"
	priority := ""
	if summary.ChannelsFailed > 0 {
		title = "TubeDigest - Run Complete (with errors)"
		priority = "high"
	}

	data := payload{
		title:    title,
		message:  builder.String(),
		tags:     []string{"tubedigest", "run", "completed"},
		priority: priority,
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyChannelFailed(ctx context.Context, channelTitle string, attempts int) error {
	if !n.errors {
		return nil
	}
	channelTitle = strings.TrimSpace(channelTitle)
	data := payload{
		title:   "TubeDigest - Channel Failed",
		message: fmt.Sprintf("Channel %s could not be resolved after %d attempts\nManual review required", channelTitle, attempts),
		tags:    []string{"tubedigest", "channel", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "TubeDigest - Error",
		message:  builder.String(),
		tags:     []string{"tubedigest", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "TubeDigest - Test",
		message:  "Notification system test",
		tags:     []string{"tubedigest", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNoop returns a Service that drops every event. Useful for tests and
// callers that do not wire notifications.
func NewNoop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int, int) error       { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunSummary) error   { return nil }
func (noopService) NotifyChannelFailed(context.Context, string, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
