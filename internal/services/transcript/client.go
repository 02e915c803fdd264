package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"tubedigest/internal/services"
)

const (
	defaultBaseURL     = "https://www.youtube-transcript.io/api"
	defaultHTTPTimeout = 30 * time.Second
)

// Client fetches video transcripts from the transcript API. Track selection
// prefers the configured languages, falling back to the first track offered.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	matcher    language.Matcher
	preferred  []language.Tag
}

// Option customizes the transcript client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithPreferredLanguages sets the language codes to prefer when a video
// offers multiple transcript tracks. Unparseable codes are ignored.
func WithPreferredLanguages(codes []string) Option {
	return func(c *Client) {
		var tags []language.Tag
		for _, code := range codes {
			tag, err := language.Parse(strings.TrimSpace(code))
			if err != nil {
				continue
			}
			tags = append(tags, tag)
		}
		c.preferred = tags
		if len(tags) > 0 {
			c.matcher = language.NewMatcher(tags)
		}
	}
}

// NewClient constructs a transcript API client.
func NewClient(apiToken string, opts ...Option) *Client {
	client := &Client{
		apiToken:   strings.TrimSpace(apiToken),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Fetch retrieves the transcript text for a video. A video with no transcript
// (disabled, never generated, or empty tracks) returns ("", false, nil);
// transport and server failures return an error so callers can decide how to
// degrade.
func (c *Client) Fetch(ctx context.Context, videoID string) (string, bool, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", false, services.Wrap(services.ErrValidation, "transcript", "fetch", "video id required", nil)
	}
	if c.apiToken == "" {
		return "", false, services.Wrap(services.ErrConfiguration, "transcript", "fetch", "api token required", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/transcripts")
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalAPI, "transcript", "fetch", "build url", err)
	}

	encoded, err := json.Marshal(transcriptRequest{IDs: []string{videoID}})
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalAPI, "transcript", "fetch", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalAPI, "transcript", "fetch", "build request", err)
	}
	req.Header.Set("Authorization", c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, services.Wrap(services.ErrTransient, "transcript", "fetch", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalAPI, "transcript", "fetch", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, services.Wrap(services.ErrExternalAPI, "transcript", "fetch",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload []transcriptResult
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, services.Wrap(services.ErrExternalAPI, "transcript", "fetch", "decode response", err)
	}
	if len(payload) == 0 || len(payload[0].Tracks) == 0 {
		return "", false, nil
	}

	track := c.selectTrack(payload[0].Tracks)
	text := joinSegments(track.Transcript)
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// selectTrack picks the best-matching track for the preferred languages, or
// the first track when no preference matches.
func (c *Client) selectTrack(tracks []transcriptTrack) transcriptTrack {
	if c.matcher == nil || len(tracks) == 0 {
		return tracks[0]
	}

	best := 0
	bestConfidence := language.No
	for i, track := range tracks {
		tag, err := language.Parse(strings.TrimSpace(track.Language))
		if err != nil {
			continue
		}
		_, _, confidence := c.matcher.Match(tag)
		if confidence > bestConfidence {
			best = i
			bestConfidence = confidence
		}
	}
	return tracks[best]
}

func joinSegments(segments []transcriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

type transcriptRequest struct {
	IDs []string `json:"ids"`
}

type transcriptResult struct {
	ID     string            `json:"id"`
	Tracks []transcriptTrack `json:"tracks"`
}

type transcriptTrack struct {
	Language   string              `json:"language"`
	Transcript []transcriptSegment `json:"transcript"`
}

type transcriptSegment struct {
	Text string `json:"text"`
}
