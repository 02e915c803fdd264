package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tubedigest/internal/services"
)

const (
	defaultBaseURL     = "https://www.googleapis.com/youtube/v3"
	defaultHTTPTimeout = 30 * time.Second
	searchPageSize     = 50
)

// Client wraps the YouTube Data API v3 endpoints the pipeline needs:
// channel metadata, recent-video search, and per-video statistics.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the YouTube client.
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

// NewClient constructs a YouTube Data API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
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

// ChannelDetails is channel metadata merged from the snippet and statistics parts.
type ChannelDetails struct {
	ID              string
	Title           string
	Description     string
	SubscriberCount int64
	ViewCount       int64
	VideoCount      int64
}

// VideoItem is one discovered upload from the search endpoint.
type VideoItem struct {
	ID           string
	Title        string
	Description  string
	PublishedAt  time.Time
	ThumbnailURL string
}

// VideoStats holds engagement counters for a single video.
type VideoStats struct {
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// ChannelInfo fetches snippet and statistics for a canonical channel id.
// An unknown id returns services.ErrNotFound.
func (c *Client) ChannelInfo(ctx context.Context, channelID string) (*ChannelDetails, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "channel info", "channel id required", nil)
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)

	var payload channelListResponse
	if err := c.get(ctx, "/channels", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.Items) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "youtube", "channel info", fmt.Sprintf("channel %s not found", channelID), nil)
	}

	item := payload.Items[0]
	return &ChannelDetails{
		ID:              item.ID,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		SubscriberCount: parseCount(item.Statistics.SubscriberCount),
		ViewCount:       parseCount(item.Statistics.ViewCount),
		VideoCount:      parseCount(item.Statistics.VideoCount),
	}, nil
}

// RecentVideos lists videos published on the channel after the cutoff, newest
// first, draining pageToken pagination until the API stops returning one.
func (c *Client) RecentVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]VideoItem, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "recent videos", "channel id required", nil)
	}

	var (
		videos    []VideoItem
		pageToken string
	)
	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("channelId", channelID)
		params.Set("maxResults", strconv.Itoa(searchPageSize))
		params.Set("order", "date")
		params.Set("type", "video")
		params.Set("publishedAfter", publishedAfter.UTC().Format(time.RFC3339))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var payload searchListResponse
		if err := c.get(ctx, "/search", params, &payload); err != nil {
			return nil, err
		}

		for _, item := range payload.Items {
			if item.ID.VideoID == "" {
				continue
			}
			published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalAPI, "youtube", "recent videos",
					fmt.Sprintf("unparseable publish time for video %s", item.ID.VideoID), err)
			}
			videos = append(videos, VideoItem{
				ID:           item.ID.VideoID,
				Title:        item.Snippet.Title,
				Description:  item.Snippet.Description,
				PublishedAt:  published,
				ThumbnailURL: item.Snippet.Thumbnails.High.URL,
			})
		}

		if payload.NextPageToken == "" {
			return videos, nil
		}
		pageToken = payload.NextPageToken
	}
}

// VideoStatistics fetches engagement counters for one video. A video with no
// statistics yields zero counters rather than an error.
func (c *Client) VideoStatistics(ctx context.Context, videoID string) (VideoStats, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return VideoStats{}, services.Wrap(services.ErrValidation, "youtube", "video statistics", "video id required", nil)
	}

	params := url.Values{}
	params.Set("part", "statistics")
	params.Set("id", videoID)

	var payload videoListResponse
	if err := c.get(ctx, "/videos", params, &payload); err != nil {
		return VideoStats{}, err
	}
	if len(payload.Items) == 0 {
		return VideoStats{}, nil
	}

	stats := payload.Items[0].Statistics
	return VideoStats{
		ViewCount:    parseCount(stats.ViewCount),
		LikeCount:    parseCount(stats.LikeCount),
		CommentCount: parseCount(stats.CommentCount),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "youtube", "request", "api key required", nil)
	}
	params.Set("key", c.apiKey)

	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "youtube", "request", "build url", err)
	}
	endpoint += "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "youtube", "request", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "youtube", "request", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "youtube", "request", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalAPI, "youtube", "request",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrExternalAPI, "youtube", "request", "decode response", err)
	}
	return nil
}

// parseCount tolerates the API returning counters as quoted strings.
func parseCount(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			ViewCount       string `json:"viewCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type searchListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}
