package anthropic

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

	"tubedigest/internal/services"
)

const (
	defaultBaseURL     = "https://api.anthropic.com"
	defaultModel       = "claude-3-sonnet-20240229"
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
	defaultHTTPTimeout = 120 * time.Second
	apiVersion         = "2023-06-01"
)

// Client wraps the Anthropic messages API for text generation.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// Option customizes the Anthropic client.
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

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens overrides the default completion budget.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
	}
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(c *Client) {
		if temperature >= 0 {
			c.temperature = temperature
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

// NewClient constructs an Anthropic messages API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     defaultBaseURL,
		model:       defaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
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

// Generate sends a single-turn message and returns the first text block of
// the response.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", services.Wrap(services.ErrValidation, "anthropic", "generate", "user prompt required", nil)
	}
	if c.apiKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "anthropic", "generate", "api key required", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/messages")
	if err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate", "build url", err)
	}

	encoded, err := json.Marshal(messageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		System:      system,
		Messages: []message{
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate", "build request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "anthropic", "generate", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload messageResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate", "decode response", err)
	}
	if payload.Error != nil {
		return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate",
			fmt.Sprintf("api error: %s", strings.TrimSpace(payload.Error.Message)), nil)
	}
	for _, block := range payload.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", services.Wrap(services.ErrExternalAPI, "anthropic", "generate", "empty response content", nil)
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
