// Package resolver turns user-supplied channel URLs into canonical UC channel
// ids. Vanity and handle URLs are resolved by scraping the channel page.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"tubedigest/internal/services"
)

const defaultHTTPTimeout = 20 * time.Second

var (
	urlChannelPattern  = regexp.MustCompile(`youtube\.com/channel/(UC[\w-]+)`)
	rssChannelPattern  = regexp.MustCompile(`channel_id=(UC[\w-]+)`)
	metaChannelPattern = regexp.MustCompile(`"channelId":"(UC[\w-]+)"`)
)

// Resolver extracts canonical channel ids from channel URLs.
type Resolver struct {
	httpClient *http.Client
}

// Option customizes the resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// New constructs a Resolver.
func New(opts ...Option) *Resolver {
	resolver := &Resolver{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(resolver)
	}
	if resolver.httpClient == nil {
		resolver.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return resolver
}

// Resolve extracts the canonical UC id from a channel URL. Direct /channel/
// URLs resolve without a network round trip; vanity and handle URLs are
// fetched and scanned for the RSS channel_id parameter, then the channelId
// metadata field. A URL that yields no id returns services.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, channelURL string) (string, error) {
	channelURL = strings.TrimSpace(channelURL)
	if channelURL == "" {
		return "", services.Wrap(services.ErrValidation, "resolver", "resolve", "channel url required", nil)
	}

	if match := urlChannelPattern.FindStringSubmatch(channelURL); match != nil {
		return match[1], nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, channelURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "resolver", "resolve", "invalid channel url", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "resolver", "resolve",
			fmt.Sprintf("fetch %s", channelURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrNotFound, "resolver", "resolve",
			fmt.Sprintf("fetch %s: http %d", channelURL, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "resolver", "resolve", "read channel page", err)
	}

	page := string(body)
	if match := rssChannelPattern.FindStringSubmatch(page); match != nil {
		return match[1], nil
	}
	if match := metaChannelPattern.FindStringSubmatch(page); match != nil {
		return match[1], nil
	}

	return "", services.Wrap(services.ErrNotFound, "resolver", "resolve",
		fmt.Sprintf("no channel id found at %s", channelURL), nil)
}
