package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"tubedigest/internal/config"
	"tubedigest/internal/discovery"
	"tubedigest/internal/logging"
	"tubedigest/internal/notifications"
	"tubedigest/internal/pipeline"
	"tubedigest/internal/resolver"
	"tubedigest/internal/services/anthropic"
	"tubedigest/internal/services/transcript"
	"tubedigest/internal/services/youtube"
	"tubedigest/internal/store"
	"tubedigest/internal/summarizer"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogFilePath()},
	})
}

func (c *commandContext) openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg)
}

// buildRunner wires the full pipeline from configuration.
func (c *commandContext) buildRunner(cfg *config.Config, st *store.Store, logger *slog.Logger) (*pipeline.Runner, error) {
	youtubeClient := youtube.NewClient(cfg.YouTube.APIKey,
		youtube.WithBaseURL(cfg.YouTube.BaseURL),
		youtube.WithTimeout(cfg.YouTubeTimeout()))
	transcriptClient := transcript.NewClient(cfg.Transcript.APIToken,
		transcript.WithBaseURL(cfg.Transcript.BaseURL),
		transcript.WithTimeout(cfg.TranscriptTimeout()),
		transcript.WithPreferredLanguages(cfg.Transcript.PreferredLanguages))
	anthropicClient := anthropic.NewClient(cfg.Anthropic.APIKey,
		anthropic.WithBaseURL(cfg.Anthropic.BaseURL),
		anthropic.WithModel(cfg.Anthropic.Model),
		anthropic.WithMaxTokens(cfg.Anthropic.MaxTokens),
		anthropic.WithTemperature(cfg.Anthropic.Temperature),
		anthropic.WithTimeout(cfg.AnthropicTimeout()))

	limiter := newAPILimiter(cfg)
	return pipeline.NewRunner(pipeline.Options{
		Config:      cfg,
		Store:       st,
		Resolver:    resolver.New(),
		Channels:    youtubeClient,
		Discoverer:  discovery.New(youtubeClient, transcriptClient, limiter, logger),
		Summarizer:  summarizer.New(anthropicClient, st, logger),
		Transcripts: transcriptClient,
		Notifier:    notifications.NewService(cfg),
		Logger:      logger,
	})
}

func newAPILimiter(cfg *config.Config) *rate.Limiter {
	rpm := cfg.Pipeline.RequestsPerMinute
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rpm/60.0), 1)
}

// withRunLock guards fn with the single-runner file lock.
func withRunLock(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockFilePath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another run holds the lock at %s", cfg.LockFilePath())
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
