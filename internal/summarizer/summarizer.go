// Package summarizer turns transcripts and lower-tier summaries into digest
// text through a generation backend. All operations degrade to an empty
// Result instead of failing the caller.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tubedigest/internal/logging"
	"tubedigest/internal/store"
)

// Generator produces text from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// PromptSource supplies the active prompt templates.
type PromptSource interface {
	LatestPromptSet(ctx context.Context) (*store.PromptSet, error)
}

// Result is the outcome of one summarization call. HasContent is false when
// the input was empty, no prompt set is loaded, or the backend failed.
type Result struct {
	Content    string
	HasContent bool
}

// VideoSummary pairs a video title with its generated summary for the weekly
// channel rollup.
type VideoSummary struct {
	Title   string
	Summary string
}

// Contribution is one channel's weekly summary feeding the master digest.
type Contribution struct {
	ChannelTitle string
	Content      string
}

// Summarizer orchestrates prompt assembly and backend calls.
type Summarizer struct {
	generator Generator
	prompts   PromptSource
	logger    *slog.Logger
}

// New constructs a Summarizer. A nil logger discards output.
func New(generator Generator, prompts PromptSource, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Summarizer{
		generator: generator,
		prompts:   prompts,
		logger:    logging.NewComponentLogger(logger, "summarizer"),
	}
}

// SummarizeVideo summarizes a single transcript using the stored video
// template. An empty transcript short-circuits without a backend call.
func (s *Summarizer) SummarizeVideo(ctx context.Context, title, transcript string) Result {
	if strings.TrimSpace(transcript) == "" {
		return Result{}
	}

	template, ok := s.videoTemplate(ctx, title)
	if !ok {
		return Result{}
	}
	return s.generate(ctx, VideoSystemPrompt, template+"\n"+transcript, "video summary")
}

// SummarizeWithPrompt summarizes a transcript with a caller-supplied prompt
// instead of the stored template. Backs the ad hoc front door.
func (s *Summarizer) SummarizeWithPrompt(ctx context.Context, customPrompt, title, transcript string) Result {
	if strings.TrimSpace(transcript) == "" || strings.TrimSpace(customPrompt) == "" {
		return Result{}
	}
	user := fmt.Sprintf("%s\n\nVideo: %s\n\nTranscript:\n%s", customPrompt, title, transcript)
	return s.generate(ctx, VideoSystemPrompt, user, "ad hoc summary")
}

// SummarizeChannelWeek rolls the week's video summaries for one channel into
// a single digest. No summaries means no backend call.
func (s *Summarizer) SummarizeChannelWeek(ctx context.Context, channelTitle string, videos []VideoSummary) Result {
	if len(videos) == 0 {
		return Result{}
	}

	set, ok := s.promptSet(ctx)
	if !ok {
		return Result{}
	}
	template := substitute(set.ChannelPrompt, ChannelNamePlaceholder, channelTitle)

	entries := make([]string, 0, len(videos))
	for _, video := range videos {
		entries = append(entries, fmt.Sprintf("Video: %s\nSummary: %s", video.Title, video.Summary))
	}
	user := template + "\n" + strings.Join(entries, "\n\n")
	return s.generate(ctx, ChannelSystemPrompt, user, "channel weekly summary")
}

// SummarizeMasterWeek combines per-channel weekly digests into the
// cross-channel master digest.
func (s *Summarizer) SummarizeMasterWeek(ctx context.Context, contributions []Contribution) Result {
	if len(contributions) == 0 {
		return Result{}
	}

	set, ok := s.promptSet(ctx)
	if !ok {
		return Result{}
	}

	entries := make([]string, 0, len(contributions))
	for _, contribution := range contributions {
		entries = append(entries, fmt.Sprintf("Channel: %s\n%s", contribution.ChannelTitle, contribution.Content))
	}
	user := set.MasterPrompt + "\n\n" + strings.Join(entries, "\n\n")
	return s.generate(ctx, MasterSystemPrompt, user, "master weekly summary")
}

func (s *Summarizer) videoTemplate(ctx context.Context, title string) (string, bool) {
	set, ok := s.promptSet(ctx)
	if !ok {
		return "", false
	}
	return substitute(set.VideoPrompt, VideoTitlePlaceholder, title), true
}

func (s *Summarizer) promptSet(ctx context.Context) (*store.PromptSet, bool) {
	set, err := s.prompts.LatestPromptSet(ctx)
	if err != nil {
		s.logger.Error("load prompt set failed", logging.Error(err))
		return nil, false
	}
	if set == nil {
		s.logger.Warn("no prompt set loaded; skipping summary")
		return nil, false
	}
	return set, true
}

func (s *Summarizer) generate(ctx context.Context, system, user, operation string) Result {
	content, err := s.generator.Generate(ctx, system, user)
	if err != nil {
		s.logger.Error("generation failed",
			logging.String("operation", operation),
			logging.Error(err))
		return Result{}
	}
	if strings.TrimSpace(content) == "" {
		return Result{}
	}
	return Result{Content: content, HasContent: true}
}

func substitute(template, placeholder, value string) string {
	if strings.TrimSpace(value) == "" {
		return template
	}
	return strings.ReplaceAll(template, placeholder, value)
}
