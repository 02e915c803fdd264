package store

import (
	"strings"
	"time"
)

// ChannelStatus represents the lifecycle of a tracked channel.
type ChannelStatus string

const (
	ChannelPending ChannelStatus = "pending"
	ChannelActive  ChannelStatus = "active"
	ChannelFailed  ChannelStatus = "failed"
)

var channelStatuses = map[ChannelStatus]struct{}{
	ChannelPending: {},
	ChannelActive:  {},
	ChannelFailed:  {},
}

// ParseChannelStatus converts a string into a known ChannelStatus.
func ParseChannelStatus(value string) (ChannelStatus, bool) {
	normalized := ChannelStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := channelStatuses[normalized]
	return normalized, ok
}

// Channel is a tracked content source. canonical_id is set exactly when the
// channel is active; pending channels have not resolved yet and failed
// channels exhausted their resolve attempts.
type Channel struct {
	ID              int64
	Title           string
	URL             string
	CanonicalID     string
	Status          ChannelStatus
	Description     string
	SubscriberCount int64
	ViewCount       int64
	VideoCount      int64
	ResolveAttempts int
	LastProcessedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsResolvable reports whether the channel should still be offered to the resolver.
func (c Channel) IsResolvable() bool {
	return c.Status == ChannelPending
}

// Video is a single discovered content item. HasTranscript mirrors whether
// Transcript is non-empty; the store enforces the pairing on write.
type Video struct {
	ID            string
	ChannelID     string
	Title         string
	Description   string
	PublishedAt   time.Time
	ThumbnailURL  string
	ViewCount     int64
	LikeCount     int64
	CommentCount  int64
	Transcript    string
	HasTranscript bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InsightKind tags which aggregation tier produced an insight.
type InsightKind string

const (
	InsightVideo         InsightKind = "video"
	InsightChannelWeekly InsightKind = "channel_weekly"
	InsightMasterWeekly  InsightKind = "master_weekly"
)

// MasterOriginID is the sentinel origin recorded on master digests.
const MasterOriginID = "master"

// Insight is an immutable generated-summary record. Rows are only ever
// appended; the latest created_at per (origin_id, kind) is authoritative.
type Insight struct {
	ID        string
	OriginID  string
	Kind      InsightKind
	Title     string
	Content   string
	CreatedAt time.Time
}

// PromptSet holds the three prompt templates used by the summarizer. The most
// recently created row is the active set. Templates may contain %VIDEO_TITLE
// and %CHANNEL_NAME placeholders substituted verbatim before use.
type PromptSet struct {
	ID            int64
	VideoPrompt   string
	ChannelPrompt string
	MasterPrompt  string
	CreatedAt     time.Time
}
