package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tubedigest/internal/services"
)

const channelColumns = "id, title, url, canonical_id, status, description, subscriber_count, view_count, video_count, resolve_attempts, last_processed_at, created_at, updated_at"

// AddChannel creates a new tracked channel in the pending state.
func (s *Store) AddChannel(ctx context.Context, title, url string) (*Channel, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add channel", "title and url required", nil)
	}

	timestamp := formatTime(time.Now())
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO channels (title, url, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		url,
		ChannelPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.ChannelByID(ctx, id)
}

// ChannelByID fetches a channel by identifier. Returns nil when absent.
func (s *Store) ChannelByID(ctx context.Context, id int64) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return channel, nil
}

// ChannelsByStatus returns channels matching a status ordered by creation time.
func (s *Store) ChannelsByStatus(ctx context.Context, status ChannelStatus) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query channels by status: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// ListChannels returns all channels ordered by creation time.
func (s *Store) ListChannels(ctx context.Context) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// ActivateChannel transitions a channel to active with its canonical id set.
// The pairing is enforced here so an active channel can never lack an id.
func (s *Store) ActivateChannel(ctx context.Context, id int64, canonicalID string) error {
	canonicalID = strings.TrimSpace(canonicalID)
	if canonicalID == "" {
		return services.Wrap(services.ErrValidation, "store", "activate channel", "canonical id required", nil)
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE channels SET canonical_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		canonicalID,
		ChannelActive,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("activate channel: %w", err)
	}
	return nil
}

// RecordResolveFailure increments a pending channel's resolve attempt counter
// and moves it to the terminal failed state once maxAttempts is reached.
// It returns the new attempt count and whether the channel was failed.
func (s *Store) RecordResolveFailure(ctx context.Context, id int64, maxAttempts int) (int, bool, error) {
	channel, err := s.ChannelByID(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if channel == nil {
		return 0, false, services.Wrap(services.ErrNotFound, "store", "record resolve failure", fmt.Sprintf("channel %d", id), nil)
	}

	attempts := channel.ResolveAttempts + 1
	status := ChannelPending
	if maxAttempts > 0 && attempts >= maxAttempts {
		status = ChannelFailed
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE channels SET resolve_attempts = ?, status = ?, updated_at = ? WHERE id = ?`,
		attempts,
		status,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return 0, false, fmt.Errorf("record resolve failure: %w", err)
	}
	return attempts, status == ChannelFailed, nil
}

// UpdateChannelMetadata merges refreshed remote metadata into a channel row.
func (s *Store) UpdateChannelMetadata(ctx context.Context, id int64, title, description string, subscribers, views, videos int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE channels
         SET title = ?, description = ?, subscriber_count = ?, view_count = ?, video_count = ?, updated_at = ?
         WHERE id = ?`,
		title,
		nullableString(description),
		subscribers,
		views,
		videos,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update channel metadata: %w", err)
	}
	return nil
}

// TouchChannelProcessed records a successful processing pass for a channel.
func (s *Store) TouchChannelProcessed(ctx context.Context, id int64, when time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE channels SET last_processed_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(when),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("touch channel processed: %w", err)
	}
	return nil
}

func scanChannel(scanner interface{ Scan(dest ...any) error }) (*Channel, error) {
	var (
		id              int64
		title           string
		url             string
		canonicalID     sql.NullString
		statusStr       string
		description     sql.NullString
		subscriberCount int64
		viewCount       int64
		videoCount      int64
		resolveAttempts int
		lastProcessed   sql.NullString
		createdRaw      string
		updatedRaw      string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&url,
		&canonicalID,
		&statusStr,
		&description,
		&subscriberCount,
		&viewCount,
		&videoCount,
		&resolveAttempts,
		&lastProcessed,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	channel := &Channel{
		ID:              id,
		Title:           title,
		URL:             url,
		CanonicalID:     canonicalID.String,
		Status:          ChannelStatus(statusStr),
		Description:     description.String,
		SubscriberCount: subscriberCount,
		ViewCount:       viewCount,
		VideoCount:      videoCount,
		ResolveAttempts: resolveAttempts,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		channel.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		channel.UpdatedAt = updated
	}
	if lastProcessed.Valid {
		if processed, err := parseTimeString(lastProcessed.String); err == nil {
			channel.LastProcessedAt = &processed
		}
	}
	return channel, nil
}
