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

const videoColumns = "id, channel_id, title, description, published_at, thumbnail_url, view_count, like_count, comment_count, transcript, has_transcript, created_at, updated_at"

// GetVideo fetches a video by its platform identifier. Returns nil when absent.
func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// CreateVideo persists a newly discovered video. Creation is idempotent on the
// video id: when a row already exists the call is a no-op and created is false.
func (s *Store) CreateVideo(ctx context.Context, video *Video) (created bool, err error) {
	if video == nil {
		return false, errors.New("video is nil")
	}
	if strings.TrimSpace(video.ID) == "" || strings.TrimSpace(video.ChannelID) == "" {
		return false, services.Wrap(services.ErrValidation, "store", "create video", "id and channel id required", nil)
	}
	if video.HasTranscript != (video.Transcript != "") {
		return false, services.Wrap(services.ErrValidation, "store", "create video", "has_transcript must mirror transcript presence", nil)
	}

	timestamp := formatTime(time.Now())
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
            id, channel_id, title, description, published_at, thumbnail_url,
            view_count, like_count, comment_count, transcript, has_transcript,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO NOTHING`,
		video.ID,
		video.ChannelID,
		video.Title,
		nullableString(video.Description),
		formatTime(video.PublishedAt),
		nullableString(video.ThumbnailURL),
		video.ViewCount,
		video.LikeCount,
		video.CommentCount,
		video.Transcript,
		boolToInt(video.HasTranscript),
		timestamp,
		timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("insert video: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateVideoTranscript merges a freshly fetched transcript into an existing
// video row, keeping the has_transcript pairing intact.
func (s *Store) UpdateVideoTranscript(ctx context.Context, id, transcript string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET transcript = ?, has_transcript = ?, updated_at = ? WHERE id = ?`,
		transcript,
		boolToInt(transcript != ""),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update video transcript: %w", err)
	}
	return nil
}

// VideosWithoutTranscript returns stored videos that have no transcript yet,
// ordered by publication time.
func (s *Store) VideosWithoutTranscript(ctx context.Context) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE has_transcript = 0 ORDER BY published_at`)
	if err != nil {
		return nil, fmt.Errorf("query videos without transcript: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// VideosByChannel returns stored videos for a canonical channel id ordered by
// publication time.
func (s *Store) VideosByChannel(ctx context.Context, channelID string) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE channel_id = ? ORDER BY published_at`, channelID)
	if err != nil {
		return nil, fmt.Errorf("query videos by channel: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		id            string
		channelID     string
		title         string
		description   sql.NullString
		publishedRaw  string
		thumbnailURL  sql.NullString
		viewCount     int64
		likeCount     int64
		commentCount  int64
		transcript    string
		hasTranscript int
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&channelID,
		&title,
		&description,
		&publishedRaw,
		&thumbnailURL,
		&viewCount,
		&likeCount,
		&commentCount,
		&transcript,
		&hasTranscript,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	video := &Video{
		ID:            id,
		ChannelID:     channelID,
		Title:         title,
		Description:   description.String,
		ThumbnailURL:  thumbnailURL.String,
		ViewCount:     viewCount,
		LikeCount:     likeCount,
		CommentCount:  commentCount,
		Transcript:    transcript,
		HasTranscript: hasTranscript != 0,
	}

	if published, err := parseTimeString(publishedRaw); err == nil {
		video.PublishedAt = published
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		video.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		video.UpdatedAt = updated
	}
	return video, nil
}
