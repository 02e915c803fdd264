package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tubedigest/internal/services"
)

const insightColumns = "id, origin_id, kind, title, content, created_at"

// AddInsight appends a new immutable insight record. Empty content is
// rejected so a no-op summary never produces a row.
func (s *Store) AddInsight(ctx context.Context, originID string, kind InsightKind, title, content string) (*Insight, error) {
	originID = strings.TrimSpace(originID)
	if originID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add insight", "origin id required", nil)
	}
	if strings.TrimSpace(content) == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add insight", "content must not be empty", nil)
	}

	insight := &Insight{
		ID:        uuid.NewString(),
		OriginID:  originID,
		Kind:      kind,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO insights (id, origin_id, kind, title, content, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		insight.ID,
		insight.OriginID,
		insight.Kind,
		insight.Title,
		insight.Content,
		formatTime(insight.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert insight: %w", err)
	}
	return insight, nil
}

// LatestInsight returns the most recent insight for an origin and kind, or nil.
func (s *Store) LatestInsight(ctx context.Context, originID string, kind InsightKind) (*Insight, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+insightColumns+` FROM insights WHERE origin_id = ? AND kind = ? ORDER BY created_at DESC LIMIT 1`,
		originID,
		kind,
	)
	insight, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest insight: %w", err)
	}
	return insight, nil
}

// LatestByKind returns the most recent insight of a kind regardless of origin, or nil.
func (s *Store) LatestByKind(ctx context.Context, kind InsightKind) (*Insight, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+insightColumns+` FROM insights WHERE kind = ? ORDER BY created_at DESC LIMIT 1`,
		kind,
	)
	insight, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest insight by kind: %w", err)
	}
	return insight, nil
}

// InsightsSince returns insights of a kind created at or after the cutoff,
// ordered oldest first.
func (s *Store) InsightsSince(ctx context.Context, kind InsightKind, cutoff time.Time) ([]*Insight, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+insightColumns+` FROM insights WHERE kind = ? AND created_at >= ? ORDER BY created_at`,
		kind,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("query insights since: %w", err)
	}
	defer rows.Close()

	var insights []*Insight
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, insight)
	}
	return insights, rows.Err()
}

func scanInsight(scanner interface{ Scan(dest ...any) error }) (*Insight, error) {
	var (
		id         string
		originID   string
		kindStr    string
		title      string
		content    string
		createdRaw string
	)

	if err := scanner.Scan(&id, &originID, &kindStr, &title, &content, &createdRaw); err != nil {
		return nil, err
	}

	insight := &Insight{
		ID:       id,
		OriginID: originID,
		Kind:     InsightKind(kindStr),
		Title:    title,
		Content:  content,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		insight.CreatedAt = created
	}
	return insight, nil
}
