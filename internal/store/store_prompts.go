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

const promptColumns = "id, video_prompt, channel_prompt, master_prompt, created_at"

// SavePromptSet stores a new prompt set version. Earlier versions remain for
// auditing; readers always take the latest by creation time.
func (s *Store) SavePromptSet(ctx context.Context, videoPrompt, channelPrompt, masterPrompt string) (*PromptSet, error) {
	if strings.TrimSpace(videoPrompt) == "" || strings.TrimSpace(channelPrompt) == "" || strings.TrimSpace(masterPrompt) == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "save prompt set", "all three prompt templates are required", nil)
	}

	set := &PromptSet{
		VideoPrompt:   videoPrompt,
		ChannelPrompt: channelPrompt,
		MasterPrompt:  masterPrompt,
		CreatedAt:     time.Now().UTC(),
	}

	result, err := s.db.ExecContext(
		ctx,
		`INSERT INTO prompt_sets (video_prompt, channel_prompt, master_prompt, created_at) VALUES (?, ?, ?, ?)`,
		set.VideoPrompt,
		set.ChannelPrompt,
		set.MasterPrompt,
		formatTime(set.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert prompt set: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("prompt set id: %w", err)
	}
	set.ID = id
	return set, nil
}

// LatestPromptSet returns the most recently stored prompt set, or nil when
// none has been loaded yet.
func (s *Store) LatestPromptSet(ctx context.Context) (*PromptSet, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+promptColumns+` FROM prompt_sets ORDER BY created_at DESC, id DESC LIMIT 1`,
	)

	var (
		set        PromptSet
		createdRaw string
	)
	err := row.Scan(&set.ID, &set.VideoPrompt, &set.ChannelPrompt, &set.MasterPrompt, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest prompt set: %w", err)
	}
	if created, parseErr := parseTimeString(createdRaw); parseErr == nil {
		set.CreatedAt = created
	}
	return &set, nil
}
