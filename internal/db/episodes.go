package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// inserts a finished adhan episode. Re-recording the same id is a no-op.
func (s *pgStore) RecordEpisode(ctx context.Context, e model.Episode) error {
	query := `
	INSERT INTO adhan_episodes (id, prayer, scheduled, clip, outcome, started_at, ended_at)
	VALUES (:id, :prayer, :scheduled, :clip, :outcome, :started_at, :ended_at)
	ON CONFLICT (id) DO NOTHING;
	`
	if _, err := s.db.NamedExecContext(ctx, query, e); err != nil {
		log.Error().Err(err).Str("prayer", e.Prayer).Msg("failed to record episode")
		return err
	}
	return nil
}

// returns the latest episodes, newest first. limit is clamped to [1, MaxHistoryLimit].
func (s *pgStore) ListEpisodes(ctx context.Context, limit int) ([]model.Episode, error) {
	query := `
	SELECT id, prayer, scheduled, clip, outcome, started_at, ended_at
	FROM adhan_episodes
	ORDER BY started_at DESC
	LIMIT $1;
	`
	episodes := []model.Episode{}
	if err := s.db.SelectContext(ctx, &episodes, query, ClampLimit(limit)); err != nil {
		log.Error().Err(err).Msg("failed to list episodes")
		return nil, err
	}
	return episodes, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
