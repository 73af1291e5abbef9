// exposes a Store interface that is passed to API calls and the poller
package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

type Store interface {
	// episode history
	RecordEpisode(ctx context.Context, e model.Episode) error
	ListEpisodes(ctx context.Context, limit int) ([]model.Episode, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}
