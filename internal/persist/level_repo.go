package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LevelRepo reads island levels written by the leveling service. This addon
// never writes the table.
type LevelRepo struct {
	db *DB
}

func NewLevelRepo(db *DB) *LevelRepo {
	return &LevelRepo{db: db}
}

// Level returns the stored level for an island owner in a world.
// found is false when the leveling service has not scored the island yet.
func (r *LevelRepo) Level(ctx context.Context, world string, owner uuid.UUID) (level int64, found bool, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT level FROM island_levels WHERE world = $1 AND owner_id = $2`,
		world, owner,
	).Scan(&level)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("island level: %w", err)
	}
	return level, true, nil
}
