package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/skyisle/islandfly/internal/flight"
)

// FlightRepo stores flight-time records in the flight_time table.
// Implements flight.Store.
type FlightRepo struct {
	db *DB
}

func NewFlightRepo(db *DB) *FlightRepo {
	return &FlightRepo{db: db}
}

func (r *FlightRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM flight_time WHERE player_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("flight exists: %w", err)
	}
	return exists, nil
}

func (r *FlightRepo) Load(ctx context.Context, id uuid.UUID) (*flight.Record, error) {
	rec := &flight.Record{PlayerID: id}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT seconds FROM flight_time WHERE player_id = $1`, id,
	).Scan(&rec.Seconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flight load: %w", err)
	}
	return rec, nil
}

func (r *FlightRepo) Save(ctx context.Context, rec *flight.Record) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO flight_time (player_id, seconds, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (player_id)
		 DO UPDATE SET seconds = EXCLUDED.seconds, updated_at = NOW()`,
		rec.PlayerID, rec.Seconds,
	)
	if err != nil {
		return fmt.Errorf("flight save: %w", err)
	}
	return nil
}

func (r *FlightRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM flight_time WHERE player_id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("flight delete: %w", err)
	}
	return nil
}
