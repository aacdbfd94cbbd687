// Package flight holds the addon core: the eligibility checker deciding
// whether a player may fly, and the ledger tracking consumable flight time.
package flight

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Record is the durable per-player flight-time value: at most one per
// player, Seconds never persisted negative (callers clamp before Save).
type Record struct {
	PlayerID uuid.UUID
	Seconds  int
}

// Store persists flight-time records. Single-record writes are atomic; the
// ledger is the sole writer while a session is active, so no further locking
// is required. Load returns (nil, nil) when no record exists.
type Store interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Load(ctx context.Context, id uuid.UUID) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var (
	// ErrNotTracked is returned by StopTracking without an active session.
	// Callers must guard with IsTracked; hitting this is a programming error
	// in the orchestration layer, not a user-facing condition.
	ErrNotTracked = errors.New("flight: player not tracked")

	// ErrAlreadyTracked is returned by StartTracking when a session is
	// already active for the player.
	ErrAlreadyTracked = errors.New("flight: player already tracked")

	// ErrNoRecord is returned by StartTracking when no record exists.
	// Callers default-create a zero-seconds record first.
	ErrNoRecord = errors.New("flight: no flight-time record")
)
