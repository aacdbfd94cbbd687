package system

import (
	"context"
	"time"

	coresys "github.com/skyisle/islandfly/internal/core/system"
	"github.com/skyisle/islandfly/internal/flight"
	"go.uber.org/zap"
)

const autosaveTimeout = 10 * time.Second

// AutosaveSystem periodically flushes active countdown caches to the store
// so a crash loses at most one interval of flight time.
type AutosaveSystem struct {
	ledger   *flight.Ledger
	log      *zap.Logger
	interval time.Duration
	elapsed  time.Duration
}

func NewAutosaveSystem(ledger *flight.Ledger, interval time.Duration, log *zap.Logger) *AutosaveSystem {
	return &AutosaveSystem{ledger: ledger, log: log, interval: interval}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(dt time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := s.ledger.FlushActive(ctx); err != nil {
		s.log.Error("autosave flight time", zap.Error(err))
		return
	}
	if n := s.ledger.ActiveSessions(); n > 0 {
		s.log.Debug("autosaved flight time", zap.Int("sessions", n))
	}
}
