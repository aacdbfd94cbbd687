// Package system holds the game-loop systems: event dispatch, scheduler
// advancement, and periodic persistence.
package system

import (
	"time"

	"github.com/skyisle/islandfly/internal/core/event"
	coresys "github.com/skyisle/islandfly/internal/core/system"
)

// DispatchSystem drains the event bus at the start of every tick. Events
// emitted during dispatch land in the back buffer and run next tick.
type DispatchSystem struct {
	bus *event.Bus
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
