package system

import (
	"time"

	coresys "github.com/skyisle/islandfly/internal/core/system"
	"github.com/skyisle/islandfly/internal/sched"
)

// SchedSystem advances the shared scheduler by the tick's elapsed time,
// firing due one-shot and repeating tasks.
type SchedSystem struct {
	sched *sched.Scheduler
}

func NewSchedSystem(sc *sched.Scheduler) *SchedSystem {
	return &SchedSystem{sched: sc}
}

func (s *SchedSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SchedSystem) Update(dt time.Duration) {
	s.sched.Advance(dt)
}
