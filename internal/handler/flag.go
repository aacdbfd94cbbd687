package handler

import (
	"strconv"
	"time"

	"github.com/skyisle/islandfly/internal/core/event"
	"github.com/skyisle/islandfly/internal/world"
)

// OnFlagChanged reacts to the island fly-protection flag being raised. Every
// player currently flying on the island without sufficient rank gets the
// grace warning and a delayed re-checked disable. Ops are exempt.
func OnFlagChanged(ev event.FlagChanged, deps *Deps) {
	if ev.Flag != world.FlagFlyProtection {
		return
	}
	island := deps.World.Island(ev.IslandID)
	if island == nil {
		return
	}
	for _, p := range deps.World.PlayersOnIsland(island) {
		if !p.Flying || p.Op {
			continue
		}
		if island.IsAllowed(p, world.FlagFlyProtection) {
			continue
		}
		scheduleFlagDisable(p, island, deps)
	}
}

func scheduleFlagDisable(p *world.PlayerInfo, island *world.IslandInfo, deps *Deps) {
	timeout := deps.Config.Flight.FlyTimeout
	deps.Messages.Send(p, msgFlyTurningOff, "[number]", strconv.Itoa(timeout))
	if timeout <= 0 {
		groundFlagged(p, deps)
		return
	}
	deps.Sched.RunLater(time.Duration(timeout)*time.Second, func() {
		disableFlagged(p, island, deps)
	})
}

// disableFlagged runs when the flag-change grace period expires. The
// situation is re-checked from scratch: the flag may have been lowered
// again, or the player may have moved onto a different island whose own
// entry/exit handling now governs their flight.
func disableFlagged(p *world.PlayerInfo, island *world.IslandInfo, deps *Deps) {
	if !p.Online {
		return
	}
	if island.IsAllowed(p, world.FlagFlyProtection) {
		deps.Messages.Send(p, msgReallowedFly)
		return
	}
	if !island.OnIsland(p.Loc) {
		return
	}
	groundFlagged(p, deps)
}

func groundFlagged(p *world.PlayerInfo, deps *Deps) {
	stopIfTracked(p.ID, deps)
	if p.Flying {
		deps.Messages.Send(p, msgDisableFly)
	}
	p.Flying = false
	p.AllowFlight = false
}
