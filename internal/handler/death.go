package handler

import (
	"github.com/skyisle/islandfly/internal/core/event"
	"go.uber.org/zap"
)

// OnPlayerDied pauses flight across death. Bypass holders inside a managed
// world keep their state; everyone else stops flying (and their countdown
// stops consuming budget while they are on the respawn screen).
func OnPlayerDied(ev event.PlayerDied, deps *Deps) {
	p := deps.World.Player(ev.PlayerID)
	if p == nil {
		return
	}
	if deps.Checker.InManagedWorld(p) && deps.Checker.CanBypassFly(p) {
		return
	}
	stopIfTracked(p.ID, deps)
	p.Flying = false
}

// OnPlayerRespawned restores flight after death for island members whose
// allow-flight survived. Tempfly holders only resume when budget remains.
func OnPlayerRespawned(ev event.PlayerRespawned, deps *Deps) {
	p := deps.World.Player(ev.PlayerID)
	if p == nil {
		return
	}
	island := deps.World.IslandAt(p.Loc)
	if island == nil {
		return
	}
	if _, member := island.Members[p.ID]; !member {
		return
	}

	switch {
	case deps.Checker.CanUseFly(p):
		if p.AllowFlight {
			p.Flying = true
		}
	case deps.Checker.CanUseTempFly(p):
		if !p.AllowFlight {
			return
		}
		ctx, cancel := opCtx()
		defer cancel()
		rec, err := deps.Ledger.Record(ctx, p.ID)
		if err != nil {
			deps.Log.Error("load flight record on respawn",
				zap.String("player", p.Name), zap.Error(err))
			return
		}
		if rec == nil || rec.Seconds == 0 {
			return
		}
		if err := deps.Ledger.StartTracking(ctx, p.ID); err != nil {
			deps.Log.Error("resume tracking on respawn",
				zap.String("player", p.Name), zap.Error(err))
			return
		}
		p.Flying = true
	}
}
