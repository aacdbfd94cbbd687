package handler

import (
	"strconv"

	"github.com/skyisle/islandfly/internal/core/event"
	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
)

// OnPlayerJoined restores mid-air flight across a reconnect. Only players
// who were left airborne with the disable-on-logout courtesy turned off get
// their flight back; everyone else starts grounded and re-earns it through
// the normal island-entry path.
func OnPlayerJoined(ev event.PlayerJoined, deps *Deps) {
	p := deps.World.Player(ev.PlayerID)
	if p == nil {
		return
	}
	if !deps.Checker.InManagedWorld(p) {
		return
	}

	hasFly := deps.Checker.CanUseFly(p)
	hasTemp := deps.Checker.CanUseTempFly(p)
	if !hasFly && !hasTemp {
		deps.Messages.Send(p, msgNotAllowedFly)
		return
	}
	if deps.Config.Flight.FlyDisableOnLogout {
		return
	}
	if !p.InAir {
		return
	}

	island := deps.World.IslandAt(p.Loc)
	if island == nil {
		return
	}
	if _, member := island.Members[p.ID]; !member {
		deps.Messages.Send(p, msgNotAllowedFly)
		return
	}
	if !deps.Checker.CanFlyIslandLevel(island) {
		deps.Messages.Send(p, msgMinLevelAlert,
			"[number]", strconv.FormatInt(deps.Config.Flight.FlyMinLevel, 10))
		return
	}
	if !island.IsAllowed(p, world.FlagFlyProtection) {
		deps.Messages.Send(p, msgNotAllowedFly)
		return
	}

	if hasTemp && !hasFly {
		if err := startTempFlight(p, deps); err != nil {
			deps.Log.Error("restore temp flight",
				zap.String("player", p.Name), zap.Error(err))
			return
		}
	}
	// Cancel accumulated fall distance so the restore never kills them.
	p.FallDistance = 0
	p.AllowFlight = true
	p.Flying = true
	deps.Messages.Send(p, msgEnableFly)
}

// OnPlayerQuit flushes the countdown and, when configured, strips flight so
// the player does not reconnect airborne.
func OnPlayerQuit(ev event.PlayerQuit, deps *Deps) {
	stopIfTracked(ev.PlayerID, deps)

	p := deps.World.Player(ev.PlayerID)
	if p == nil {
		return
	}
	if p.AllowFlight && deps.Config.Flight.FlyDisableOnLogout {
		deps.Log.Info("disabling flight on logout", zap.String("player", p.Name))
		p.Flying = false
		p.AllowFlight = false
	}
}
