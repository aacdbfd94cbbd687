package handler

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/skyisle/islandfly/internal/core/event"
	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
)

// Message keys used by the flight handlers.
const (
	msgEnableFly         = "islandfly.enable-fly"
	msgDisableFly        = "islandfly.disable-fly"
	msgNotAllowedFly     = "islandfly.not-allowed-fly"
	msgIslandNotAllowed  = "islandfly.island-not-allowed-fly"
	msgFlyOutsideAlert   = "islandfly.fly-outside-alert"
	msgFlyTurningOff     = "islandfly.fly-turning-off-alert"
	msgReallowedFly      = "islandfly.reallowed-fly"
	msgMinLevelAlert     = "islandfly.fly-min-level-alert"
	msgNoTimeLeft        = "islandfly.no-time-left"
	msgWrongWorld        = "islandfly.wrong-world"
	msgOutsideProtection = "islandfly.outside-protection-range"
	msgNoPermission      = "islandfly.no-permission"
	msgCommandError      = "islandfly.command-error"
)

// OnIslandEnter re-evaluates flight one tick after the player crosses into
// an island's protected area, so the host has settled the move first.
func OnIslandEnter(ev event.IslandEntered, deps *Deps) {
	deps.Sched.RunLater(0, func() {
		p := deps.World.Player(ev.PlayerID)
		if p == nil || !p.Online {
			return
		}
		island := deps.World.Island(ev.IslandID)
		if island == nil {
			return
		}
		if deps.Checker.CanEnable(p, island) {
			EnableFlight(p, deps)
		}
	})
}

// OnIslandExit re-evaluates flight one tick after the player leaves a
// protected area. Removal goes through the grace-period path.
func OnIslandExit(ev event.IslandExited, deps *Deps) {
	deps.Sched.RunLater(0, func() {
		p := deps.World.Player(ev.PlayerID)
		if p == nil || !p.Online {
			return
		}
		if deps.Checker.MustRemove(p) {
			RemoveFly(p, deps)
		}
	})
}

// OnFlightToggled reacts to host-reported flight state changes. Turning
// flight off ends any running countdown so no budget leaks.
func OnFlightToggled(ev event.FlightToggled, deps *Deps) {
	if ev.Allowed {
		return
	}
	if !deps.Ledger.IsTracked(ev.PlayerID) {
		return
	}
	ctx, cancel := opCtx()
	defer cancel()
	if err := deps.Ledger.StopTracking(ctx, ev.PlayerID); err != nil {
		deps.Log.Error("stop tracking on toggle",
			zap.String("player", ev.PlayerID.String()), zap.Error(err))
	}
}

// EnableFlight grants flight: unconditionally for fly-permission holders,
// budgeted for tempfly holders. Reports whether flight was granted.
func EnableFlight(p *world.PlayerInfo, deps *Deps) bool {
	switch {
	case deps.Checker.CanUseFly(p):
		p.AllowFlight = true
		deps.Messages.Send(p, msgEnableFly)
		return true
	case deps.Checker.CanUseTempFly(p):
		if err := startTempFlight(p, deps); err != nil {
			deps.Log.Error("start temp flight",
				zap.String("player", p.Name), zap.Error(err))
			return false
		}
		p.AllowFlight = true
		deps.Messages.Send(p, msgEnableFly)
		return true
	}
	return false
}

// startTempFlight begins the countdown, creating a zero record first when
// the player has never flown on a budget before.
func startTempFlight(p *world.PlayerInfo, deps *Deps) error {
	ctx, cancel := opCtx()
	defer cancel()

	rec, err := deps.Ledger.Record(ctx, p.ID)
	if err != nil {
		return err
	}
	if rec == nil {
		if _, err := deps.Ledger.SetSeconds(ctx, p.ID, 0); err != nil {
			return err
		}
	}
	return deps.Ledger.StartTracking(ctx, p.ID)
}

// RemoveFly takes flight away. Inside a managed world the player gets the
// configured grace period first; elsewhere removal is immediate.
func RemoveFly(p *world.PlayerInfo, deps *Deps) {
	if deps.Checker.InManagedWorld(p) {
		timeout := deps.Config.Flight.FlyTimeout
		if p.Flying {
			deps.Messages.Send(p, msgFlyOutsideAlert, "[number]", strconv.Itoa(timeout))
		}
		deps.Sched.RunLater(time.Duration(timeout)*time.Second, func() {
			DisableFly(p, deps)
		})
		return
	}
	DisableFly(p, deps)
}

// DisableFly grounds the player now. Safe to call from delayed tasks: a
// player that logged out in the meantime is skipped (quit handling already
// flushed their countdown).
func DisableFly(p *world.PlayerInfo, deps *Deps) {
	if !p.Online {
		return
	}
	if p.Flying {
		deps.Messages.Send(p, msgDisableFly)
	}
	stopIfTracked(p.ID, deps)
	p.Flying = false
	p.AllowFlight = false
}

func stopIfTracked(id uuid.UUID, deps *Deps) {
	if !deps.Ledger.IsTracked(id) {
		return
	}
	ctx, cancel := opCtx()
	defer cancel()
	if err := deps.Ledger.StopTracking(ctx, id); err != nil {
		deps.Log.Error("stop tracking",
			zap.String("player", id.String()), zap.Error(err))
	}
}
