package flight

import (
	"github.com/google/uuid"
	"github.com/skyisle/islandfly/internal/config"
	"github.com/skyisle/islandfly/internal/world"
)

// Permission nodes, appended to the configured prefix.
const (
	PermFly      = "fly"
	PermTempFly  = "tempfly"
	PermFlySpawn = "flyspawn"
	PermBypass   = "flybypass"
)

// Leveler is the external leveling service. May be absent entirely; lookups
// that fail are treated as "gate passes".
type Leveler interface {
	IslandLevel(world string, owner uuid.UUID) (int64, error)
}

// GateHooks lets operator-provided scripts add a final veto to both
// decisions. defined is false when no script provides the hook.
type GateHooks interface {
	CanEnable(p *world.PlayerInfo, island *world.IslandInfo) (verdict, defined bool)
	MustRemove(p *world.PlayerInfo, island *world.IslandInfo) (verdict, defined bool)
}

// Checker answers "can enable flight now?" and "must flight be removed
// now?". All gates are total: they return a verdict and never fail.
type Checker struct {
	cfg     config.FlightConfig
	world   *world.State
	leveler Leveler   // nil = leveling service not installed
	hooks   GateHooks // nil = no gate scripts
}

func NewChecker(cfg config.FlightConfig, ws *world.State, leveler Leveler, hooks GateHooks) *Checker {
	return &Checker{cfg: cfg, world: ws, leveler: leveler, hooks: hooks}
}

func (c *Checker) perm(node string) string {
	return c.cfg.PermissionPrefix + node
}

func (c *Checker) CanUseFly(p *world.PlayerInfo) bool {
	return p.HasPermission(c.perm(PermFly))
}

func (c *Checker) CanUseTempFly(p *world.PlayerInfo) bool {
	return p.HasPermission(c.perm(PermTempFly))
}

func (c *Checker) CanFlySpawn(p *world.PlayerInfo) bool {
	return p.HasPermission(c.perm(PermFlySpawn))
}

func (c *Checker) CanBypassFly(p *world.PlayerInfo) bool {
	return p.HasPermission(c.perm(PermBypass))
}

func (c *Checker) IsCreativeOrSpectator(p *world.PlayerInfo) bool {
	return p.Mode == world.ModeCreative || p.Mode == world.ModeSpectator
}

// InManagedWorld reports whether the addon manages flight in the player's
// current world.
func (c *Checker) InManagedWorld(p *world.PlayerInfo) bool {
	for _, w := range c.cfg.DisabledWorlds {
		if w == p.Loc.World {
			return false
		}
	}
	return true
}

// IslandOn returns the island whose protected area the player stands in.
func (c *Checker) IslandOn(p *world.PlayerInfo) *world.IslandInfo {
	return c.world.ProtectedIslandAt(p.Loc)
}

// CanFlyIslandLevel checks the minimum island level gate. Passes when no
// leveling service is wired in, when the gate is disabled, or when the
// lookup fails (fail-open).
func (c *Checker) CanFlyIslandLevel(island *world.IslandInfo) bool {
	if c.leveler == nil || c.cfg.FlyMinLevel <= 0 {
		return true
	}
	lvl, err := c.leveler.IslandLevel(island.World, island.Owner)
	if err != nil {
		return true
	}
	return lvl >= c.cfg.FlyMinLevel
}

// CanFlyOnIsland checks the island's fly protection flag against the
// player's rank.
func (c *Checker) CanFlyOnIsland(island *world.IslandInfo, p *world.PlayerInfo) bool {
	return island.IsAllowed(p, world.FlagFlyProtection)
}

// CanEnable decides whether flight may be granted to the player on the
// given island: a conjunction, short-circuiting on the first failing gate.
func (c *Checker) CanEnable(p *world.PlayerInfo, island *world.IslandInfo) bool {
	// Already allowed: nothing to grant.
	if p.AllowFlight {
		return false
	}

	if island.Spawn && !c.CanFlySpawn(p) {
		return false
	}

	if !c.CanFlyIslandLevel(island) {
		return false
	}

	if !c.CanFlyOnIsland(island, p) {
		return false
	}

	if !c.CanUseFly(p) && !c.CanUseTempFly(p) {
		return false
	}

	if c.hooks != nil {
		if verdict, defined := c.hooks.CanEnable(p, island); defined && !verdict {
			return false
		}
	}
	return true
}

// MustRemove decides whether the player's flight has to be taken away:
// exclusions short-circuit first, then any veto triggers removal.
func (c *Checker) MustRemove(p *world.PlayerInfo) bool {
	if p.Op {
		return false
	}
	if c.IsCreativeOrSpectator(p) {
		return false
	}
	if c.CanBypassFly(p) {
		return false
	}

	island := c.IslandOn(p)
	if island == nil {
		return true
	}

	if !c.CanUseFly(p) && !c.CanUseTempFly(p) {
		return true
	}

	if island.Spawn && !c.CanFlySpawn(p) {
		return true
	}

	if !c.CanFlyIslandLevel(island) {
		return true
	}

	if !c.CanFlyOnIsland(island, p) {
		return true
	}

	if c.hooks != nil {
		if verdict, defined := c.hooks.MustRemove(p, island); defined && verdict {
			return true
		}
	}
	return false
}
