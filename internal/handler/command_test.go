package handler

import (
	"testing"

	"github.com/skyisle/islandfly/internal/world"
)

func TestUnknownCommandNotClaimed(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer()

	if HandleCommand(p, "/home", env.deps) {
		t.Fatal("claimed a foreign command")
	}
	if HandleCommand(p, "fly", env.deps) {
		t.Fatal("claimed chat without slash prefix")
	}
}

func TestFlyCommandToggles(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	env.addIsland(p.ID, world.RankMember)

	if !HandleCommand(p, "/fly", env.deps) {
		t.Fatal("fly command not claimed")
	}
	if !p.AllowFlight {
		t.Fatal("fly on failed")
	}
	if env.lastSent(p.ID) != msgEnableFly {
		t.Fatalf("last message = %q, want enable-fly", env.lastSent(p.ID))
	}

	HandleCommand(p, "/fly", env.deps)
	if p.AllowFlight || p.Flying {
		t.Fatal("fly off failed")
	}
	if env.lastSent(p.ID) != msgDisableFly {
		t.Fatalf("last message = %q, want disable-fly", env.lastSent(p.ID))
	}
}

func TestFlyCommandNeedsPermission(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer()
	env.addIsland(p.ID, world.RankMember)

	HandleCommand(p, "/fly", env.deps)
	if p.AllowFlight {
		t.Fatal("fly granted without permission")
	}
	if env.lastSent(p.ID) != msgNoPermission {
		t.Fatalf("last message = %q, want no-permission", env.lastSent(p.ID))
	}
}

func TestFlyCommandWrongWorld(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Config.Flight.DisabledWorlds = []string{"the_nether"}
	env.deps.Checker = newCheckerFor(env)
	p := env.addPlayer("island.fly")
	p.Loc.World = "the_nether"

	HandleCommand(p, "/fly", env.deps)
	if env.lastSent(p.ID) != msgWrongWorld {
		t.Fatalf("last message = %q, want wrong-world", env.lastSent(p.ID))
	}
}

func TestFlyCommandOutsideProtectionRange(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	env.addIsland(p.ID, world.RankMember)
	p.Loc = world.Location{World: "skyworld", X: 75, Z: 0}

	HandleCommand(p, "/fly", env.deps)
	if p.AllowFlight {
		t.Fatal("fly granted outside protection range")
	}
	if env.lastSent(p.ID) != msgOutsideProtection {
		t.Fatalf("last message = %q, want outside-protection-range", env.lastSent(p.ID))
	}
}

func TestFlySpawnShortCircuit(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly", "island.flyspawn")
	island := env.addIsland(p.ID, 0)
	island.Spawn = true
	// Outside the protected area: flyspawn still short-circuits the checks.
	p.Loc = world.Location{World: "skyworld", X: 75, Z: 0}

	HandleCommand(p, "/fly", env.deps)
	if !p.AllowFlight {
		t.Fatal("flyspawn holder denied at spawn")
	}
}

func TestTempFlyCommandNoTimeLeft(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	env.addIsland(p.ID, world.RankMember)

	HandleCommand(p, "/tempfly", env.deps)
	if p.AllowFlight {
		t.Fatal("temp flight granted with no budget")
	}
	if env.lastSent(p.ID) != msgNoTimeLeft {
		t.Fatalf("last message = %q, want no-time-left", env.lastSent(p.ID))
	}
}

func TestTempFlyCommandToggles(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	env.addIsland(p.ID, world.RankMember)
	env.store.records[p.ID] = 60

	HandleCommand(p, "/tempfly", env.deps)
	if !p.AllowFlight || !env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("tempfly on failed")
	}

	p.Flying = true
	HandleCommand(p, "/tempfly", env.deps)
	if p.AllowFlight || env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("tempfly off failed")
	}
	if env.store.records[p.ID] != 60 {
		t.Fatalf("stored = %d, want 60", env.store.records[p.ID])
	}
}

func TestFlightTimeSelfView(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer()
	env.store.records[p.ID] = 42

	HandleCommand(p, "/flighttime", env.deps)
	if env.lastSent(p.ID) != msgCmdRemaining {
		t.Fatalf("last message = %q, want remaining", env.lastSent(p.ID))
	}
}

func TestFlightTimeAdminNeedsPermission(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer()

	HandleCommand(p, "/flighttime set tastybento 60", env.deps)
	if env.lastSent(p.ID) != msgNoPermission {
		t.Fatalf("last message = %q, want no-permission", env.lastSent(p.ID))
	}
}

func TestFlightTimeSet(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")
	admin.Name = "admin"
	target := env.addPlayer()
	target.Name = "BONNe"

	HandleCommand(admin, "/flighttime set bonne 300", env.deps)
	if env.store.records[target.ID] != 300 {
		t.Fatalf("stored = %d, want 300", env.store.records[target.ID])
	}
	if env.lastSent(admin.ID) != msgCmdSet {
		t.Fatalf("admin message = %q, want set success", env.lastSent(admin.ID))
	}
	if env.lastSent(target.ID) != msgTimeChanged {
		t.Fatalf("target message = %q, want flight-time-changed", env.lastSent(target.ID))
	}
}

func TestFlightTimeAddAndRemove(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")
	admin.Name = "admin"
	target := env.addPlayer()
	target.Name = "target"
	env.store.records[target.ID] = 100

	HandleCommand(admin, "/flighttime add target 50", env.deps)
	if env.store.records[target.ID] != 150 {
		t.Fatalf("stored = %d, want 150", env.store.records[target.ID])
	}

	HandleCommand(admin, "/flighttime remove target 30", env.deps)
	if env.store.records[target.ID] != 120 {
		t.Fatalf("stored = %d, want 120", env.store.records[target.ID])
	}
}

func TestFlightTimeRemoveNoRecordActsAsSet(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")
	admin.Name = "admin"
	target := env.addPlayer()
	target.Name = "target"

	// Established behavior: removing from a player with no record stores the
	// delta, exactly like a set.
	HandleCommand(admin, "/flighttime remove target 25", env.deps)
	if env.store.records[target.ID] != 25 {
		t.Fatalf("stored = %d, want 25", env.store.records[target.ID])
	}
}

func TestFlightTimeInvalidPlayer(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")

	HandleCommand(admin, "/flighttime set nobody 60", env.deps)
	if env.lastSent(admin.ID) != msgCmdInvalidPlayer {
		t.Fatalf("last message = %q, want invalid-player", env.lastSent(admin.ID))
	}
}

func TestFlightTimeInvalidTime(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")
	admin.Name = "admin"
	target := env.addPlayer()
	target.Name = "target"

	HandleCommand(admin, "/flighttime set target sixty", env.deps)
	if env.lastSent(admin.ID) != msgCmdInvalidTime {
		t.Fatalf("last message = %q, want invalid-time", env.lastSent(admin.ID))
	}
	HandleCommand(admin, "/flighttime set target -5", env.deps)
	if env.lastSent(admin.ID) != msgCmdInvalidTime {
		t.Fatalf("negative time accepted: %q", env.lastSent(admin.ID))
	}
}

func TestFlightTimeSyntaxErrors(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")

	for _, cmd := range []string{
		"/flighttime set onlyplayer",
		"/flighttime get",
		"/flighttime frobnicate x y",
	} {
		HandleCommand(admin, cmd, env.deps)
		if env.lastSent(admin.ID) != msgCmdSyntax {
			t.Fatalf("%q: last message = %q, want syntax", cmd, env.lastSent(admin.ID))
		}
	}
}

func TestFlightTimeGetAndDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addPlayer("admin.flighttime")
	admin.Name = "admin"
	target := env.addPlayer()
	target.Name = "target"

	HandleCommand(admin, "/flighttime get target", env.deps)
	if env.lastSent(admin.ID) != msgCmdNoData {
		t.Fatalf("last message = %q, want no-flight-data", env.lastSent(admin.ID))
	}

	env.store.records[target.ID] = 80
	HandleCommand(admin, "/flighttime get target", env.deps)
	if env.lastSent(admin.ID) != msgCmdGet {
		t.Fatalf("last message = %q, want get", env.lastSent(admin.ID))
	}

	HandleCommand(admin, "/flighttime delete target", env.deps)
	if _, ok := env.store.records[target.ID]; ok {
		t.Fatal("record survived delete")
	}
	if env.lastSent(admin.ID) != msgCmdDelete {
		t.Fatalf("last message = %q, want delete", env.lastSent(admin.ID))
	}
}
