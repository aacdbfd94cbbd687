package handler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skyisle/islandfly/internal/config"
	"github.com/skyisle/islandfly/internal/core/event"
	"github.com/skyisle/islandfly/internal/flight"
	"github.com/skyisle/islandfly/internal/messages"
	"github.com/skyisle/islandfly/internal/sched"
	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
)

// fakeStore is an in-memory flight.Store.
type fakeStore struct {
	records map[uuid.UUID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uuid.UUID]int)}
}

func (s *fakeStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := s.records[id]
	return ok, nil
}

func (s *fakeStore) Load(_ context.Context, id uuid.UUID) (*flight.Record, error) {
	secs, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &flight.Record{PlayerID: id, Seconds: secs}, nil
}

func (s *fakeStore) Save(_ context.Context, rec *flight.Record) error {
	s.records[rec.PlayerID] = rec.Seconds
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.records, id)
	return nil
}

// testEnv wires real handlers over fakes. Messages are delivered with an
// empty template set, so each delivery is the raw message key.
type testEnv struct {
	deps  *Deps
	store *fakeStore
	sent  map[uuid.UUID][]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	log := zap.NewNop()
	ws := world.NewState()
	sc := sched.New()

	msgs, err := messages.New(map[string]map[string]string{"en-US": {}}, "en-US", log)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	env := &testEnv{store: newFakeStore(), sent: make(map[uuid.UUID][]string)}
	msgs.SetDeliver(func(p *world.PlayerInfo, text string) {
		env.sent[p.ID] = append(env.sent[p.ID], text)
	})

	hook := NewPlayerHook(ws, msgs)
	ledger := flight.NewLedger(env.store, sc, hook, log)
	checker := flight.NewChecker(cfg.Flight, ws, nil, nil)

	env.deps = &Deps{
		Config:   cfg,
		Log:      log,
		World:    ws,
		Sched:    sc,
		Ledger:   ledger,
		Checker:  checker,
		Messages: msgs,
	}
	return env
}

// newCheckerFor rebuilds the checker after a test mutates flight config.
func newCheckerFor(env *testEnv) *flight.Checker {
	return flight.NewChecker(env.deps.Config.Flight, env.deps.World, nil, nil)
}

func (e *testEnv) addPlayer(perms ...string) *world.PlayerInfo {
	p := &world.PlayerInfo{
		ID:     uuid.New(),
		Name:   "tastybento",
		Mode:   world.ModeSurvival,
		Online: true,
		Loc:    world.Location{World: "skyworld", X: 0, Z: 0},
		Perms:  make(map[string]bool),
	}
	for _, perm := range perms {
		p.Perms[perm] = true
	}
	e.deps.World.AddPlayer(p)
	return p
}

func (e *testEnv) addIsland(memberID uuid.UUID, rank int) *world.IslandInfo {
	i := &world.IslandInfo{
		ID:              "island-1",
		World:           "skyworld",
		Owner:           uuid.New(),
		CenterX:         0,
		CenterZ:         0,
		Range:           100,
		ProtectionRange: 50,
		Members:         make(map[uuid.UUID]int),
		Flags:           make(map[string]int),
	}
	if rank > 0 {
		i.Members[memberID] = rank
	}
	e.deps.World.AddIsland(i)
	return i
}

func (e *testEnv) lastSent(id uuid.UUID) string {
	msgs := e.sent[id]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// tick advances the scheduler like one game-loop second.
func (e *testEnv) tickSeconds(n int) {
	for i := 0; i < n; i++ {
		e.deps.Sched.Advance(time.Second)
	}
}

func TestIslandEnterGrantsFlight(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	island := env.addIsland(p.ID, world.RankMember)

	OnIslandEnter(event.IslandEntered{PlayerID: p.ID, IslandID: island.ID}, env.deps)
	if p.AllowFlight {
		t.Fatal("flight granted before the delayed re-check")
	}
	env.deps.Sched.Advance(time.Millisecond)
	if !p.AllowFlight {
		t.Fatal("flight not granted after entering own island")
	}
	if env.lastSent(p.ID) != msgEnableFly {
		t.Fatalf("last message = %q, want enable-fly", env.lastSent(p.ID))
	}
}

func TestIslandEnterDeniedForVisitor(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	island := env.addIsland(p.ID, 0) // visitor

	OnIslandEnter(event.IslandEntered{PlayerID: p.ID, IslandID: island.ID}, env.deps)
	env.deps.Sched.Advance(time.Millisecond)
	if p.AllowFlight {
		t.Fatal("visitor granted flight")
	}
}

func TestIslandExitGraceThenDisable(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	env.addIsland(p.ID, world.RankMember)
	p.AllowFlight = true
	p.Flying = true

	// Player leaves the protected area.
	p.Loc = world.Location{World: "skyworld", X: 75, Z: 0}
	OnIslandExit(event.IslandExited{PlayerID: p.ID, IslandID: "island-1"}, env.deps)
	env.deps.Sched.Advance(time.Millisecond)

	if !p.AllowFlight {
		t.Fatal("flight removed before the grace period")
	}
	if env.lastSent(p.ID) != msgFlyOutsideAlert {
		t.Fatalf("last message = %q, want fly-outside-alert", env.lastSent(p.ID))
	}

	env.tickSeconds(env.deps.Config.Flight.FlyTimeout)
	if p.AllowFlight || p.Flying {
		t.Fatal("flight survived the grace period")
	}
	if env.lastSent(p.ID) != msgDisableFly {
		t.Fatalf("last message = %q, want disable-fly", env.lastSent(p.ID))
	}
}

func TestTempFlightCreatesZeroRecordOnFirstUse(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	island := env.addIsland(p.ID, world.RankMember)

	OnIslandEnter(event.IslandEntered{PlayerID: p.ID, IslandID: island.ID}, env.deps)
	env.deps.Sched.Advance(time.Millisecond)

	if !p.AllowFlight {
		t.Fatal("tempfly holder not granted flight")
	}
	if !env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("countdown not started")
	}
	if secs, ok := env.store.records[p.ID]; !ok || secs != 0 {
		t.Fatalf("record = %d/%v, want a zero record", secs, ok)
	}
}

func TestFlightToggledOffStopsTracking(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	env.store.records[p.ID] = 60
	if err := env.deps.Ledger.StartTracking(context.Background(), p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	OnFlightToggled(event.FlightToggled{PlayerID: p.ID, Allowed: false}, env.deps)
	if env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("countdown survived external flight-off")
	}
}

func TestQuitStopsTrackingAndGrounds(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	p.AllowFlight = true
	p.Flying = true
	env.store.records[p.ID] = 60
	if err := env.deps.Ledger.StartTracking(context.Background(), p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	OnPlayerQuit(event.PlayerQuit{PlayerID: p.ID}, env.deps)
	if env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("countdown survived quit")
	}
	if p.AllowFlight || p.Flying {
		t.Fatal("flight survived quit with disable-on-logout set")
	}
	if env.store.records[p.ID] != 60 {
		t.Fatalf("stored = %d, want 60", env.store.records[p.ID])
	}
}

func TestQuitKeepsFlightWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Config.Flight.FlyDisableOnLogout = false
	p := env.addPlayer("island.fly")
	p.AllowFlight = true
	p.Flying = true

	OnPlayerQuit(event.PlayerQuit{PlayerID: p.ID}, env.deps)
	if !p.AllowFlight {
		t.Fatal("flight removed despite disable-on-logout being off")
	}
}

func TestJoinRestoresMidAirFlight(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Config.Flight.FlyDisableOnLogout = false
	p := env.addPlayer("island.fly")
	p.InAir = true
	p.FallDistance = 12
	env.addIsland(p.ID, world.RankMember)

	OnPlayerJoined(event.PlayerJoined{PlayerID: p.ID}, env.deps)
	if !p.AllowFlight || !p.Flying {
		t.Fatal("mid-air flight not restored on join")
	}
	if p.FallDistance != 0 {
		t.Fatalf("fall distance = %v, want 0", p.FallDistance)
	}
}

func TestJoinWithoutPermsWarns(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer()

	OnPlayerJoined(event.PlayerJoined{PlayerID: p.ID}, env.deps)
	if env.lastSent(p.ID) != msgNotAllowedFly {
		t.Fatalf("last message = %q, want not-allowed-fly", env.lastSent(p.ID))
	}
	if p.AllowFlight {
		t.Fatal("flight granted without perms")
	}
}

func TestJoinGroundedPlayerGetsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Config.Flight.FlyDisableOnLogout = false
	p := env.addPlayer("island.fly")
	p.InAir = false
	env.addIsland(p.ID, world.RankMember)

	OnPlayerJoined(event.PlayerJoined{PlayerID: p.ID}, env.deps)
	if p.AllowFlight || p.Flying {
		t.Fatal("grounded player was given flight on join")
	}
}

func TestDeathStopsFlight(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	p.AllowFlight = true
	p.Flying = true
	env.store.records[p.ID] = 60
	if err := env.deps.Ledger.StartTracking(context.Background(), p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	OnPlayerDied(event.PlayerDied{PlayerID: p.ID}, env.deps)
	if p.Flying {
		t.Fatal("still flying after death")
	}
	if env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("countdown survived death")
	}
	// AllowFlight stays so respawn can restore.
	if !p.AllowFlight {
		t.Fatal("allow-flight stripped on death")
	}
}

func TestDeathSparesBypassHolder(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.flybypass")
	p.Flying = true

	OnPlayerDied(event.PlayerDied{PlayerID: p.ID}, env.deps)
	if !p.Flying {
		t.Fatal("bypass holder grounded on death")
	}
}

func TestRespawnRestoresFly(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	p.AllowFlight = true
	env.addIsland(p.ID, world.RankMember)

	OnPlayerRespawned(event.PlayerRespawned{PlayerID: p.ID}, env.deps)
	if !p.Flying {
		t.Fatal("flight not restored on respawn")
	}
}

func TestRespawnTempFlyNeedsRemainingTime(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.tempfly")
	p.AllowFlight = true
	env.addIsland(p.ID, world.RankMember)

	// Zero record: no restore.
	env.store.records[p.ID] = 0
	OnPlayerRespawned(event.PlayerRespawned{PlayerID: p.ID}, env.deps)
	if p.Flying || env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("restored temp flight with no budget")
	}

	env.store.records[p.ID] = 30
	OnPlayerRespawned(event.PlayerRespawned{PlayerID: p.ID}, env.deps)
	if !p.Flying || !env.deps.Ledger.IsTracked(p.ID) {
		t.Fatal("temp flight not restored with budget left")
	}
}

func TestFlagChangeGraceThenDisable(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	island := env.addIsland(p.ID, world.RankCoop)
	p.AllowFlight = true
	p.Flying = true

	island.SetFlag(world.FlagFlyProtection, world.RankMember)
	OnFlagChanged(event.FlagChanged{IslandID: island.ID, Flag: world.FlagFlyProtection}, env.deps)

	if env.lastSent(p.ID) != msgFlyTurningOff {
		t.Fatalf("last message = %q, want fly-turning-off-alert", env.lastSent(p.ID))
	}
	if !p.AllowFlight {
		t.Fatal("flight removed before the grace period")
	}

	env.tickSeconds(env.deps.Config.Flight.FlyTimeout)
	if p.AllowFlight || p.Flying {
		t.Fatal("flight survived the flag-change grace period")
	}
	if env.lastSent(p.ID) != msgDisableFly {
		t.Fatalf("last message = %q, want disable-fly", env.lastSent(p.ID))
	}
}

func TestFlagChangeReallowed(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	island := env.addIsland(p.ID, world.RankCoop)
	p.AllowFlight = true
	p.Flying = true

	island.SetFlag(world.FlagFlyProtection, world.RankMember)
	OnFlagChanged(event.FlagChanged{IslandID: island.ID, Flag: world.FlagFlyProtection}, env.deps)

	// Flag lowered again before the timer fires.
	island.SetFlag(world.FlagFlyProtection, world.RankCoop)
	env.tickSeconds(env.deps.Config.Flight.FlyTimeout)

	if !p.AllowFlight || !p.Flying {
		t.Fatal("flight removed although the flag was lowered again")
	}
	if env.lastSent(p.ID) != msgReallowedFly {
		t.Fatalf("last message = %q, want reallowed-fly", env.lastSent(p.ID))
	}
}

func TestFlagChangeRaceWithExitTimeout(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	island := env.addIsland(p.ID, world.RankCoop)
	p.AllowFlight = true
	p.Flying = true

	island.SetFlag(world.FlagFlyProtection, world.RankMember)
	OnFlagChanged(event.FlagChanged{IslandID: island.ID, Flag: world.FlagFlyProtection}, env.deps)

	// The player leaves the island before the flag timer fires: the exit
	// path owns the disable now, so the flag timer must stay silent.
	p.Loc = world.Location{World: "skyworld", X: 500, Z: 500}
	before := len(env.sent[p.ID])
	env.tickSeconds(env.deps.Config.Flight.FlyTimeout)

	if len(env.sent[p.ID]) != before {
		t.Fatalf("flag timer messaged a player who left: %v", env.sent[p.ID][before:])
	}
	if !p.AllowFlight {
		t.Fatal("flag timer grounded a player who left the island")
	}
}

func TestFlagChangeIgnoresOps(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	p.Op = true
	island := env.addIsland(p.ID, world.RankCoop)
	p.AllowFlight = true
	p.Flying = true

	island.SetFlag(world.FlagFlyProtection, world.RankMember)
	OnFlagChanged(event.FlagChanged{IslandID: island.ID, Flag: world.FlagFlyProtection}, env.deps)
	env.tickSeconds(env.deps.Config.Flight.FlyTimeout)

	if !p.AllowFlight {
		t.Fatal("op grounded by flag change")
	}
}

func TestFlagChangeOtherFlagIgnored(t *testing.T) {
	env := newTestEnv(t)
	p := env.addPlayer("island.fly")
	island := env.addIsland(p.ID, 0)
	p.Flying = true

	OnFlagChanged(event.FlagChanged{IslandID: island.ID, Flag: "PVP_OVERWORLD"}, env.deps)
	if len(env.sent[p.ID]) != 0 {
		t.Fatalf("unrelated flag produced messages: %v", env.sent[p.ID])
	}
}
