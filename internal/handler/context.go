package handler

import (
	"context"
	"time"

	"github.com/skyisle/islandfly/internal/config"
	"github.com/skyisle/islandfly/internal/core/event"
	"github.com/skyisle/islandfly/internal/flight"
	"github.com/skyisle/islandfly/internal/messages"
	"github.com/skyisle/islandfly/internal/sched"
	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all event handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State
	Sched    *sched.Scheduler
	Ledger   *flight.Ledger
	Checker  *flight.Checker
	Messages *messages.Service
}

// opCtx bounds a persistence operation issued from a handler.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// Register subscribes all handlers to the bus. Order is fixed: lifecycle
// first, then island transitions, then external reports and commands.
func Register(bus *event.Bus, deps *Deps) {
	event.Subscribe(bus, func(ev event.PlayerJoined) { OnPlayerJoined(ev, deps) })
	event.Subscribe(bus, func(ev event.PlayerQuit) { OnPlayerQuit(ev, deps) })
	event.Subscribe(bus, func(ev event.PlayerDied) { OnPlayerDied(ev, deps) })
	event.Subscribe(bus, func(ev event.PlayerRespawned) { OnPlayerRespawned(ev, deps) })
	event.Subscribe(bus, func(ev event.IslandEntered) { OnIslandEnter(ev, deps) })
	event.Subscribe(bus, func(ev event.IslandExited) { OnIslandExit(ev, deps) })
	event.Subscribe(bus, func(ev event.FlagChanged) { OnFlagChanged(ev, deps) })
	event.Subscribe(bus, func(ev event.FlightToggled) { OnFlightToggled(ev, deps) })
	event.Subscribe(bus, func(ev event.ChatCommand) { OnChatCommand(ev, deps) })
}
