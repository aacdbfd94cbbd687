package handler

import (
	"github.com/google/uuid"
	"github.com/skyisle/islandfly/internal/flight"
	"github.com/skyisle/islandfly/internal/messages"
	"github.com/skyisle/islandfly/internal/world"
)

// playerHook adapts world state and the message service to the ledger's
// PlayerHook. The ledger only knows player IDs; this is where they are
// resolved back to live players.
type playerHook struct {
	world    *world.State
	messages *messages.Service
}

// NewPlayerHook builds the flight.PlayerHook used by the ledger.
func NewPlayerHook(ws *world.State, msgs *messages.Service) flight.PlayerHook {
	return &playerHook{world: ws, messages: msgs}
}

func (h *playerHook) FlightStatus(id uuid.UUID) (allowed, flying, online bool) {
	p := h.world.Player(id)
	if p == nil {
		return false, false, false
	}
	return p.AllowFlight, p.Flying, p.Online
}

func (h *playerHook) GroundPlayer(id uuid.UUID) {
	p := h.world.Player(id)
	if p == nil {
		return
	}
	p.Flying = false
	p.AllowFlight = false
}

func (h *playerHook) Notify(id uuid.UUID, key string, vars ...string) {
	p := h.world.Player(id)
	if p == nil {
		return
	}
	h.messages.Send(p, key, vars...)
}
