package event

import "github.com/google/uuid"

// Domain events pushed by the host framework integration. One handler set per
// type, registered in fixed order by handler.Register.

type PlayerJoined struct {
	PlayerID uuid.UUID
}

type PlayerQuit struct {
	PlayerID uuid.UUID
}

type PlayerDied struct {
	PlayerID uuid.UUID
}

type PlayerRespawned struct {
	PlayerID uuid.UUID
}

type IslandEntered struct {
	PlayerID uuid.UUID
	IslandID string
}

type IslandExited struct {
	PlayerID uuid.UUID
	IslandID string
}

// FlagChanged fires when an island protection flag's minimum rank is edited.
type FlagChanged struct {
	IslandID string
	Flag     string
}

// FlightToggled reports a flight state change made outside this addon
// (another plugin or the host itself). Allowed is the new allow-flight value.
type FlightToggled struct {
	PlayerID uuid.UUID
	Allowed  bool
}

// ChatCommand carries a raw "/"-prefixed chat line for command dispatch.
type ChatCommand struct {
	PlayerID uuid.UUID
	Text     string
}
