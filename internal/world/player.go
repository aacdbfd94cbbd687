package world

import "github.com/google/uuid"

// GameMode mirrors the host framework's player game modes.
type GameMode int

const (
	ModeSurvival GameMode = iota
	ModeCreative
	ModeAdventure
	ModeSpectator
)

func (m GameMode) String() string {
	switch m {
	case ModeSurvival:
		return "survival"
	case ModeCreative:
		return "creative"
	case ModeAdventure:
		return "adventure"
	case ModeSpectator:
		return "spectator"
	}
	return "unknown"
}

// Location is a point in a named world.
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
}

// PlayerInfo holds in-memory data for a player currently online.
// Accessed only from the game loop goroutine — no locks needed.
type PlayerInfo struct {
	ID     uuid.UUID
	Name   string
	Op     bool
	Mode   GameMode
	Loc    Location
	Online bool
	Locale string // BCP 47 tag reported by the client, may be empty

	// Flight state as the host sees it. AllowFlight is the capability,
	// Flying the current motion state.
	AllowFlight  bool
	Flying       bool
	FallDistance float64

	// InAir is true when there is no solid ground directly below the player.
	// Maintained by the host's movement tracking.
	InAir bool

	// Perms holds resolved permission nodes. Resolution (groups, wildcards)
	// is the host's job; this addon only reads the final node set.
	Perms map[string]bool
}

func (p *PlayerInfo) HasPermission(node string) bool {
	return p.Perms[node]
}
