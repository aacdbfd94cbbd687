package world

import "github.com/google/uuid"

// Island member ranks, mirroring the host framework's rank ladder.
const (
	RankVisitor  = 0
	RankCoop     = 200
	RankTrusted  = 400
	RankMember   = 500
	RankSubOwner = 900
	RankOwner    = 1000
)

// FlagFlyProtection is the per-island protection flag gating flight by rank.
const FlagFlyProtection = "ISLAND_FLY_PROTECTION"

// DefaultFlagRank applies when an island has no explicit setting for a flag.
const DefaultFlagRank = RankMember

// IslandInfo is a claimed island region. Islands are square claims around a
// center; Range is the full claim radius, ProtectionRange the (smaller)
// protected area where flags apply.
type IslandInfo struct {
	ID              string
	World           string
	Owner           uuid.UUID
	Spawn           bool
	CenterX         float64
	CenterZ         float64
	Range           float64
	ProtectionRange float64

	// Members maps player ID to rank. Players absent from the map are
	// visitors.
	Members map[uuid.UUID]int

	// Flags maps flag ID to the minimum rank allowed to perform the action.
	Flags map[string]int
}

// Rank returns the player's rank on this island (RankVisitor if not a member).
func (i *IslandInfo) Rank(id uuid.UUID) int {
	if r, ok := i.Members[id]; ok {
		return r
	}
	return RankVisitor
}

// IsAllowed reports whether the player's rank meets the flag's minimum rank.
func (i *IslandInfo) IsAllowed(p *PlayerInfo, flag string) bool {
	min, ok := i.Flags[flag]
	if !ok {
		min = DefaultFlagRank
	}
	return i.Rank(p.ID) >= min
}

// SetFlag sets the minimum rank for a flag on this island.
func (i *IslandInfo) SetFlag(flag string, minRank int) {
	if i.Flags == nil {
		i.Flags = make(map[string]int)
	}
	i.Flags[flag] = minRank
}

// OnIsland reports whether loc is within the island's full claim.
func (i *IslandInfo) OnIsland(loc Location) bool {
	return i.contains(loc, i.Range)
}

// InProtectionRange reports whether loc is within the protected area.
func (i *IslandInfo) InProtectionRange(loc Location) bool {
	return i.contains(loc, i.ProtectionRange)
}

func (i *IslandInfo) contains(loc Location, radius float64) bool {
	if loc.World != i.World {
		return false
	}
	dx := loc.X - i.CenterX
	dz := loc.Z - i.CenterZ
	return dx >= -radius && dx < radius && dz >= -radius && dz < radius
}
