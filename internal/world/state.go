package world

import (
	"strings"

	"github.com/google/uuid"
)

// State is the addon's view of the live server: online players and known
// islands. Mutated only from the game loop goroutine.
type State struct {
	players map[uuid.UUID]*PlayerInfo
	islands map[string]*IslandInfo
}

func NewState() *State {
	return &State{
		players: make(map[uuid.UUID]*PlayerInfo),
		islands: make(map[string]*IslandInfo),
	}
}

// --- players ---

func (s *State) AddPlayer(p *PlayerInfo) {
	s.players[p.ID] = p
}

func (s *State) RemovePlayer(id uuid.UUID) {
	delete(s.players, id)
}

func (s *State) Player(id uuid.UUID) *PlayerInfo {
	return s.players[id]
}

// PlayerByName does a case-insensitive name lookup (admin command targets).
func (s *State) PlayerByName(name string) *PlayerInfo {
	for _, p := range s.players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (s *State) AllPlayers(fn func(p *PlayerInfo)) {
	for _, p := range s.players {
		fn(p)
	}
}

func (s *State) PlayerCount() int {
	return len(s.players)
}

// --- islands ---

func (s *State) AddIsland(i *IslandInfo) {
	s.islands[i.ID] = i
}

func (s *State) Island(id string) *IslandInfo {
	return s.islands[id]
}

func (s *State) IslandCount() int {
	return len(s.islands)
}

// IslandAt returns the island whose full claim contains loc, or nil.
func (s *State) IslandAt(loc Location) *IslandInfo {
	for _, i := range s.islands {
		if i.OnIsland(loc) {
			return i
		}
	}
	return nil
}

// ProtectedIslandAt returns the island whose protected area contains loc,
// or nil.
func (s *State) ProtectedIslandAt(loc Location) *IslandInfo {
	for _, i := range s.islands {
		if i.InProtectionRange(loc) {
			return i
		}
	}
	return nil
}

// PlayersOnIsland returns all online players within the island's full claim.
func (s *State) PlayersOnIsland(i *IslandInfo) []*PlayerInfo {
	var out []*PlayerInfo
	for _, p := range s.players {
		if i.OnIsland(p.Loc) {
			out = append(out, p)
		}
	}
	return out
}
