package data

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// IslandEntry defines one island claim as loaded from island_list.yaml.
// The host framework is the source of truth for islands; this seed file is
// refreshed from it at deploy time.
type IslandEntry struct {
	ID              string  `yaml:"id"`
	World           string  `yaml:"world"`
	Owner           string  `yaml:"owner"`
	Spawn           bool    `yaml:"spawn"`
	CenterX         float64 `yaml:"center_x"`
	CenterZ         float64 `yaml:"center_z"`
	Range           float64 `yaml:"range"`
	ProtectionRange float64 `yaml:"protection_range"`
	Members         []struct {
		ID   string `yaml:"id"`
		Rank int    `yaml:"rank"`
	} `yaml:"members"`
	Flags map[string]int `yaml:"flags"`
}

// IslandTable holds parsed island entries keyed by ID.
type IslandTable struct {
	islands map[string]*IslandEntry
	owners  map[string]uuid.UUID // island ID → parsed owner
}

// LoadIslandTable loads island_list.yaml and validates UUIDs.
func LoadIslandTable(path string) (*IslandTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read island list: %w", err)
	}
	var entries []IslandEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse island list: %w", err)
	}
	t := &IslandTable{
		islands: make(map[string]*IslandEntry, len(entries)),
		owners:  make(map[string]uuid.UUID, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		owner, err := uuid.Parse(e.Owner)
		if err != nil {
			return nil, fmt.Errorf("island %s: bad owner uuid %q: %w", e.ID, e.Owner, err)
		}
		if e.ProtectionRange <= 0 || e.ProtectionRange > e.Range {
			return nil, fmt.Errorf("island %s: protection_range %v out of range", e.ID, e.ProtectionRange)
		}
		t.islands[e.ID] = e
		t.owners[e.ID] = owner
	}
	return t, nil
}

// Get returns the entry for an island ID, or nil.
func (t *IslandTable) Get(id string) *IslandEntry {
	return t.islands[id]
}

// Owner returns the parsed owner UUID for an island ID.
func (t *IslandTable) Owner(id string) uuid.UUID {
	return t.owners[id]
}

// All iterates every entry.
func (t *IslandTable) All(fn func(e *IslandEntry, owner uuid.UUID)) {
	for id, e := range t.islands {
		fn(e, t.owners[id])
	}
}

// Count returns the number of islands loaded.
func (t *IslandTable) Count() int {
	return len(t.islands)
}
