package gamedata

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-viper/mapstructure/v2"
)

// EnemyEntry is a resolved enemy record plus the fields used for spawning.
type EnemyEntry struct {
	ID             string
	MinPlayerLevel int `mapstructure:"min_player_level"`
	SpawnWeight    int `mapstructure:"spawn_weight"`
	Data           Record
}

// EnemyCatalog holds resolved enemy records and provides spawning utilities.
type EnemyCatalog struct {
	entries []EnemyEntry
	byID    map[string]int
}

// NewEnemyCatalog resolves every enemy in tables. Spawn weight defaults to 1.
func NewEnemyCatalog(tables *EnemyTables) (*EnemyCatalog, error) {
	catalog := &EnemyCatalog{byID: make(map[string]int)}
	for _, id := range tables.IDs() {
		data, err := tables.Resolve(id)
		if err != nil {
			return nil, fmt.Errorf("enemy %s: %w", id, err)
		}
		entry := EnemyEntry{ID: id, SpawnWeight: 1, Data: data}
		if err := mapstructure.WeakDecode(data, &entry); err != nil {
			return nil, fmt.Errorf("enemy %s: %w", id, err)
		}
		catalog.byID[id] = len(catalog.entries)
		catalog.entries = append(catalog.entries, entry)
	}
	return catalog, nil
}

// LoadEnemyCatalog builds a catalog from the embedded table plus any
// override in dir.
func LoadEnemyCatalog(dir string) (*EnemyCatalog, error) {
	tables, err := LoadEnemyTables(dir)
	if err != nil {
		return nil, err
	}
	catalog, err := NewEnemyCatalog(tables)
	if err != nil {
		return nil, err
	}
	if catalog.Count() == 0 {
		return nil, errors.New("no enemies loaded from enemies table")
	}
	return catalog, nil
}

// Eligible returns the entries whose min_player_level is at most
// playerLevel. If none qualify, entries open at level 1 are returned.
func (c *EnemyCatalog) Eligible(playerLevel int) []EnemyEntry {
	var eligible, starters []EnemyEntry
	for _, e := range c.entries {
		if e.MinPlayerLevel <= playerLevel {
			eligible = append(eligible, e)
		}
		if e.MinPlayerLevel <= 1 {
			starters = append(starters, e)
		}
	}
	if len(eligible) == 0 {
		return starters
	}
	return eligible
}

// SpawnRandom selects one of entries using weighted probability.
// Entries with higher spawn_weight are more likely to be selected.
func SpawnRandom(rng *rand.Rand, entries []EnemyEntry) *EnemyEntry {
	total := 0
	for _, e := range entries {
		total += max(e.SpawnWeight, 0)
	}
	if total <= 0 {
		return nil
	}

	roll := rng.Intn(total)
	cumulative := 0
	for i := range entries {
		cumulative += max(entries[i].SpawnWeight, 0)
		if roll < cumulative {
			return &entries[i]
		}
	}
	return &entries[len(entries)-1]
}

// GetByID returns the entry with the given id, or nil if not found.
func (c *EnemyCatalog) GetByID(id string) *EnemyEntry {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	return &c.entries[i]
}

// All returns every entry in id order.
func (c *EnemyCatalog) All() []EnemyEntry {
	return c.entries
}

// Count returns the number of enemy types in the catalog.
func (c *EnemyCatalog) Count() int {
	return len(c.entries)
}
