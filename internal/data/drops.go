package data

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grovego/server/internal/world"
)

// DropEntry is a single possible byproduct of a destroyed resource.
// Weight 0 on every entry means the whole list drops; any non-zero weight
// switches the resource to a weighted single pick.
type DropEntry struct {
	Item   world.ItemType `yaml:"item"`
	Count  int            `yaml:"count"`
	Weight int            `yaml:"weight"`
}

type resourceDropEntry struct {
	Resource string      `yaml:"resource"` // tree/stone type name
	Items    []DropEntry `yaml:"items"`
}

type dropListFile struct {
	Drops []resourceDropEntry `yaml:"drops"`
}

// DropTable holds destruction byproducts indexed by resource type name.
type DropTable struct {
	drops map[string][]DropEntry
}

// Get returns the raw drop list for a resource type, or nil if none defined.
func (t *DropTable) Get(resource string) []DropEntry {
	return t.drops[resource]
}

// Count returns the number of resource types with drop entries.
func (t *DropTable) Count() int {
	return len(t.drops)
}

// Roll resolves the byproducts for one destroyed resource. rng drives the
// weighted pick; fixed lists ignore it.
func (t *DropTable) Roll(resource string, rng *rand.Rand) []world.ItemType {
	entries := t.drops[resource]
	if len(entries) == 0 {
		return nil
	}

	total := 0
	for _, e := range entries {
		total += e.Weight
	}

	var out []world.ItemType
	if total == 0 {
		for _, e := range entries {
			for i := 0; i < max(e.Count, 1); i++ {
				out = append(out, e.Item)
			}
		}
		return out
	}

	pick := rng.Intn(total)
	for _, e := range entries {
		pick -= e.Weight
		if pick < 0 {
			for i := 0; i < max(e.Count, 1); i++ {
				out = append(out, e.Item)
			}
			return out
		}
	}
	return out
}

// LoadDropTable loads resource byproduct data from a YAML file.
func LoadDropTable(path string) (*DropTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drop_list: %w", err)
	}
	var f dropListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse drop_list: %w", err)
	}
	t := &DropTable{drops: make(map[string][]DropEntry, len(f.Drops))}
	for _, entry := range f.Drops {
		t.drops[entry.Resource] = entry.Items
	}
	return t, nil
}

// DefaultDropTable is the built-in byproduct set.
func DefaultDropTable() *DropTable {
	return &DropTable{drops: map[string][]DropEntry{
		string(world.TreeOak):    {{Item: world.ItemWood, Count: 1}},
		string(world.TreePine):   {{Item: world.ItemWood, Count: 1}},
		string(world.TreeBamboo): {{Item: world.ItemBambooShoot, Count: 1}},
		// Cherry trees use a weighted pattern: mostly wood, sometimes fruit
		// or a sapling.
		string(world.TreeCherry): {
			{Item: world.ItemWood, Count: 1, Weight: 60},
			{Item: world.ItemApple, Count: 1, Weight: 25},
			{Item: world.ItemSapling, Count: 1, Weight: 15},
		},
		string(world.StoneRock):    {{Item: world.ItemPebble, Count: 1}},
		string(world.StoneGranite): {{Item: world.ItemPebble, Count: 1}},
	}}
}
