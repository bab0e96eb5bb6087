package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grovego/server/internal/world"
)

// ItemDef describes one item type: whether it can be consumed and what it
// does when picked up or eaten.
type ItemDef struct {
	Type       world.ItemType `yaml:"type"`
	Name       string         `yaml:"name"`
	Consumable bool           `yaml:"consumable"`
	Effect     string         `yaml:"effect"` // "health" or "hunger"; empty = plain inventory item
	Amount     float64        `yaml:"amount"` // effect magnitude
	HealOnPick bool           `yaml:"heal_on_pickup"` // food applies its effect at pickup instead of stacking
}

type itemListFile struct {
	Items []ItemDef `yaml:"items"`
}

// ItemTable holds all item definitions indexed by type.
type ItemTable struct {
	items map[world.ItemType]ItemDef
}

// Get returns the definition for an item type, or nil if unknown.
func (t *ItemTable) Get(it world.ItemType) *ItemDef {
	def, ok := t.items[it]
	if !ok {
		return nil
	}
	return &def
}

// Consumable reports whether the type is a defined consumable kind.
func (t *ItemTable) Consumable(it world.ItemType) bool {
	def, ok := t.items[it]
	return ok && def.Consumable
}

// Count returns the number of item definitions.
func (t *ItemTable) Count() int {
	return len(t.items)
}

// LoadItemTable loads item definitions from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{items: make(map[world.ItemType]ItemDef, len(f.Items))}
	for _, def := range f.Items {
		t.items[def.Type] = def
	}
	return t, nil
}

// DefaultItemTable is the built-in definition set, used by tests and as a
// fallback when no data directory is shipped.
func DefaultItemTable() *ItemTable {
	defs := []ItemDef{
		{Type: world.ItemWood, Name: "Wood"},
		{Type: world.ItemPebble, Name: "Pebble"},
		{Type: world.ItemSapling, Name: "Sapling"},
		{Type: world.ItemApple, Name: "Apple", Consumable: true, Effect: "health", Amount: 20, HealOnPick: true},
		{Type: world.ItemBerry, Name: "Berry", Consumable: true, Effect: "hunger", Amount: 15},
		{Type: world.ItemBambooShoot, Name: "Bamboo Shoot", Consumable: true, Effect: "hunger", Amount: 10},
	}
	t := &ItemTable{items: make(map[world.ItemType]ItemDef, len(defs))}
	for _, def := range defs {
		t.items[def.Type] = def
	}
	return t
}
