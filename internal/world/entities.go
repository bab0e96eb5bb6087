package world

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Direction is the facing of a player, one of four cardinal values.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Valid reports whether d is one of the four known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

type TreeType string

const (
	TreeOak    TreeType = "oak"
	TreePine   TreeType = "pine"
	TreeBamboo TreeType = "bamboo"
	TreeCherry TreeType = "cherry"
)

type StoneType string

const (
	StoneRock    StoneType = "rock"
	StoneGranite StoneType = "granite"
)

type ItemType string

const (
	ItemWood        ItemType = "wood"
	ItemPebble      ItemType = "pebble"
	ItemBambooShoot ItemType = "bamboo_shoot"
	ItemApple       ItemType = "apple"
	ItemBerry       ItemType = "berry"
	ItemSapling     ItemType = "sapling"
)

// Health maxima per entity kind.
const (
	MaxPlayerHealth = 100
	MaxTreeHealth   = 100
	MaxStoneHealth  = 50
	MaxHunger       = 100
	MaxInventory    = 9999
)

// PlayerEntity is the authoritative record for one connected player.
// Owned by the session that represents the client; mutated only through
// Registry calls.
type PlayerEntity struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	Direction  Direction        `json:"direction"`
	Health     float64          `json:"health"`
	Hunger     float64          `json:"hunger"`
	Moving     bool             `json:"moving"`
	Inventory  map[ItemType]int `json:"inventory"`
	LastUpdate time.Time        `json:"-"`
}

// TreeEntity is a chop-able resource. ID is the coordKey of its generation
// cell for procedural trees, or a caller-supplied id for planted ones.
type TreeEntity struct {
	ID     string   `json:"id"`
	Type   TreeType `json:"type"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Health float64  `json:"health"`
	Exists bool     `json:"exists"` // monotonic true→false, never reset
}

type StoneEntity struct {
	ID     string    `json:"id"`
	Type   StoneType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Health float64   `json:"health"`
	Exists bool      `json:"exists"`
}

// ItemEntity is a dropped, pickable item. Collected items are erased from
// the registry rather than kept as tombstones.
type ItemEntity struct {
	ID        string   `json:"id"`
	Type      ItemType `json:"type"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Collected bool     `json:"collected"`
}

// RainZone is a passive environmental rectangle, part of the snapshot only.
type RainZone struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CoordKey is the canonical "x,y" encoding of a generation-grid cell. It is
// the only id format the generator can independently reconstruct.
func CoordKey(gx, gy int) string {
	return fmt.Sprintf("%d,%d", gx, gy)
}

// ParseCoordKey parses an "x,y" cell id. ok is false for any other format.
func ParseCoordKey(id string) (gx, gy int, ok bool) {
	lhs, rhs, found := strings.Cut(id, ",")
	if !found {
		return 0, 0, false
	}
	gx, err := strconv.Atoi(lhs)
	if err != nil {
		return 0, 0, false
	}
	gy, err = strconv.Atoi(rhs)
	if err != nil {
		return 0, 0, false
	}
	return gx, gy, true
}

// CloneInventory copies an inventory counter map.
func CloneInventory(inv map[ItemType]int) map[ItemType]int {
	out := make(map[ItemType]int, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}
