// Package protocol defines the closed set of wire messages. Every message
// travels as one JSON object inside a length-prefixed frame, tagged by its
// "type" field, with the sender id and a creation timestamp in the header.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/grovego/server/internal/world"
)

// Message kind tags. The set is closed: Decode refuses anything else.
const (
	// client → server
	KindJoin              = "join"
	KindMove              = "move"
	KindAttack            = "attack"
	KindPickup            = "pickup"
	KindConsume           = "consume"
	KindPlantBamboo       = "plant_bamboo"
	KindPlantTree         = "plant_tree"
	KindTransformResource = "transform_resource"
	KindInventoryUpdate   = "inventory_update"
	KindRespawnRequest    = "respawn_request"
	KindLeave             = "leave"

	// both directions
	KindHealthUpdate = "health_update"
	KindHungerUpdate = "hunger_update"

	// server → client
	KindWelcome            = "welcome"
	KindWorldSnapshot      = "world_snapshot"
	KindRespawnPending     = "respawn_pending"
	KindServerFull         = "server_full"
	KindPlayerJoined       = "player_joined"
	KindPlayerLeft         = "player_left"
	KindPlayerMoved        = "player_moved"
	KindPositionCorrection = "position_correction"
	KindEntityRemoved      = "entity_removed"
	KindResourceDamaged    = "resource_damaged"
	KindResourceDestroyed  = "resource_destroyed"
	KindItemSpawned        = "item_spawned"
	KindItemPickedUp       = "item_picked_up"
	KindInventorySync      = "inventory_sync"
	KindPlayerRespawned    = "player_respawned"
	KindResourceRespawned  = "resource_respawned"
)

// Resource kind discriminators used by attack/destroy/respawn messages.
const (
	ResourceTree  = "tree"
	ResourceStone = "stone"
)

// Header is embedded in every message.
type Header struct {
	Type      string `json:"type"`
	Sender    string `json:"id,omitempty"`
	Timestamp int64  `json:"ts,omitempty"` // unix milliseconds
}

func (h *Header) header() *Header { return h }

// Message is the closed tagged union over all wire kinds.
type Message interface {
	Kind() string
	header() *Header
}

// ---- client → server ----

type Join struct {
	Header
	Name string `json:"name"`
}

type Move struct {
	Header
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Direction world.Direction `json:"direction"`
	Moving    bool            `json:"moving"`
}

type Attack struct {
	Header
	TargetID string  `json:"targetId"`
	Damage   float64 `json:"damage"`
}

type Pickup struct {
	Header
	ItemID string `json:"itemId"`
}

type Consume struct {
	Header
	ItemType world.ItemType `json:"itemType"`
}

type PlantBamboo struct {
	Header
	PlantID string  `json:"plantId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type PlantTree struct {
	Header
	PlantID  string         `json:"plantId"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	TreeType world.TreeType `json:"treeType"`
}

// TransformResource announces a planted resource maturing into a real one.
// The server registers it before rebroadcasting, so later attacks on it
// cannot turn into ghost references.
type TransformResource struct {
	Header
	ResourceID   string          `json:"resourceId"`
	ResourceKind string          `json:"resourceKind"` // ResourceTree or ResourceStone
	X            float64         `json:"x"`
	Y            float64         `json:"y"`
	TreeType     world.TreeType  `json:"treeType,omitempty"`
	StoneType    world.StoneType `json:"stoneType,omitempty"`
}

type InventoryUpdate struct {
	Header
	Counts map[world.ItemType]int `json:"counts"`
}

type RespawnRequest struct {
	Header
}

type Leave struct {
	Header
}

// ---- both directions ----

type HealthUpdate struct {
	Header
	PlayerID string  `json:"playerId,omitempty"` // set by the server on broadcast
	Health   float64 `json:"health"`
}

type HungerUpdate struct {
	Header
	PlayerID string  `json:"playerId,omitempty"`
	Hunger   float64 `json:"hunger"`
}

// ---- server → client ----

// ClientConfig is the slice of server configuration a client needs to
// mirror validation locally.
type ClientConfig struct {
	MaxPlantingDistance float64 `json:"maxPlantingDistance"`
	AttackRange         float64 `json:"attackRange"`
	PickupRange         float64 `json:"pickupRange"`
	MoveCap             float64 `json:"moveCap"`
}

type Welcome struct {
	Header
	PlayerID string       `json:"playerId"`
	Config   ClientConfig `json:"config"`
}

type WorldSnapshot struct {
	Header
	Snapshot world.Snapshot `json:"snapshot"`
}

// RespawnEntry mirrors a pending entry of the external respawn subsystem.
type RespawnEntry struct {
	ResourceKind string  `json:"resourceKind"`
	ResourceID   string  `json:"resourceId"`
	ResourceType string  `json:"resourceType"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	DueAt        int64   `json:"dueAt"` // unix milliseconds
}

type RespawnPending struct {
	Header
	Entries []RespawnEntry `json:"entries"`
}

type ServerFull struct {
	Header
	MaxClients int `json:"maxClients"`
}

type PlayerJoined struct {
	Header
	Player world.PlayerEntity `json:"player"`
}

type PlayerLeft struct {
	Header
	PlayerID string `json:"playerId"`
}

type PlayerMoved struct {
	Header
	PlayerID  string          `json:"playerId"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Direction world.Direction `json:"direction"`
	Moving    bool            `json:"moving"`
}

// PositionCorrection restores the server's last known position after a
// rejected movement. Never silent: the client is told where it really is.
type PositionCorrection struct {
	Header
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EntityRemoved tells a client to drop an entity it referenced but the
// server cannot materialize (ghost cleanup).
type EntityRemoved struct {
	Header
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId"`
}

type ResourceDamaged struct {
	Header
	ResourceKind string  `json:"resourceKind"`
	ResourceID   string  `json:"resourceId"`
	Health       float64 `json:"health"`
}

type ResourceDestroyed struct {
	Header
	ResourceKind string `json:"resourceKind"`
	ResourceID   string `json:"resourceId"`
}

type ItemSpawned struct {
	Header
	Item world.ItemEntity `json:"item"`
}

type ItemPickedUp struct {
	Header
	ItemID   string `json:"itemId"`
	PlayerID string `json:"playerId"`
}

type InventorySync struct {
	Header
	PlayerID string                 `json:"playerId"`
	Counts   map[world.ItemType]int `json:"counts"`
}

type PlayerRespawned struct {
	Header
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Health   float64 `json:"health"`
}

type ResourceRespawned struct {
	Header
	Entry RespawnEntry `json:"entry"`
}

// Kind implementations.

func (*Join) Kind() string               { return KindJoin }
func (*Move) Kind() string               { return KindMove }
func (*Attack) Kind() string             { return KindAttack }
func (*Pickup) Kind() string             { return KindPickup }
func (*Consume) Kind() string            { return KindConsume }
func (*PlantBamboo) Kind() string        { return KindPlantBamboo }
func (*PlantTree) Kind() string          { return KindPlantTree }
func (*TransformResource) Kind() string  { return KindTransformResource }
func (*InventoryUpdate) Kind() string    { return KindInventoryUpdate }
func (*RespawnRequest) Kind() string     { return KindRespawnRequest }
func (*Leave) Kind() string              { return KindLeave }
func (*HealthUpdate) Kind() string       { return KindHealthUpdate }
func (*HungerUpdate) Kind() string       { return KindHungerUpdate }
func (*Welcome) Kind() string            { return KindWelcome }
func (*WorldSnapshot) Kind() string      { return KindWorldSnapshot }
func (*RespawnPending) Kind() string     { return KindRespawnPending }
func (*ServerFull) Kind() string         { return KindServerFull }
func (*PlayerJoined) Kind() string       { return KindPlayerJoined }
func (*PlayerLeft) Kind() string         { return KindPlayerLeft }
func (*PlayerMoved) Kind() string        { return KindPlayerMoved }
func (*PositionCorrection) Kind() string { return KindPositionCorrection }
func (*EntityRemoved) Kind() string      { return KindEntityRemoved }
func (*ResourceDamaged) Kind() string    { return KindResourceDamaged }
func (*ResourceDestroyed) Kind() string  { return KindResourceDestroyed }
func (*ItemSpawned) Kind() string        { return KindItemSpawned }
func (*ItemPickedUp) Kind() string       { return KindItemPickedUp }
func (*InventorySync) Kind() string      { return KindInventorySync }
func (*PlayerRespawned) Kind() string    { return KindPlayerRespawned }
func (*ResourceRespawned) Kind() string  { return KindResourceRespawned }

// serverOnly kinds are a protocol violation when received from a client.
var serverOnly = map[string]bool{
	KindWelcome:            true,
	KindWorldSnapshot:      true,
	KindRespawnPending:     true,
	KindServerFull:         true,
	KindPlayerJoined:       true,
	KindPlayerLeft:         true,
	KindPlayerMoved:        true,
	KindPositionCorrection: true,
	KindEntityRemoved:      true,
	KindResourceDamaged:    true,
	KindResourceDestroyed:  true,
	KindItemSpawned:        true,
	KindItemPickedUp:       true,
	KindInventorySync:      true,
	KindPlayerRespawned:    true,
	KindResourceRespawned:  true,
}

// ServerOnly reports whether a kind may only originate from the server.
func ServerOnly(kind string) bool { return serverOnly[kind] }

// Encode stamps the header and marshals m.
func Encode(m Message) ([]byte, error) {
	h := m.header()
	h.Type = m.Kind()
	if h.Timestamp == 0 {
		h.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(m)
}

// Decode parses one frame payload into its concrete message. Unknown kinds
// are an error; the caller logs and drops (not session-fatal).
func Decode(data []byte) (Message, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var m Message
	switch probe.Type {
	case KindJoin:
		m = &Join{}
	case KindMove:
		m = &Move{}
	case KindAttack:
		m = &Attack{}
	case KindPickup:
		m = &Pickup{}
	case KindConsume:
		m = &Consume{}
	case KindPlantBamboo:
		m = &PlantBamboo{}
	case KindPlantTree:
		m = &PlantTree{}
	case KindTransformResource:
		m = &TransformResource{}
	case KindInventoryUpdate:
		m = &InventoryUpdate{}
	case KindRespawnRequest:
		m = &RespawnRequest{}
	case KindLeave:
		m = &Leave{}
	case KindHealthUpdate:
		m = &HealthUpdate{}
	case KindHungerUpdate:
		m = &HungerUpdate{}
	case KindWelcome:
		m = &Welcome{}
	case KindWorldSnapshot:
		m = &WorldSnapshot{}
	case KindRespawnPending:
		m = &RespawnPending{}
	case KindServerFull:
		m = &ServerFull{}
	case KindPlayerJoined:
		m = &PlayerJoined{}
	case KindPlayerLeft:
		m = &PlayerLeft{}
	case KindPlayerMoved:
		m = &PlayerMoved{}
	case KindPositionCorrection:
		m = &PositionCorrection{}
	case KindEntityRemoved:
		m = &EntityRemoved{}
	case KindResourceDamaged:
		m = &ResourceDamaged{}
	case KindResourceDestroyed:
		m = &ResourceDestroyed{}
	case KindItemSpawned:
		m = &ItemSpawned{}
	case KindItemPickedUp:
		m = &ItemPickedUp{}
	case KindInventorySync:
		m = &InventorySync{}
	case KindPlayerRespawned:
		m = &PlayerRespawned{}
	case KindResourceRespawned:
		m = &ResourceRespawned{}
	default:
		return nil, fmt.Errorf("unknown message kind %q", probe.Type)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
	}
	return m, nil
}
