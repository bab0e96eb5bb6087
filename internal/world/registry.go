package world

import (
	"math"
	"sync"
	"time"

	"github.com/grovego/server/internal/biome"
)

// Registry is the single authoritative copy of world state, shared by every
// session goroutine. All access goes through its methods; callers never hold
// references into the maps. Mutators are total: operating on an absent
// entity is a no-op, never an error.
type Registry struct {
	mu sync.RWMutex

	seed     int64
	classify biome.Classifier

	players map[string]*PlayerEntity
	trees   map[string]*TreeEntity
	stones  map[string]*StoneEntity
	items   map[string]*ItemEntity
	cleared map[string]struct{} // tombstones for destroyed trees/stones
	rain    []RainZone

	lastUpdate time.Time
}

// Snapshot is a deep, point-in-time copy of the registry, sent to newly
// joined clients.
type Snapshot struct {
	Seed      int64                   `json:"seed"`
	Players   map[string]PlayerEntity `json:"players"`
	Trees     map[string]TreeEntity   `json:"trees"`
	Stones    map[string]StoneEntity  `json:"stones"`
	Items     map[string]ItemEntity   `json:"items"`
	Cleared   []string                `json:"cleared"`
	RainZones []RainZone              `json:"rainZones"`
}

// Delta is the coarse-grained change set since a reference timestamp.
// Over-inclusion of trees/items is acceptable; see ChangedSince.
type Delta struct {
	Players []PlayerEntity `json:"players"`
	Trees   []TreeEntity   `json:"trees"`
	Items   []ItemEntity   `json:"items"`
}

func NewRegistry(seed int64, classify biome.Classifier) *Registry {
	return &Registry{
		seed:     seed,
		classify: classify,
		players:  make(map[string]*PlayerEntity),
		trees:    make(map[string]*TreeEntity),
		stones:   make(map[string]*StoneEntity),
		items:    make(map[string]*ItemEntity),
		cleared:  make(map[string]struct{}),
	}
}

// Seed never changes after construction.
func (r *Registry) Seed() int64 { return r.seed }

// SetRainZones installs the environmental zones. Called once at boot.
func (r *Registry) SetRainZones(zones []RainZone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rain = append([]RainZone(nil), zones...)
}

func (r *Registry) touchLocked() { r.lastUpdate = time.Now() }

// ---- players ----

func (r *Registry) AddPlayer(p PlayerEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Inventory == nil {
		p.Inventory = make(map[ItemType]int)
	}
	p.LastUpdate = time.Now()
	r.players[p.ID] = &p
	r.touchLocked()
}

// GetPlayer returns a copy; callers never see the live struct.
func (r *Registry) GetPlayer(id string) (PlayerEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return PlayerEntity{}, false
	}
	cp := *p
	cp.Inventory = CloneInventory(p.Inventory)
	return cp, true
}

// MutatePlayer runs fn on the live player under the write lock and stamps
// the per-player update time. Returns false if the player is absent.
func (r *Registry) MutatePlayer(id string, fn func(*PlayerEntity)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return false
	}
	fn(p)
	p.Health = clamp(p.Health, 0, MaxPlayerHealth)
	p.Hunger = clamp(p.Hunger, 0, MaxHunger)
	p.LastUpdate = time.Now()
	r.touchLocked()
	return true
}

func (r *Registry) RemovePlayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
	r.touchLocked()
}

func (r *Registry) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// ---- trees ----

// AddTree registers a tree (player-planted or respawned). Tombstoned or
// duplicate ids are ignored.
func (r *Registry) AddTree(t TreeEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dead := r.cleared[t.ID]; dead {
		return
	}
	if _, dup := r.trees[t.ID]; dup {
		return
	}
	t.Exists = true
	if t.Health <= 0 || t.Health > MaxTreeHealth {
		t.Health = MaxTreeHealth
	}
	r.trees[t.ID] = &t
	r.touchLocked()
}

func (r *Registry) GetTree(id string) (TreeEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trees[id]
	if !ok {
		return TreeEntity{}, false
	}
	return *t, true
}

// DamageTree applies damage and returns the resulting state. destroyed is
// true exactly once per tree: the call that takes health to zero removes it
// and records the tombstone.
func (r *Registry) DamageTree(id string, dmg float64) (t TreeEntity, destroyed, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tree, exists := r.trees[id]
	if !exists {
		return TreeEntity{}, false, false
	}
	tree.Health = clamp(tree.Health-dmg, 0, MaxTreeHealth)
	if tree.Health <= 0 {
		tree.Exists = false
		delete(r.trees, id)
		r.cleared[id] = struct{}{}
		r.touchLocked()
		return *tree, true, true
	}
	r.touchLocked()
	return *tree, false, true
}

// RemoveTree erases a tree and records its tombstone so the generator
// never rebuilds it. Absent ids are a no-op.
func (r *Registry) RemoveTree(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trees[id]; ok {
		t.Exists = false
		delete(r.trees, id)
		r.cleared[id] = struct{}{}
		r.touchLocked()
	}
}

// ---- stones ----

func (r *Registry) AddStone(s StoneEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dead := r.cleared[s.ID]; dead {
		return
	}
	if _, dup := r.stones[s.ID]; dup {
		return
	}
	s.Exists = true
	if s.Health <= 0 || s.Health > MaxStoneHealth {
		s.Health = MaxStoneHealth
	}
	r.stones[s.ID] = &s
	r.touchLocked()
}

func (r *Registry) GetStone(id string) (StoneEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stones[id]
	if !ok {
		return StoneEntity{}, false
	}
	return *s, true
}

func (r *Registry) DamageStone(id string, dmg float64) (s StoneEntity, destroyed, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stone, exists := r.stones[id]
	if !exists {
		return StoneEntity{}, false, false
	}
	stone.Health = clamp(stone.Health-dmg, 0, MaxStoneHealth)
	if stone.Health <= 0 {
		stone.Exists = false
		delete(r.stones, id)
		r.cleared[id] = struct{}{}
		r.touchLocked()
		return *stone, true, true
	}
	r.touchLocked()
	return *stone, false, true
}

// RemoveStone erases a stone and records its tombstone.
func (r *Registry) RemoveStone(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stones[id]; ok {
		s.Exists = false
		delete(r.stones, id)
		r.cleared[id] = struct{}{}
		r.touchLocked()
	}
}

// ---- items ----

func (r *Registry) AddItem(it ItemEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.items[it.ID]; dup {
		return
	}
	r.items[it.ID] = &it
	r.touchLocked()
}

func (r *Registry) GetItem(id string) (ItemEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return ItemEntity{}, false
	}
	return *it, true
}

// RemoveItem erases an item without the collection bookkeeping. Items get
// no tombstones; a respawned one is a brand-new entity.
func (r *Registry) RemoveItem(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	r.touchLocked()
}

// CollectItem atomically marks an item collected and erases it. Returns
// false for absent or already-collected items — collection is final.
func (r *Registry) CollectItem(id string) (ItemEntity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.Collected {
		return ItemEntity{}, false
	}
	it.Collected = true
	delete(r.items, id)
	r.touchLocked()
	return *it, true
}

// ---- tombstones ----

// Cleared reports whether an id is tombstoned.
func (r *Registry) Cleared(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cleared[id]
	return ok
}

// RemoveTombstone clears the tombstone for a resource about to respawn.
// The respawn collaborator is the only intended caller.
func (r *Registry) RemoveTombstone(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cleared, id)
	r.touchLocked()
}

// ---- lazy generation ----

// GenerateTreeAt materializes the procedural tree for a grid cell, if any.
// Idempotent: an existing tree wins, a tombstone yields nothing, and the
// underlying decision is deterministic for (seed, cell).
func (r *Registry) GenerateTreeAt(gx, gy int) (TreeEntity, bool) {
	key := CoordKey(gx, gy)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dead := r.cleared[key]; dead {
		return TreeEntity{}, false
	}
	if t, ok := r.trees[key]; ok {
		return *t, true
	}

	d := decideTree(r.seed, gx, gy, r.classify)
	if !d.spawn || r.tooCloseLocked(d.x, d.y, key) {
		return TreeEntity{}, false
	}

	t := &TreeEntity{ID: key, Type: d.treeType, X: d.x, Y: d.y, Health: MaxTreeHealth, Exists: true}
	r.trees[key] = t
	r.touchLocked()
	return *t, true
}

// GenerateStoneAt materializes the procedural stone for a grid cell. The
// requesting player's position vetoes placements directly under them; it
// does not feed the seed, so the spawn decision stays deterministic.
func (r *Registry) GenerateStoneAt(gx, gy int, playerX, playerY float64) (StoneEntity, bool) {
	key := CoordKey(gx, gy)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dead := r.cleared[key]; dead {
		return StoneEntity{}, false
	}
	if s, ok := r.stones[key]; ok {
		return *s, true
	}

	d := decideStone(r.seed, gx, gy)
	if !d.spawn || r.tooCloseLocked(d.x, d.y, key) {
		return StoneEntity{}, false
	}
	if math.Hypot(d.x-playerX, d.y-playerY) < playerClearRadius {
		return StoneEntity{}, false
	}

	s := &StoneEntity{ID: key, Type: d.stoneType, X: d.x, Y: d.y, Health: MaxStoneHealth, Exists: true}
	r.stones[key] = s
	r.touchLocked()
	return *s, true
}

// tooCloseLocked reports whether a candidate position crowds an
// already-known resource. Caller holds the lock.
func (r *Registry) tooCloseLocked(x, y float64, selfID string) bool {
	for id, t := range r.trees {
		if id != selfID && math.Hypot(t.X-x, t.Y-y) < resourceSpacing {
			return true
		}
	}
	for id, s := range r.stones {
		if id != selfID && math.Hypot(s.X-x, s.Y-y) < resourceSpacing {
			return true
		}
	}
	return false
}

// ---- snapshot / delta ----

// CreateSnapshot deep-copies everything for a full-sync handshake.
func (r *Registry) CreateSnapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Seed:      r.seed,
		Players:   make(map[string]PlayerEntity, len(r.players)),
		Trees:     make(map[string]TreeEntity, len(r.trees)),
		Stones:    make(map[string]StoneEntity, len(r.stones)),
		Items:     make(map[string]ItemEntity, len(r.items)),
		Cleared:   make([]string, 0, len(r.cleared)),
		RainZones: append([]RainZone(nil), r.rain...),
	}
	for id, p := range r.players {
		cp := *p
		cp.Inventory = CloneInventory(p.Inventory)
		snap.Players[id] = cp
	}
	for id, t := range r.trees {
		snap.Trees[id] = *t
	}
	for id, s := range r.stones {
		snap.Stones[id] = *s
	}
	for id, it := range r.items {
		snap.Items[id] = *it
	}
	for id := range r.cleared {
		snap.Cleared = append(snap.Cleared, id)
	}
	return snap
}

// ChangedSince collects players whose own update stamp passed the cutoff,
// plus all trees and items whenever the registry has mutated at all since
// then. Deliberately coarse: over-including is fine, missing a change is not.
func (r *Registry) ChangedSince(since time.Time) Delta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var d Delta
	for _, p := range r.players {
		if p.LastUpdate.After(since) {
			cp := *p
			cp.Inventory = CloneInventory(p.Inventory)
			d.Players = append(d.Players, cp)
		}
	}
	if r.lastUpdate.After(since) {
		for _, t := range r.trees {
			d.Trees = append(d.Trees, *t)
		}
		for _, it := range r.items {
			d.Items = append(d.Items, *it)
		}
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
