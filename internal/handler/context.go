package handler

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grovego/server/internal/config"
	"github.com/grovego/server/internal/data"
	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
	"github.com/grovego/server/internal/respawn"
	"github.com/grovego/server/internal/world"
)

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	World   *world.Registry
	Router  *gnet.Router
	Respawn respawn.Service
	Items   *data.ItemTable
	Drops   *data.DropTable

	// ScheduleRespawn queues a destroyed resource with the respawn
	// subsystem. Kept as a function so handlers see only the narrow
	// query/notify surface of the Service interface.
	ScheduleRespawn func(kind, id, resourceType string, x, y float64)
}

// sessionState is game state private to one session's receive goroutine.
// No cross-task synchronization is needed on the fields themselves; the
// Gateway map holding them is the only shared structure.
type sessionState struct {
	movedOnce     bool
	ghostAttempts int            // cumulative across positions
	ghostByPos    map[string]int // per-position attempt counts

	attackCooldowns map[string]time.Time // target id → last accepted hit

	rng *rand.Rand // drop rolls, respawn scatter
}

// Gateway implements net.Gateway: the handshake, the dispatch switch, the
// periodic sync and the teardown for every session.
type Gateway struct {
	deps *Deps

	mu     sync.Mutex
	states map[string]*sessionState
}

func NewGateway(deps *Deps) *Gateway {
	return &Gateway{
		deps:   deps,
		states: make(map[string]*sessionState),
	}
}

func (g *Gateway) state(id string) *sessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.states[id]
}

// HandleConnect performs the handshake: welcome with the assigned id and
// client-facing config, full world snapshot, pending respawn state, then a
// join notice to everyone else. Registers the authoritative player.
func (g *Gateway) HandleConnect(s *gnet.Session) error {
	d := g.deps

	player := world.PlayerEntity{
		ID:        s.ID,
		Name:      "player-" + s.ID[:8],
		Direction: world.DirDown,
		Health:    world.MaxPlayerHealth,
		Hunger:    world.MaxHunger,
		Inventory: make(map[world.ItemType]int),
	}
	d.World.AddPlayer(player)

	welcome := &protocol.Welcome{
		PlayerID: s.ID,
		Config: protocol.ClientConfig{
			MaxPlantingDistance: d.Config.Game.MaxPlantingDistance,
			AttackRange:         d.Config.Game.AttackRange,
			PickupRange:         d.Config.Game.PickupRange,
			MoveCap:             d.Config.Game.MoveCap(),
		},
	}
	if err := s.Send(welcome); err != nil {
		d.World.RemovePlayer(s.ID)
		return err
	}
	if err := s.Send(&protocol.WorldSnapshot{Snapshot: d.World.CreateSnapshot()}); err != nil {
		d.World.RemovePlayer(s.ID)
		return err
	}
	if err := s.Send(&protocol.RespawnPending{Entries: pendingEntries(d.Respawn)}); err != nil {
		d.World.RemovePlayer(s.ID)
		return err
	}

	g.mu.Lock()
	g.states[s.ID] = &sessionState{
		ghostByPos:      make(map[string]int),
		attackCooldowns: make(map[string]time.Time),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	g.mu.Unlock()

	d.Router.BroadcastToAllExcept(&protocol.PlayerJoined{Player: player}, s.ID)
	return nil
}

// HandleSync pushes the authoritative inventory to the client, defending
// against drift from lost update messages.
func (g *Gateway) HandleSync(s *gnet.Session) {
	p, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return
	}
	s.Send(&protocol.InventorySync{PlayerID: s.ID, Counts: p.Inventory})
}

// HandleDisconnect deregisters the player and notifies the remaining
// sessions. Called exactly once per session by the receive goroutine.
func (g *Gateway) HandleDisconnect(s *gnet.Session) {
	g.mu.Lock()
	delete(g.states, s.ID)
	g.mu.Unlock()

	if _, ok := g.deps.World.GetPlayer(s.ID); !ok {
		return
	}
	g.deps.World.RemovePlayer(s.ID)
	g.deps.Router.BroadcastToAllExcept(&protocol.PlayerLeft{PlayerID: s.ID}, s.ID)
}

// HandleRespawn reacts to the respawn subsystem firing an entry: clear the
// tombstone, re-register the resource, tell everyone.
func (g *Gateway) HandleRespawn(e respawn.Entry) {
	d := g.deps
	d.World.RemoveTombstone(e.ResourceID)

	switch e.ResourceKind {
	case protocol.ResourceTree:
		d.World.AddTree(world.TreeEntity{
			ID: e.ResourceID, Type: world.TreeType(e.ResourceType),
			X: e.X, Y: e.Y, Health: world.MaxTreeHealth,
		})
	case protocol.ResourceStone:
		d.World.AddStone(world.StoneEntity{
			ID: e.ResourceID, Type: world.StoneType(e.ResourceType),
			X: e.X, Y: e.Y, Health: world.MaxStoneHealth,
		})
	default:
		return
	}

	d.Router.BroadcastToAll(&protocol.ResourceRespawned{Entry: toWireEntry(e)})
}

func pendingEntries(svc respawn.Service) []protocol.RespawnEntry {
	pending := svc.Pending()
	out := make([]protocol.RespawnEntry, 0, len(pending))
	for _, e := range pending {
		out = append(out, toWireEntry(e))
	}
	return out
}

func toWireEntry(e respawn.Entry) protocol.RespawnEntry {
	return protocol.RespawnEntry{
		ResourceKind: e.ResourceKind,
		ResourceID:   e.ResourceID,
		ResourceType: e.ResourceType,
		X:            e.X,
		Y:            e.Y,
		DueAt:        e.DueAt.UnixMilli(),
	}
}
