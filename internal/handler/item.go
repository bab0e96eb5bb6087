package handler

import (
	"math"

	"go.uber.org/zap"

	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
	"github.com/grovego/server/internal/world"
)

// handlePickup collects a dropped item within pickup range. Picking up an
// absent or already-collected item is a silent no-op — collection is final
// and double-pickups are an expected race, not an attack.
func (g *Gateway) handlePickup(s *gnet.Session, m *protocol.Pickup) {
	if m.ItemID == "" {
		return
	}

	item, ok := g.deps.World.GetItem(m.ItemID)
	if !ok || item.Collected {
		return
	}

	player, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return
	}

	dist := math.Hypot(player.X-item.X, player.Y-item.Y)
	if dist > g.deps.Config.Game.PickupRange {
		s.Log().Warn("拾取距離超限",
			zap.Float64("dist", dist),
			zap.Float64("range", g.deps.Config.Game.PickupRange))
		return
	}

	collected, ok := g.deps.World.CollectItem(m.ItemID)
	if !ok {
		return // another session won the race
	}

	def := g.deps.Items.Get(collected.Type)
	if def != nil && def.HealOnPick && def.Effect == "health" {
		g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
			p.Health += def.Amount
		})
		if after, ok := g.deps.World.GetPlayer(s.ID); ok {
			g.deps.Router.BroadcastToAll(&protocol.HealthUpdate{
				PlayerID: s.ID,
				Health:   after.Health,
			})
		}
	} else {
		g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
			p.Inventory[collected.Type]++
		})
	}

	g.deps.Router.BroadcastToAll(&protocol.ItemPickedUp{
		ItemID:   collected.ID,
		PlayerID: s.ID,
	})
	if after, ok := g.deps.World.GetPlayer(s.ID); ok {
		g.deps.Router.BroadcastToAll(&protocol.InventorySync{
			PlayerID: s.ID,
			Counts:   after.Inventory,
		})
	}
}

// handleConsume eats one unit of a consumable from the player's tracked
// inventory and applies its effect.
func (g *Gateway) handleConsume(s *gnet.Session, m *protocol.Consume) {
	if !g.deps.Items.Consumable(m.ItemType) {
		s.Log().Warn("食用非可食用物品", zap.String("item", string(m.ItemType)))
		return
	}

	player, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return
	}
	if player.Inventory[m.ItemType] <= 0 {
		s.Log().Warn("食用未持有的物品", zap.String("item", string(m.ItemType)))
		return
	}

	def := g.deps.Items.Get(m.ItemType)
	g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
		p.Inventory[m.ItemType]--
		switch def.Effect {
		case "health":
			p.Health += def.Amount
		case "hunger":
			p.Hunger += def.Amount
		}
	})

	after, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return
	}
	switch def.Effect {
	case "health":
		g.deps.Router.BroadcastToAll(&protocol.HealthUpdate{PlayerID: s.ID, Health: after.Health})
	case "hunger":
		g.deps.Router.BroadcastToAll(&protocol.HungerUpdate{PlayerID: s.ID, Hunger: after.Hunger})
	}
	g.deps.Router.BroadcastToAll(&protocol.InventorySync{
		PlayerID: s.ID,
		Counts:   after.Inventory,
	})
}
