package handler

import (
	"go.uber.org/zap"

	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
	"github.com/grovego/server/internal/world"
)

// handleJoin sets the display name chosen by the client and re-announces
// the player so others pick it up.
func (g *Gateway) handleJoin(s *gnet.Session, m *protocol.Join) {
	if m.Name == "" || len(m.Name) > 32 {
		s.Log().Warn("非法玩家名稱", zap.Int("len", len(m.Name)))
		return
	}

	g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
		p.Name = m.Name
	})
	if player, ok := g.deps.World.GetPlayer(s.ID); ok {
		g.deps.Router.BroadcastToAllExcept(&protocol.PlayerJoined{Player: player}, s.ID)
	}
}

func (g *Gateway) handleInventoryUpdate(s *gnet.Session, m *protocol.InventoryUpdate) {
	for itemType, count := range m.Counts {
		if count < 0 || count > world.MaxInventory {
			s.Log().Warn("背包數量超出範圍",
				zap.String("item", string(itemType)), zap.Int("count", count))
			return
		}
	}

	g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
		p.Inventory = world.CloneInventory(m.Counts)
	})
	g.deps.Router.BroadcastToAllExcept(&protocol.InventorySync{
		PlayerID: s.ID,
		Counts:   m.Counts,
	}, s.ID)
}

func (g *Gateway) handleHealthUpdate(s *gnet.Session, m *protocol.HealthUpdate) {
	if !finite(m.Health) || m.Health < 0 || m.Health > world.MaxPlayerHealth {
		s.Log().Warn("血量超出範圍", zap.Float64("health", m.Health))
		return
	}

	g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
		p.Health = m.Health
	})
	g.deps.Router.BroadcastToAllExcept(&protocol.HealthUpdate{
		PlayerID: s.ID,
		Health:   m.Health,
	}, s.ID)
}

func (g *Gateway) handleHungerUpdate(s *gnet.Session, m *protocol.HungerUpdate) {
	if !finite(m.Hunger) || m.Hunger < 0 || m.Hunger > world.MaxHunger {
		s.Log().Warn("飢餓值超出範圍", zap.Float64("hunger", m.Hunger))
		return
	}

	g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
		p.Hunger = m.Hunger
	})
	g.deps.Router.BroadcastToAllExcept(&protocol.HungerUpdate{
		PlayerID: s.ID,
		Hunger:   m.Hunger,
	}, s.ID)
}
