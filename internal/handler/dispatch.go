package handler

import (
	"go.uber.org/zap"

	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
)

// HandleMessage is the single dispatch site over the closed message set.
// Validation failures inside the handlers are logged and dropped; only the
// abuse paths (ghost threshold) terminate the session from here.
func (g *Gateway) HandleMessage(s *gnet.Session, m protocol.Message) {
	if s.State() != gnet.StateActive {
		return
	}
	if protocol.ServerOnly(m.Kind()) {
		s.Log().Warn("收到僅限伺服器的訊息種類，協定違規",
			zap.String("kind", m.Kind()))
		return
	}
	st := g.state(s.ID)
	if st == nil {
		return
	}

	switch m := m.(type) {
	case *protocol.Join:
		g.handleJoin(s, m)
	case *protocol.Move:
		g.handleMove(s, st, m)
	case *protocol.Attack:
		g.handleAttack(s, st, m)
	case *protocol.Pickup:
		g.handlePickup(s, m)
	case *protocol.Consume:
		g.handleConsume(s, m)
	case *protocol.PlantBamboo:
		g.handlePlantBamboo(s, m)
	case *protocol.PlantTree:
		g.handlePlantTree(s, m)
	case *protocol.TransformResource:
		g.handleTransformResource(s, m)
	case *protocol.InventoryUpdate:
		g.handleInventoryUpdate(s, m)
	case *protocol.RespawnRequest:
		g.respawnPlayer(st, s.ID)
	case *protocol.HealthUpdate:
		g.handleHealthUpdate(s, m)
	case *protocol.HungerUpdate:
		g.handleHungerUpdate(s, m)
	case *protocol.Leave:
		s.Close()
	default:
		// Server-only kinds were rejected above; the set is closed.
		s.Log().Warn("未處理的訊息種類", zap.String("kind", m.Kind()))
	}
}
