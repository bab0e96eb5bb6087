package handler

import (
	"math"

	"go.uber.org/zap"

	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
	"github.com/grovego/server/internal/world"
)

// plantOK runs the shared planting validation: non-empty id, finite
// position, within planting distance of the player.
func (g *Gateway) plantOK(s *gnet.Session, id string, x, y float64) bool {
	if id == "" || !finite(x) || !finite(y) {
		s.Log().Warn("非法種植訊息", zap.String("plant", id))
		return false
	}
	player, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return false
	}
	dist := math.Hypot(player.X-x, player.Y-y)
	if dist > g.deps.Config.Game.MaxPlantingDistance {
		s.Log().Warn("種植距離超限",
			zap.Float64("dist", dist),
			zap.Float64("max", g.deps.Config.Game.MaxPlantingDistance))
		return false
	}
	return true
}

func (g *Gateway) handlePlantBamboo(s *gnet.Session, m *protocol.PlantBamboo) {
	if !g.plantOK(s, m.PlantID, m.X, m.Y) {
		return
	}
	g.deps.Router.BroadcastToAllExcept(m, s.ID)
}

func (g *Gateway) handlePlantTree(s *gnet.Session, m *protocol.PlantTree) {
	switch m.TreeType {
	case world.TreeOak, world.TreePine, world.TreeBamboo, world.TreeCherry:
	default:
		s.Log().Warn("未知的樹種", zap.String("treeType", string(m.TreeType)))
		return
	}
	if !g.plantOK(s, m.PlantID, m.X, m.Y) {
		return
	}
	g.deps.Router.BroadcastToAllExcept(m, s.ID)
}

// handleTransformResource registers a planted resource that matured into a
// real one. Registration happens before the rebroadcast: once clients can
// attack it, the server must already be able to resolve it, or every later
// hit would count as a ghost reference.
func (g *Gateway) handleTransformResource(s *gnet.Session, m *protocol.TransformResource) {
	if !g.plantOK(s, m.ResourceID, m.X, m.Y) {
		return
	}

	switch m.ResourceKind {
	case protocol.ResourceTree:
		tt := m.TreeType
		if tt == "" {
			tt = world.TreeBamboo
		}
		g.deps.World.AddTree(world.TreeEntity{
			ID: m.ResourceID, Type: tt,
			X: m.X, Y: m.Y, Health: world.MaxTreeHealth,
		})
	case protocol.ResourceStone:
		st := m.StoneType
		if st == "" {
			st = world.StoneRock
		}
		g.deps.World.AddStone(world.StoneEntity{
			ID: m.ResourceID, Type: st,
			X: m.X, Y: m.Y, Health: world.MaxStoneHealth,
		})
	default:
		s.Log().Warn("未知的資源種類", zap.String("kind", m.ResourceKind))
		return
	}

	g.deps.Router.BroadcastToAllExcept(m, s.ID)
}
