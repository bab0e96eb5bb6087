package handler

import (
	"math"

	"go.uber.org/zap"

	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
	"github.com/grovego/server/internal/world"
)

// handleMove validates a movement update against the per-update distance
// cap and either commits it or pushes a correction back to the client.
//
// The first-ever movement of a session is trusted so clients can resume at
// a previously saved position.
func (g *Gateway) handleMove(s *gnet.Session, st *sessionState, m *protocol.Move) {
	if !finite(m.X) || !finite(m.Y) || !m.Direction.Valid() {
		s.Log().Warn("非法移動訊息",
			zap.Float64("x", m.X), zap.Float64("y", m.Y),
			zap.String("direction", string(m.Direction)))
		return
	}

	player, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return
	}

	dist := math.Hypot(m.X-player.X, m.Y-player.Y)
	if st.movedOnce && dist > g.deps.Config.Game.MoveCap() {
		s.Log().Warn("移動距離超限，回推修正",
			zap.Float64("dist", dist),
			zap.Float64("cap", g.deps.Config.Game.MoveCap()))
		s.Send(&protocol.PositionCorrection{X: player.X, Y: player.Y})
		return
	}
	st.movedOnce = true

	g.deps.World.MutatePlayer(s.ID, func(p *world.PlayerEntity) {
		p.X = m.X
		p.Y = m.Y
		p.Direction = m.Direction
		p.Moving = m.Moving
	})

	g.deps.Router.BroadcastToAllExcept(&protocol.PlayerMoved{
		PlayerID:  s.ID,
		X:         m.X,
		Y:         m.Y,
		Direction: m.Direction,
		Moving:    m.Moving,
	}, s.ID)
}
