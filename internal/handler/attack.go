package handler

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gnet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/protocol"
	"github.com/grovego/server/internal/world"
)

// handleAttack resolves the target as a player, stone, or tree — lazily
// generating coordKey targets — then applies damage inside range.
func (g *Gateway) handleAttack(s *gnet.Session, st *sessionState, m *protocol.Attack) {
	if m.TargetID == "" || !finite(m.Damage) || m.Damage < 0 || m.Damage > 100 {
		s.Log().Warn("非法攻擊訊息",
			zap.String("target", m.TargetID), zap.Float64("damage", m.Damage))
		return
	}
	if m.TargetID == s.ID {
		s.Log().Warn("攻擊目標為自身，已忽略")
		return
	}

	attacker, ok := g.deps.World.GetPlayer(s.ID)
	if !ok {
		return
	}

	if target, ok := g.deps.World.GetPlayer(m.TargetID); ok {
		g.attackPlayer(s, st, attacker, target)
		return
	}
	if stone, ok := g.deps.World.GetStone(m.TargetID); ok {
		g.attackStone(s, st, attacker, stone, m.Damage)
		return
	}
	if tree, ok := g.deps.World.GetTree(m.TargetID); ok {
		g.attackTree(s, st, attacker, tree, m.Damage)
		return
	}

	// The client may reference a resource it computed locally but the
	// server never materialized. Generate the cell before concluding the
	// target doesn't exist.
	if gx, gy, isCell := world.ParseCoordKey(m.TargetID); isCell {
		if tree, ok := g.deps.World.GenerateTreeAt(gx, gy); ok {
			g.attackTree(s, st, attacker, tree, m.Damage)
			return
		}
		if stone, ok := g.deps.World.GenerateStoneAt(gx, gy, attacker.X, attacker.Y); ok {
			g.attackStone(s, st, attacker, stone, m.Damage)
			return
		}
	}

	g.ghostAttack(s, st, m.TargetID)
}

// ghostAttack tracks attacks on entities the server cannot materialize.
// A stuck or cheating client that keeps hammering ghosts is disconnected
// once its cumulative count passes the limit; exactly at the limit it is
// still tolerated and just told to drop the entity.
func (g *Gateway) ghostAttack(s *gnet.Session, st *sessionState, targetID string) {
	st.ghostByPos[targetID]++
	st.ghostAttempts++

	s.Log().Warn("攻擊不存在的目標",
		zap.String("target", targetID),
		zap.Int("targetAttempts", st.ghostByPos[targetID]),
		zap.Int("attempts", st.ghostAttempts))

	if st.ghostAttempts > g.deps.Config.Game.GhostAttackLimit {
		s.Log().Warn("幽靈目標攻擊次數超限，強制斷線",
			zap.Int("attempts", st.ghostAttempts))
		s.Close()
		return
	}

	s.Send(&protocol.EntityRemoved{
		EntityKind: protocol.ResourceTree,
		EntityID:   targetID,
	})
}

func (g *Gateway) inAttackRange(s *gnet.Session, attacker world.PlayerEntity, tx, ty float64) bool {
	dist := math.Hypot(attacker.X-tx, attacker.Y-ty)
	if dist > g.deps.Config.Game.AttackRange {
		s.Log().Warn("攻擊距離超限",
			zap.Float64("dist", dist),
			zap.Float64("range", g.deps.Config.Game.AttackRange))
		return false
	}
	return true
}

func (g *Gateway) attackTree(s *gnet.Session, st *sessionState, attacker world.PlayerEntity, tree world.TreeEntity, damage float64) {
	if !g.inAttackRange(s, attacker, tree.X, tree.Y) {
		return
	}

	after, destroyed, ok := g.deps.World.DamageTree(tree.ID, damage)
	if !ok {
		return
	}
	if !destroyed {
		g.deps.Router.BroadcastToAll(&protocol.ResourceDamaged{
			ResourceKind: protocol.ResourceTree,
			ResourceID:   tree.ID,
			Health:       after.Health,
		})
		return
	}

	g.deps.Router.BroadcastToAll(&protocol.ResourceDestroyed{
		ResourceKind: protocol.ResourceTree,
		ResourceID:   tree.ID,
	})
	g.spawnByproducts(st, string(after.Type), after.X, after.Y)
	if g.deps.ScheduleRespawn != nil {
		g.deps.ScheduleRespawn(protocol.ResourceTree, tree.ID, string(after.Type), after.X, after.Y)
	}
}

func (g *Gateway) attackStone(s *gnet.Session, st *sessionState, attacker world.PlayerEntity, stone world.StoneEntity, damage float64) {
	if !g.inAttackRange(s, attacker, stone.X, stone.Y) {
		return
	}

	after, destroyed, ok := g.deps.World.DamageStone(stone.ID, damage)
	if !ok {
		return
	}
	if !destroyed {
		g.deps.Router.BroadcastToAll(&protocol.ResourceDamaged{
			ResourceKind: protocol.ResourceStone,
			ResourceID:   stone.ID,
			Health:       after.Health,
		})
		return
	}

	g.deps.Router.BroadcastToAll(&protocol.ResourceDestroyed{
		ResourceKind: protocol.ResourceStone,
		ResourceID:   stone.ID,
	})
	g.spawnByproducts(st, string(after.Type), after.X, after.Y)
	if g.deps.ScheduleRespawn != nil {
		g.deps.ScheduleRespawn(protocol.ResourceStone, stone.ID, string(after.Type), after.X, after.Y)
	}
}

// attackPlayer applies the fixed per-hit damage under the per-target
// cooldown and respawns the victim at zero health.
func (g *Gateway) attackPlayer(s *gnet.Session, st *sessionState, attacker, target world.PlayerEntity) {
	if !g.inAttackRange(s, attacker, target.X, target.Y) {
		return
	}

	if last, ok := st.attackCooldowns[target.ID]; ok {
		if time.Since(last) < g.deps.Config.Game.AttackCooldown {
			s.Log().Warn("攻擊冷卻未結束", zap.String("target", target.ID))
			return
		}
	}
	st.attackCooldowns[target.ID] = time.Now()

	dmg := g.deps.Config.Game.PlayerAttackDamage
	g.deps.World.MutatePlayer(target.ID, func(p *world.PlayerEntity) {
		p.Health -= dmg
	})

	after, ok := g.deps.World.GetPlayer(target.ID)
	if !ok {
		return
	}
	g.deps.Router.BroadcastToAll(&protocol.HealthUpdate{
		PlayerID: target.ID,
		Health:   after.Health,
	})

	if after.Health <= 0 {
		g.respawnPlayer(st, target.ID)
	}
}

// respawnPlayer resets health and relocates the player to a random point
// within the configured radius of the origin, then broadcasts both.
func (g *Gateway) respawnPlayer(st *sessionState, playerID string) {
	radius := g.deps.Config.Game.RespawnRadius
	angle := st.rng.Float64() * 2 * math.Pi
	r := st.rng.Float64() * radius
	nx := math.Cos(angle) * r
	ny := math.Sin(angle) * r

	moved := g.deps.World.MutatePlayer(playerID, func(p *world.PlayerEntity) {
		p.X = nx
		p.Y = ny
		p.Health = world.MaxPlayerHealth
	})
	if !moved {
		return
	}

	g.deps.Router.BroadcastToAll(&protocol.PlayerRespawned{
		PlayerID: playerID,
		X:        nx,
		Y:        ny,
		Health:   world.MaxPlayerHealth,
	})
}

// spawnByproducts rolls the drop table for a destroyed resource and spawns
// each byproduct as a fresh item entity with its own broadcast.
func (g *Gateway) spawnByproducts(st *sessionState, resourceType string, x, y float64) {
	for _, itemType := range g.deps.Drops.Roll(resourceType, st.rng) {
		item := world.ItemEntity{
			ID:   uuid.NewString(),
			Type: itemType,
			X:    x + (st.rng.Float64()*2-1)*byproductScatter,
			Y:    y + (st.rng.Float64()*2-1)*byproductScatter,
		}
		g.deps.World.AddItem(item)
		g.deps.Router.BroadcastToAll(&protocol.ItemSpawned{Item: item})
	}
}

// byproductScatter keeps drops from stacking exactly on the stump.
const byproductScatter = 20.0
