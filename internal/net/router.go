package net

import (
	"time"

	"go.uber.org/zap"

	"github.com/grovego/server/internal/protocol"
)

// Router fans a message out to the sessions live at call time. One broken
// peer never aborts delivery to the rest: a failed or stale recipient is
// closed and pruned, and the loop moves on.
type Router struct {
	srv *Server
	log *zap.Logger
}

func NewRouter(srv *Server, log *zap.Logger) *Router {
	return &Router{srv: srv, log: log}
}

// BroadcastToAll delivers m to every live session.
func (r *Router) BroadcastToAll(m protocol.Message) {
	r.broadcast(m, "")
}

// BroadcastToAllExcept delivers m to every live session except exceptID.
func (r *Router) BroadcastToAllExcept(m protocol.Message, exceptID string) {
	r.broadcast(m, exceptID)
}

// SendTo delivers m to a single session by id, if it is still live.
func (r *Router) SendTo(id string, m protocol.Message) bool {
	sess, ok := r.srv.Session(id)
	if !ok {
		return false
	}
	if err := sess.Send(m); err != nil {
		r.prune(sess, err)
		return false
	}
	return true
}

func (r *Router) broadcast(m protocol.Message, exceptID string) {
	data, err := protocol.Encode(m)
	if err != nil {
		r.log.Error("廣播編碼失敗", zap.String("kind", m.Kind()), zap.Error(err))
		return
	}

	heartbeat := r.srv.cfg.Game.HeartbeatTimeout
	for _, sess := range r.srv.Sessions() {
		if sess.ID == exceptID {
			continue
		}
		if sess.IsClosed() || time.Since(sess.LastReceived()) > heartbeat {
			r.prune(sess, nil)
			continue
		}
		if err := sess.sendRaw(data); err != nil {
			r.prune(sess, err)
		}
	}
}

func (r *Router) prune(sess *Session, err error) {
	if err != nil {
		r.log.Warn("廣播遞送失敗，移除連線",
			zap.String("session", sess.ID), zap.Error(err))
	} else {
		r.log.Warn("連線不再存活，移除", zap.String("session", sess.ID))
	}
	sess.Close()
	r.srv.remove(sess.ID)
}
