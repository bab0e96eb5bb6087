package net

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/grovego/server/internal/protocol"
)

// SessionState is the session's protocol phase.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateActive:
		return "Active"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Gateway is the game layer a session reports into. Implemented by the
// handler package; keeps this package free of game imports.
type Gateway interface {
	// HandleConnect performs the handshake for a fresh session. An error
	// aborts the session before it ever goes Active.
	HandleConnect(s *Session) error
	// HandleMessage dispatches one decoded inbound message.
	HandleMessage(s *Session, m protocol.Message)
	// HandleSync pushes the periodic authoritative inventory snapshot.
	HandleSync(s *Session)
	// HandleDisconnect tears down game state. Called exactly once.
	HandleDisconnect(s *Session)
}

var ErrSessionClosed = errors.New("session closed")

// Session represents one client connection. The receive loop owns all
// session-private game state; outbound writes are serialized by writeMu so
// broadcasts from other goroutines cannot interleave frames.
type Session struct {
	ID string
	IP string

	conn net.Conn
	fr   *FrameReader // resumable decoder; survives read-deadline polls
	srv  *Server

	state   atomic.Int32
	writeMu sync.Mutex

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	lastRecv atomic.Int64 // unix nano; read by the router's liveness check

	// Per-second message rate window (receive loop only, no lock needed).
	msgCount   int
	msgResetAt int64 // unix second of last counter reset

	log *zap.Logger
}

func newSession(id string, conn net.Conn, srv *Server, log *zap.Logger) *Session {
	s := &Session{
		ID:      id,
		IP:      conn.RemoteAddr().String(),
		conn:    conn,
		fr:      NewFrameReader(conn),
		srv:     srv,
		closeCh: make(chan struct{}),
		log:     log.With(zap.String("session", id)),
	}
	s.state.Store(int32(StateConnecting))
	s.lastRecv.Store(time.Now().UnixNano())
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
}

// Log returns the session-scoped logger for the game layer.
func (s *Session) Log() *zap.Logger { return s.log }

// LastReceived reports when the last inbound message arrived.
func (s *Session) LastReceived() time.Time {
	return time.Unix(0, s.lastRecv.Load())
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Close requests shutdown from any goroutine. The receive loop notices and
// runs the one-time teardown; calling Close repeatedly is safe.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.setState(StateClosing)
		close(s.closeCh)
		s.conn.Close()
	})
}

// Send encodes and writes one message. Safe from any goroutine; only one
// writer touches the connection at a time.
func (s *Session) Send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return s.sendRaw(data)
}

func (s *Session) sendRaw(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.Network.WriteTimeout))
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return err
	}
	return nil
}

// serve runs the whole session lifecycle in its own goroutine: handshake,
// receive loop, teardown.
//
// The loop never blocks on read for longer than the configured poll window,
// so the heartbeat and inventory-sync checks are guaranteed to run on
// schedule even when the client goes quiet. The frame decoder keeps its
// partial state across polls: a frame straddling a deadline expiry resumes
// on the next iteration instead of desyncing the stream.
func (s *Session) serve(gw Gateway) {
	defer s.teardown(gw)

	if err := gw.HandleConnect(s); err != nil {
		s.log.Warn("握手失敗", zap.Error(err))
		return
	}
	s.setState(StateActive)
	s.log.Info("玩家連線", zap.String("ip", s.IP))

	game := s.srv.cfg.Game
	rl := s.srv.cfg.RateLimit
	lastSync := time.Now()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		now := time.Now()

		// 1. Heartbeat timeout
		if now.Sub(s.LastReceived()) > game.HeartbeatTimeout {
			s.log.Warn("心跳逾時，斷開連線",
				zap.Duration("timeout", game.HeartbeatTimeout))
			return
		}

		// 2. Periodic authoritative inventory sync
		if now.Sub(lastSync) > game.InventorySyncEvery {
			gw.HandleSync(s)
			lastSync = now
		}

		s.conn.SetReadDeadline(now.Add(s.srv.cfg.Network.ReadTimeout))
		payload, err := s.fr.Next()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue // poll window elapsed; rerun the timed checks
			}
			if errors.Is(err, ErrFrameTooLarge) {
				s.log.Warn("訊息超過大小上限，已丟棄")
				continue
			}
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}
		s.lastRecv.Store(time.Now().UnixNano())

		// 3. Per-second message rate limit
		if rl.Enabled && rl.MessagesPerSecond > 0 {
			sec := time.Now().Unix()
			if sec != s.msgResetAt {
				s.msgCount = 0
				s.msgResetAt = sec
			}
			s.msgCount++
			if s.msgCount > rl.MessagesPerSecond {
				s.log.Warn("訊息速率超限，斷開連線", zap.Int("mps", s.msgCount))
				return
			}
		}

		// 4. Decode; a malformed or unknown message is dropped, not fatal.
		m, err := protocol.Decode(payload)
		if err != nil {
			s.log.Warn("無法解析的訊息，已丟棄", zap.Error(err))
			continue
		}

		// 5. Dispatch
		s.dispatch(gw, m)
	}
}

// dispatch executes the gateway handler with panic recovery so one bad
// message cannot take the whole session goroutine down.
func (s *Session) dispatch(gw Gateway, m protocol.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("處理器 panic 已恢復",
				zap.String("kind", m.Kind()),
				zap.Any("panic", rec),
			)
		}
	}()
	gw.HandleMessage(s, m)
}

// teardown is idempotent by construction: serve runs it exactly once, and
// Close only flips flags.
func (s *Session) teardown(gw Gateway) {
	s.Close()
	gw.HandleDisconnect(s)
	s.srv.remove(s.ID)
	s.setState(StateClosed)
	s.log.Info("玩家離線")
}
