package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grovego/server/internal/config"
	"github.com/grovego/server/internal/protocol"
)

// Server accepts TCP connections and runs one session goroutine per client.
// It owns the live-session table and the server lifecycle.
type Server struct {
	listener net.Listener
	cfg      *config.Config
	gw       Gateway
	log      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	wg      sync.WaitGroup
	closeCh chan struct{}
	closed  atomic.Bool
}

func NewServer(cfg *config.Config, gw Gateway, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.Network.BindAddress)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		cfg:      cfg,
		gw:       gw,
		log:      log,
		sessions: make(map[string]*Session),
		closeCh:  make(chan struct{}),
	}, nil
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// AcceptLoop runs in its own goroutine until Stop closes the listener.
// Accept errors are logged and the loop continues; only shutdown ends it.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("連線接受失敗", zap.Error(err))
			continue
		}

		if s.SessionCount() >= s.cfg.Network.MaxClients {
			s.log.Warn("伺服器已滿，拒絕連線", zap.String("ip", conn.RemoteAddr().String()))
			s.reject(conn)
			continue
		}

		sess := newSession(uuid.NewString(), conn, s, s.log)
		s.add(sess)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.serve(s.gw)
		}()
	}
}

// reject tells an over-cap client why it is being dropped, then closes.
// No session is created.
func (s *Server) reject(conn net.Conn) {
	data, err := protocol.Encode(&protocol.ServerFull{MaxClients: s.cfg.Network.MaxClients})
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.Network.WriteTimeout))
		WriteFrame(conn, data)
	}
	conn.Close()
}

// Stop closes the listener, asks every live session to terminate, and waits
// a bounded time for their goroutines; stragglers are logged and abandoned.
func (s *Server) Stop() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.closeCh)
	s.listener.Close()

	for _, sess := range s.Sessions() {
		sess.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("所有連線已關閉")
	case <-time.After(s.cfg.Network.ShutdownTimeout):
		s.log.Warn("關閉逾時，放棄等待剩餘連線",
			zap.Int("remaining", s.SessionCount()))
	}
}

// Sessions returns a point-in-time snapshot of live sessions.
func (s *Server) Sessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Session looks up a live session by id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
