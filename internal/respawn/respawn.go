// Package respawn is the resource-respawn timer subsystem. The rest of the
// server consults it only through the narrow Service interface: pending
// entries at handshake, and a notification callback when an entry fires.
package respawn

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one resource waiting to come back.
type Entry struct {
	ResourceKind string // "tree" or "stone"
	ResourceID   string
	ResourceType string
	X, Y         float64
	DueAt        time.Time
}

// Service is the query/notify surface consumed by the session layer.
type Service interface {
	Pending() []Entry
	Subscribe(fn func(Entry))
}

// Scheduler is the in-process implementation: destruction handlers push
// entries, a timer goroutine fires them in due order.
type Scheduler struct {
	mu      sync.Mutex
	pending []Entry
	subs    []func(Entry)

	wake    chan struct{}
	closeCh chan struct{}
	once    sync.Once

	log *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Schedule queues a destroyed resource for respawn after delay.
func (s *Scheduler) Schedule(kind, id, resourceType string, x, y float64, delay time.Duration) {
	s.mu.Lock()
	s.pending = append(s.pending, Entry{
		ResourceKind: kind,
		ResourceID:   id,
		ResourceType: resourceType,
		X:            x,
		Y:            y,
		DueAt:        time.Now().Add(delay),
	})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns a copy of all not-yet-fired entries.
func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.pending...)
}

// Subscribe registers a callback invoked (from the scheduler goroutine)
// whenever an entry fires.
func (s *Scheduler) Subscribe(fn func(Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Run fires due entries until Close. Runs in its own goroutine.
func (s *Scheduler) Run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.closeCh:
			return
		case <-s.wake:
		case <-ticker.C:
		}
		s.fireDue()
	}
}

func (s *Scheduler) Close() {
	s.once.Do(func() { close(s.closeCh) })
}

func (s *Scheduler) fireDue() {
	now := time.Now()

	s.mu.Lock()
	var due []Entry
	remaining := s.pending[:0]
	for _, e := range s.pending {
		if e.DueAt.After(now) {
			remaining = append(remaining, e)
		} else {
			due = append(due, e)
		}
	}
	s.pending = remaining
	subs := append(([]func(Entry))(nil), s.subs...)
	s.mu.Unlock()

	for _, e := range due {
		s.log.Info("資源重生",
			zap.String("kind", e.ResourceKind),
			zap.String("id", e.ResourceID),
			zap.String("type", e.ResourceType),
		)
		for _, fn := range subs {
			fn(e)
		}
	}
}
