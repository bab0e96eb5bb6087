package respawn

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSchedulerFiresDueEntry(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	fired := make(chan Entry, 1)
	s.Subscribe(func(e Entry) { fired <- e })

	go s.Run()
	defer s.Close()

	s.Schedule("tree", "t1", "oak", 100, 200, 0)

	select {
	case e := <-fired:
		if e.ResourceKind != "tree" || e.ResourceID != "t1" || e.ResourceType != "oak" {
			t.Fatalf("fired entry %+v", e)
		}
		if e.X != 100 || e.Y != 200 {
			t.Fatalf("fired entry lost its position: %+v", e)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("due entry never fired")
	}

	deadline := time.Now().Add(time.Second)
	for len(s.Pending()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("fired entry still pending: %+v", s.Pending())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerHoldsFutureEntries(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	fired := make(chan Entry, 1)
	s.Subscribe(func(e Entry) { fired <- e })

	go s.Run()
	defer s.Close()

	s.Schedule("stone", "s1", "rock", 0, 0, time.Hour)

	select {
	case e := <-fired:
		t.Fatalf("entry due in an hour fired now: %+v", e)
	case <-time.After(1500 * time.Millisecond):
	}

	p := s.Pending()
	if len(p) != 1 || p[0].ResourceID != "s1" {
		t.Fatalf("pending = %+v, want the one scheduled stone", p)
	}
}

func TestPendingReturnsCopy(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	s.Schedule("tree", "t1", "oak", 0, 0, time.Hour)

	p := s.Pending()
	p[0].ResourceID = "mangled"

	if got := s.Pending()[0].ResourceID; got != "t1" {
		t.Fatalf("internal entry mutated through Pending copy: %q", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	s.Close()
	s.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}
