package player

import (
	"context"
	"sync"
	"time"

	"mythic_prison/internal/domain"
)

// State is the in-memory record for one identity. Its mutex is the
// per-identity critical section; every read or write of the profile happens
// while it is held.
type State struct {
	id domain.Identity

	mu      sync.Mutex
	profile *domain.Profile
	online  bool
	joined  time.Time
	holds   int
	evicted bool

	ready     chan struct{}
	readyOnce sync.Once
}

func newState(id domain.Identity) *State {
	return &State{id: id, ready: make(chan struct{})}
}

func (s *State) ID() domain.Identity { return s.id }

// Hydrate installs the loaded profile and releases everyone waiting on
// readiness. Only the first call has an effect.
func (s *State) Hydrate(p *domain.Profile) {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.profile = p
		s.mu.Unlock()
		close(s.ready)
	})
}

// Ready is closed once the profile has been hydrated.
func (s *State) Ready() <-chan struct{} { return s.ready }

// Wait blocks until the state is hydrated or ctx is done.
func (s *State) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot deep-copies the profile. Returns nil before hydration.
func (s *State) Snapshot() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	return s.profile.Clone()
}

// Online reports whether a live session currently owns the state.
func (s *State) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Session is the lock-held view handed to mutation callbacks.
type Session struct {
	s *State
}

func (v Session) Online() bool        { return v.s.online }
func (v Session) JoinedAt() time.Time { return v.s.joined }
func (v Session) Holds() int          { return v.s.holds }

// MarkOnline records a live session start.
func (v Session) MarkOnline(at time.Time) {
	v.s.online = true
	v.s.joined = at
}

// MarkOffline ends the live session and returns its duration.
func (v Session) MarkOffline(at time.Time) time.Duration {
	if !v.s.online {
		return 0
	}
	v.s.online = false
	d := at.Sub(v.s.joined)
	if d < 0 {
		d = 0
	}
	return d
}

// Hold pins an offline record in the registry; Release undoes it.
func (v Session) Hold()    { v.s.holds++ }
func (v Session) Release() {
	if v.s.holds > 0 {
		v.s.holds--
	}
}

// Idle reports that nothing keeps the record resident.
func (v Session) Idle() bool { return !v.s.online && v.s.holds == 0 }
