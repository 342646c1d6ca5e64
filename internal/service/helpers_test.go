package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
	"mythic_prison/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingStore wraps a store and can be told to fail or stall.
type countingStore struct {
	inner repository.ProfileStore

	saves    atomic.Int64
	loads    atomic.Int64
	failSave atomic.Int64 // number of upcoming saves that fail
	failLoad atomic.Bool
	gate     chan struct{} // when set, Load and Save block until closed or ctx done
}

var errStoreDown = errors.New("store down")

func newCountingStore() *countingStore {
	return &countingStore{inner: repository.NewMemoryProfileStore()}
}

func (s *countingStore) wait(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	select {
	case <-s.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *countingStore) Load(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	s.loads.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.failLoad.Load() {
		return nil, errStoreDown
	}
	return s.inner.Load(ctx, id)
}

func (s *countingStore) Save(ctx context.Context, p *domain.Profile) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if s.failSave.Load() > 0 {
		s.failSave.Add(-1)
		return errStoreDown
	}
	s.saves.Add(1)
	return s.inner.Save(ctx, p)
}

type env struct {
	ctx        context.Context
	clock      *fakeClock
	store      *countingStore
	registry   *player.Registry
	persist    *Persister
	sessions   *SessionService
	balances   *BalanceService
	mults      *MultiplierService
	ladder     *ProgressionService
	milestones *MilestoneService
	mining     *MiningService
	admin      *AdminService
}

func newEnv(t *testing.T) *env {
	return newEnvWithStore(t, newCountingStore())
}

func newEnvWithStore(t *testing.T, store *countingStore) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	e := &env{ctx: ctx, clock: newFakeClock(), store: store, registry: player.NewRegistry()}
	clock := WithClock(e.clock.Now)

	e.persist = NewPersister(store, e.registry, WithSaveWorkers(2), WithSaveTimeout(time.Second), WithSaveInterval(20*time.Millisecond))
	e.persist.Start(ctx)
	t.Cleanup(func() {
		cancel()
		e.persist.Wait()
	})

	audit := NewAuditService(nil)
	e.sessions = NewSessionService(e.registry, store, e.persist, e.persist, audit, 200*time.Millisecond, clock)
	e.balances = NewBalanceService(e.registry, e.persist, audit, 0, clock)
	e.mults = NewMultiplierService(e.registry, e.persist, clock)
	e.ladder = NewProgressionService(e.registry, e.persist, audit, clock)

	catalog, err := LoadMilestones("")
	require.NoError(t, err)
	e.milestones = NewMilestoneService(e.registry, e.persist, e.sessions, catalog, clock)
	e.mining = NewMiningService(e.registry, e.persist, e.ladder, e.milestones, clock)
	e.admin = NewAdminService(e.registry, e.persist, e.sessions, e.balances, e.mults, e.ladder, audit)
	return e
}

func (e *env) join(t *testing.T) domain.Identity {
	t.Helper()
	id := domain.NewIdentity()
	require.NoError(t, e.sessions.Join(e.ctx, domain.Online{ID: id, Username: "inmate"}))
	return id
}

// edit mutates a loaded profile directly, bypassing the services.
func (e *env) edit(t *testing.T, id domain.Identity, fn func(p *domain.Profile)) {
	t.Helper()
	require.NoError(t, e.registry.With(e.ctx, id, func(p *domain.Profile, _ player.Session) error {
		fn(p)
		return nil
	}))
}

func (e *env) profile(t *testing.T, id domain.Identity) *domain.Profile {
	t.Helper()
	st, ok := e.registry.Get(id)
	require.True(t, ok)
	return st.Snapshot()
}
