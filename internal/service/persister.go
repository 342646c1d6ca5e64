package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/logger"
	"mythic_prison/internal/player"
	"mythic_prison/internal/repository"
)

// Persister writes profiles back to the store off the gameplay path. Marks
// coalesce per identity, at most one save per identity runs at a time and the
// snapshot is taken when the save starts, so the newest state always wins.
type Persister struct {
	store    repository.ProfileStore
	registry *player.Registry
	log      *slog.Logger

	workers  int
	timeout  time.Duration
	interval time.Duration

	mu       sync.Mutex
	dirty    map[domain.Identity]*player.State
	queued   map[domain.Identity]bool
	inflight map[domain.Identity]chan struct{}

	queue chan domain.Identity
	wg    sync.WaitGroup
}

type PersisterOption func(*Persister)

// WithSaveWorkers sets the number of background save goroutines.
func WithSaveWorkers(n int) PersisterOption {
	return func(p *Persister) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithSaveTimeout bounds each individual store call.
func WithSaveTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithSaveInterval sets the periodic retry flush interval.
func WithSaveInterval(d time.Duration) PersisterOption {
	return func(p *Persister) {
		if d > 0 {
			p.interval = d
		}
	}
}

func NewPersister(store repository.ProfileStore, registry *player.Registry, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:    store,
		registry: registry,
		log:      logger.With("component", "persister"),
		workers:  4,
		timeout:  5 * time.Second,
		interval: time.Minute,
		dirty:    make(map[domain.Identity]*player.State),
		queued:   make(map[domain.Identity]bool),
		inflight: make(map[domain.Identity]chan struct{}),
		queue:    make(chan domain.Identity, 1024),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers and the retry ticker. They stop when ctx is done.
func (p *Persister) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-p.queue:
					p.saveQueued(ctx, id)
				}
			}
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.requeueDirty()
			}
		}
	}()
}

// Wait blocks until every goroutine started by Start has returned.
func (p *Persister) Wait() { p.wg.Wait() }

// MarkDirty schedules a save of id. It never blocks.
func (p *Persister) MarkDirty(id domain.Identity) {
	st, ok := p.registry.Get(id)
	if !ok {
		return
	}
	p.mu.Lock()
	if prev := p.dirty[id]; prev != nil && prev != st && !hydrated(st) {
		// a record still loading must not shadow unsaved changes of its predecessor
		p.mu.Unlock()
		return
	}
	p.dirty[id] = st
	DirtyProfiles.Set(float64(len(p.dirty)))
	p.enqueueLocked(id)
	p.mu.Unlock()
}

func hydrated(st *player.State) bool {
	select {
	case <-st.Ready():
		return true
	default:
		return false
	}
}

func (p *Persister) enqueueLocked(id domain.Identity) {
	if p.queued[id] || p.inflight[id] != nil {
		return
	}
	select {
	case p.queue <- id:
		p.queued[id] = true
	default:
		// full queue: stays dirty and the next tick picks it up
	}
}

func (p *Persister) requeueDirty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.dirty {
		p.enqueueLocked(id)
	}
}

// Pending counts identities waiting for a save.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dirty)
}

// IsDirty reports whether id has unsaved changes.
func (p *Persister) IsDirty(id domain.Identity) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.dirty[id]
	return ok
}

// Unsaved returns a copy of the changes to id that have not reached the
// store yet, after any save in flight has answered. Nil means the store is
// current.
func (p *Persister) Unsaved(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	for {
		p.mu.Lock()
		wait, st := p.inflight[id], p.dirty[id]
		p.mu.Unlock()
		if wait == nil {
			if st == nil {
				return nil, nil
			}
			return st.Snapshot(), nil
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Persister) saveQueued(ctx context.Context, id domain.Identity) {
	p.mu.Lock()
	delete(p.queued, id)
	st := p.dirty[id]
	if st == nil || p.inflight[id] != nil {
		p.mu.Unlock()
		return
	}
	done := p.beginLocked(id)
	p.mu.Unlock()

	err := p.write(ctx, st)
	p.finish(id, st, done, err)
}

// beginLocked claims the in-flight slot for id and clears its dirty mark.
func (p *Persister) beginLocked(id domain.Identity) chan struct{} {
	delete(p.dirty, id)
	DirtyProfiles.Set(float64(len(p.dirty)))
	done := make(chan struct{})
	p.inflight[id] = done
	return done
}

func (p *Persister) finish(id domain.Identity, st *player.State, done chan struct{}, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, id)
	close(done)
	if err != nil {
		if _, again := p.dirty[id]; !again {
			p.dirty[id] = st
		}
		DirtyProfiles.Set(float64(len(p.dirty)))
		return
	}
	if _, again := p.dirty[id]; again {
		p.enqueueLocked(id)
	}
}

func (p *Persister) write(ctx context.Context, st *player.State) error {
	snap := st.Snapshot()
	if snap == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	err := p.store.Save(ctx, snap)
	ProfileSaves.WithLabelValues(result(err)).Inc()
	if err != nil {
		p.log.Error("profile save failed, will retry", "player", st.ID(), "error", err)
	}
	return err
}

// Flush saves st now and waits for the store to answer. A save already in
// flight for the same identity is awaited first.
func (p *Persister) Flush(ctx context.Context, st *player.State) error {
	id := st.ID()
	for {
		p.mu.Lock()
		wait := p.inflight[id]
		if wait == nil {
			done := p.beginLocked(id)
			p.mu.Unlock()
			err := p.write(ctx, st)
			p.finish(id, st, done, err)
			return err
		}
		p.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// FlushAll saves every given state plus every dirty identity in parallel. It
// returns when all saves finish or ctx expires; laggards are logged.
func (p *Persister) FlushAll(ctx context.Context, states []*player.State) error {
	seen := make(map[domain.Identity]*player.State, len(states))
	for _, st := range states {
		seen[st.ID()] = st
	}
	p.mu.Lock()
	for id, st := range p.dirty {
		seen[id] = st
	}
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(p.workers)
	var failed int
	var fmu sync.Mutex
	for _, st := range seen {
		st := st
		g.Go(func() error {
			if err := p.Flush(gctx, st); err != nil {
				fmu.Lock()
				failed++
				fmu.Unlock()
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.log.Warn("shutdown flush abandoned", "pending", p.Pending(), "error", ctx.Err())
		return ctx.Err()
	}
	if failed > 0 {
		p.log.Error("shutdown flush incomplete", "failed", failed, "total", len(seen))
		return errors.New("some profiles were not saved")
	}
	p.log.Info("shutdown flush complete", "saved", len(seen))
	return nil
}
