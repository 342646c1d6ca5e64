package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/numfmt"
	"mythic_prison/internal/player"
	"mythic_prison/internal/repository"
)

// SessionService ties live sessions to registry records: load on join, final
// save and eviction on leave.
type SessionService struct {
	common
	registry *player.Registry
	store    repository.ProfileStore
	persist  *Persister
	changes  DirtyMarker
	audit    *AuditService

	loadTimeout time.Duration
	loads       singleflight.Group

	mu      sync.Mutex
	leaving map[domain.Identity]*pendingLeave
}

// pendingLeave is closed once every concurrent evict-and-save of an identity
// has finished.
type pendingLeave struct {
	n    int
	done chan struct{}
}

func NewSessionService(registry *player.Registry, store repository.ProfileStore, persist *Persister, changes DirtyMarker, audit *AuditService, loadTimeout time.Duration, opts ...Option) *SessionService {
	if loadTimeout <= 0 {
		loadTimeout = 5 * time.Second
	}
	return &SessionService{
		common:      newCommon("sessions", opts),
		registry:    registry,
		store:       store,
		persist:     persist,
		changes:     changes,
		audit:       audit,
		loadTimeout: loadTimeout,
		leaving:     make(map[domain.Identity]*pendingLeave),
	}
}

type loadStatus int

const (
	loadFound loadStatus = iota
	loadNew
	loadFailed
)

type fetched struct {
	profile   *domain.Profile
	status    loadStatus
	err       error
	recovered bool // taken from unsaved memory, not the store
}

// fetch reads id from the store once per burst of concurrent callers. The
// shared result must be cloned before use.
func (s *SessionService) fetch(ctx context.Context, id domain.Identity) fetched {
	v, _, _ := s.loads.Do(string(id), func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		p, err := s.store.Load(lctx, id)
		switch {
		case err == nil:
			p.UUID = id
			p.Normalize(millis(s.now()))
			ProfileLoads.WithLabelValues("ok").Inc()
			return fetched{profile: p, status: loadFound}, nil
		case errors.Is(err, repository.ErrProfileNotFound):
			ProfileLoads.WithLabelValues("new").Inc()
			return fetched{profile: domain.NewProfile(id), status: loadNew}, nil
		default:
			ProfileLoads.WithLabelValues("fallback").Inc()
			return fetched{profile: domain.NewProfile(id), status: loadFailed, err: err}, nil
		}
	})
	f := v.(fetched)
	f.profile = f.profile.Clone()
	return f
}

// beginLeave must be called before the record can leave the registry, and
// the returned func after its final save returned.
func (s *SessionService) beginLeave(id domain.Identity) func() {
	s.mu.Lock()
	pl := s.leaving[id]
	if pl == nil {
		pl = &pendingLeave{done: make(chan struct{})}
		s.leaving[id] = pl
	}
	pl.n++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		pl.n--
		if pl.n == 0 {
			delete(s.leaving, id)
			close(pl.done)
		}
		s.mu.Unlock()
	}
}

// awaitLeave blocks while a previous record of id is still being saved, so
// a new load never reads a stale document.
func (s *SessionService) awaitLeave(ctx context.Context, id domain.Identity) error {
	s.mu.Lock()
	pl := s.leaving[id]
	s.mu.Unlock()
	if pl == nil {
		return nil
	}
	select {
	case <-pl.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hydrate loads a freshly registered record. Changes of an evicted record
// that are still waiting for a save win over the stored document. On error
// the record has been discarded.
func (s *SessionService) hydrate(ctx context.Context, st *player.State) (fetched, error) {
	id := st.ID()
	err := s.awaitLeave(ctx, id)
	var pending *domain.Profile
	if err == nil {
		wctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
		pending, err = s.persist.Unsaved(wctx, id)
		cancel()
	}
	if err != nil {
		s.registry.Discard(st)
		st.Hydrate(nil)
		return fetched{}, err
	}
	if pending != nil {
		s.log.Info("resuming unsaved profile", "player", id)
		ProfileLoads.WithLabelValues("unsaved").Inc()
		return fetched{profile: pending, status: loadFound, recovered: true}, nil
	}
	return s.fetch(ctx, id), nil
}

// Join registers a live session. The profile is loaded before any operation
// on the identity can run; a failed or slow load starts the player from a
// fresh profile.
func (s *SessionService) Join(ctx context.Context, o domain.Online) error {
	id := o.ID
	if id == "" {
		return domain.ErrInvalidIdentity
	}

	for attempt := 0; attempt < 3; attempt++ {
		st, created := s.registry.Register(id)
		if created {
			f, err := s.hydrate(ctx, st)
			if err != nil {
				return err
			}
			if f.status == loadFailed {
				s.log.Error("profile load failed, starting fresh", "player", id, "error", f.err)
			}
			st.Hydrate(f.profile)
			if f.recovered {
				s.persist.MarkDirty(id)
			}
		} else if err := st.Wait(ctx); err != nil {
			return err
		}

		now := s.now()
		var fresh bool
		err := s.registry.With(ctx, id, func(p *domain.Profile, sess player.Session) error {
			if !sess.Online() {
				sess.MarkOnline(now)
				fresh = true
			}
			if o.Username != "" {
				p.Username = o.Username
			}
			p.LastSeen = millis(now)
			return nil
		})
		if errors.Is(err, domain.ErrPlayerNotLoaded) {
			// raced with the release of a transient record
			continue
		}
		if err != nil {
			return err
		}
		if fresh {
			OnlinePlayers.Inc()
		}
		s.changes.MarkDirty(id)
		s.audit.Log(ctx, id, domain.AuditActionJoin, domain.AuditCategorySession, "", map[string]interface{}{"username": o.Username})
		return nil
	}
	return domain.ErrPlayerNotLoaded
}

// Leave ends the session, waits for the final save and evicts the record
// unless an offline holder still uses it.
func (s *SessionService) Leave(ctx context.Context, id domain.Identity) error {
	st, ok := s.registry.Get(id)
	if !ok {
		return domain.ErrPlayerNotLoaded
	}
	defer s.beginLeave(id)()

	now := s.now()
	var wasOnline bool
	err := s.registry.With(ctx, id, func(p *domain.Profile, sess player.Session) error {
		wasOnline = sess.Online()
		played := sess.MarkOffline(now)
		p.Stats.TotalPlaytime += played.Milliseconds()
		p.LastSeen = millis(now)
		return nil
	})
	if err != nil {
		return err
	}
	if wasOnline {
		OnlinePlayers.Dec()
	}

	_, evicted := s.registry.EvictIf(id, player.Session.Idle)
	// watchers see the player go offline
	s.changes.MarkDirty(id)
	if err := s.persist.Flush(ctx, st); err != nil {
		s.log.Error("final save failed, kept for retry", "player", id, "evicted", evicted, "error", err)
		return err
	}
	s.audit.Log(ctx, id, domain.AuditActionLeave, domain.AuditCategorySession, "", nil)
	return nil
}

// Release undoes an Acquire.
type Release func()

// Acquire resolves a target to a loaded record. Online targets must already
// have joined. Offline targets are loaded on demand and pinned until the
// returned Release runs; the last release of a record with no live session
// saves and evicts it.
func (s *SessionService) Acquire(ctx context.Context, target domain.Target) (Release, error) {
	switch t := target.(type) {
	case domain.Online:
		st, ok := s.registry.Get(t.ID)
		if !ok || !st.Online() {
			return nil, domain.ErrPlayerNotLoaded
		}
		return func() {}, nil
	case domain.Offline:
		return s.acquireOffline(ctx, t.ID)
	}
	return nil, domain.ErrInvalidIdentity
}

func (s *SessionService) acquireOffline(ctx context.Context, id domain.Identity) (Release, error) {
	if id == "" {
		return nil, domain.ErrInvalidIdentity
	}
	for attempt := 0; attempt < 3; attempt++ {
		st, created := s.registry.Register(id)
		if created {
			f, err := s.hydrate(ctx, st)
			if err != nil {
				return nil, err
			}
			if f.status == loadFailed {
				// Saving a fresh profile here would overwrite the stored one.
				s.registry.Discard(st)
				st.Hydrate(nil)
				s.log.Warn("offline load failed", "player", id, "error", f.err)
				return nil, domain.ErrStoreUnavailable
			}
			st.Hydrate(f.profile)
			if f.recovered {
				s.persist.MarkDirty(id)
			}
		}

		err := s.registry.With(ctx, id, func(_ *domain.Profile, sess player.Session) error {
			sess.Hold()
			return nil
		})
		if errors.Is(err, domain.ErrPlayerNotLoaded) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var once sync.Once
		return func() {
			once.Do(func() { s.release(id, st) })
		}, nil
	}
	return nil, domain.ErrPlayerNotLoaded
}

func (s *SessionService) release(id domain.Identity, st *player.State) {
	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()

	_ = s.registry.With(ctx, id, func(_ *domain.Profile, sess player.Session) error {
		sess.Release()
		return nil
	})
	defer s.beginLeave(id)()
	if _, evicted := s.registry.EvictIf(id, player.Session.Idle); !evicted {
		return
	}
	if err := s.persist.Flush(ctx, st); err != nil {
		s.log.Error("offline save failed, kept for retry", "player", id, "error", err)
	}
}

// Lookup returns a detached copy of a profile, loaded or not. It never
// registers the identity.
func (s *SessionService) Lookup(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	if st, ok := s.registry.Get(id); ok {
		if err := st.Wait(ctx); err != nil {
			return nil, err
		}
		if snap := st.Snapshot(); snap != nil {
			return snap, nil
		}
	}
	f := s.fetch(ctx, id)
	switch f.status {
	case loadFailed:
		return nil, domain.ErrStoreUnavailable
	case loadNew:
		return nil, repository.ErrProfileNotFound
	}
	return f.profile, nil
}

// IsOnline reports whether id has a live session.
func (s *SessionService) IsOnline(id domain.Identity) bool {
	st, ok := s.registry.Get(id)
	return ok && st.Online()
}

// Online lists identities with a live session.
func (s *SessionService) Online() []domain.Identity {
	var out []domain.Identity
	s.registry.Range(func(st *player.State) bool {
		if st.Online() {
			out = append(out, st.ID())
		}
		return true
	})
	return out
}

// PlayerStats is the read-only view milestone checks and displays consume.
type PlayerStats struct {
	BlocksMined  int64   `json:"blocks_mined"`
	MoneyEarned  float64 `json:"money_earned"`
	RankNumeric  int     `json:"rank_numeric"`
	Prestige     int64   `json:"prestige"`
	Rebirth      int64   `json:"rebirth"`
	Ascension    int64   `json:"ascension"`
	Playtime     int64   `json:"playtime_ms"`
	CommandsUsed int64   `json:"commands_used"`
}

// Stats reads the counters of a loaded player. Playtime includes the
// current session.
func (s *SessionService) Stats(ctx context.Context, id domain.Identity) (PlayerStats, error) {
	var out PlayerStats
	now := s.now()
	err := s.registry.With(ctx, id, func(p *domain.Profile, sess player.Session) error {
		out = PlayerStats{
			BlocksMined:  p.Stats.BlocksMined,
			MoneyEarned:  p.TotalMoneyEarned,
			RankNumeric:  p.Progression().Rank + 1,
			Prestige:     p.Prestige,
			Rebirth:      p.Rebirth,
			Ascension:    p.Ascension,
			Playtime:     p.Stats.TotalPlaytime,
			CommandsUsed: p.Stats.CommandsUsed,
		}
		if sess.Online() {
			out.Playtime += now.Sub(sess.JoinedAt()).Milliseconds()
		}
		return nil
	})
	return out, err
}

// RecordCommand bumps the commands-used counter.
func (s *SessionService) RecordCommand(ctx context.Context, id domain.Identity) {
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		p.Stats.CommandsUsed++
		return nil
	})
	if err == nil {
		s.changes.MarkDirty(id)
	}
}

// Top ranks online players by one balance.
func (s *SessionService) Top(ctx context.Context, c domain.Currency, n int) ([]domain.LeaderboardEntry, error) {
	if !c.Valid() {
		return nil, domain.ErrInvalidCurrency
	}
	if n <= 0 {
		n = 10
	}
	var out []domain.LeaderboardEntry
	s.registry.Range(func(st *player.State) bool {
		if !st.Online() {
			return true
		}
		snap := st.Snapshot()
		if snap == nil {
			return true
		}
		out = append(out, domain.LeaderboardEntry{UUID: snap.UUID, Username: snap.Username, Value: snap.Currencies[c]})
		return ctx.Err() == nil
	})
	repository.SortLeaderboard(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Scoreboard builds the display view for a loaded player.
func (s *SessionService) Scoreboard(ctx context.Context, id domain.Identity) (*domain.Scoreboard, error) {
	var out *domain.Scoreboard
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		prog := p.Progression()
		mult, _ := effective(p, domain.BonusType(domain.Money), millis(s.now()))
		sb := &domain.Scoreboard{
			UUID:       p.UUID,
			Username:   p.Username,
			Rank:       prog.RankSymbol(),
			Prestige:   prog.Prestige,
			Rebirth:    prog.Rebirth,
			Ascension:  prog.Ascension,
			Balances:   make(map[domain.Currency]string),
			Raw:        make(map[domain.Currency]float64),
			Multiplier: mult,
		}
		for _, c := range domain.Currencies() {
			sb.Raw[c] = p.Currencies[c]
			sb.Balances[c] = numfmt.Currency(c, p.Currencies[c])
		}
		tr := domain.TransitionRankup
		if prog.Rank >= domain.MaxRank {
			tr = domain.TransitionPrestige
		}
		cost := Cost(tr, prog)
		sb.NextCost = numfmt.Money(cost)
		if cost > 0 {
			sb.Progress = min(p.Currencies[domain.Money]/cost, 1)
		}
		out = sb
		return nil
	})
	return out, err
}

// Shutdown closes every live session and flushes all records within ctx.
func (s *SessionService) Shutdown(ctx context.Context) error {
	now := s.now()
	var states []*player.State
	s.registry.Range(func(st *player.State) bool {
		states = append(states, st)
		return true
	})
	for _, st := range states {
		_ = s.registry.With(ctx, st.ID(), func(p *domain.Profile, sess player.Session) error {
			if sess.Online() {
				p.Stats.TotalPlaytime += sess.MarkOffline(now).Milliseconds()
				p.LastSeen = millis(now)
				OnlinePlayers.Dec()
			}
			return nil
		})
	}
	return s.persist.FlushAll(ctx, states)
}
