package service

import (
	"context"
	"math"
	"time"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
)

// MultiplierService owns the per-player local multiplier entries and
// composes them with the ladder-derived factors. The API speaks in factors
// (1.0 means no bonus).
type MultiplierService struct {
	common
	registry *player.Registry
	changes  DirtyMarker
}

func NewMultiplierService(registry *player.Registry, changes DirtyMarker, opts ...Option) *MultiplierService {
	return &MultiplierService{
		common:   newCommon("multipliers", opts),
		registry: registry,
		changes:  changes,
	}
}

func (s *MultiplierService) checkType(op string, id domain.Identity, t domain.BonusType) error {
	if t.Valid() {
		return nil
	}
	s.log.Warn("unknown bonus type", "op", op, "player", id, "type", t)
	return domain.ErrInvalidBonusType
}

// read runs fn under the identity lock and saves if fn purged anything.
func (s *MultiplierService) read(ctx context.Context, id domain.Identity, fn func(p *domain.Profile, nowMs int64) bool) error {
	var purged bool
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		purged = fn(p, millis(s.now()))
		return nil
	})
	if err == nil && purged {
		s.changes.MarkDirty(id)
	}
	return err
}

// GetLocalMultiplier returns the stored factor for t, 1.0 when absent,
// expired or unknown.
func (s *MultiplierService) GetLocalMultiplier(ctx context.Context, id domain.Identity, t domain.BonusType) float64 {
	if !t.Valid() {
		return 1
	}
	f := 1.0
	_ = s.read(ctx, id, func(p *domain.Profile, nowMs int64) bool {
		var purged bool
		f, purged = localFactor(p, t, nowMs)
		return purged
	})
	return f
}

// GetEffectiveMultiplier multiplies the local, prestige, rebirth, ascension
// and (for currency types) universal factors.
func (s *MultiplierService) GetEffectiveMultiplier(ctx context.Context, id domain.Identity, t domain.BonusType) float64 {
	if !t.Valid() {
		return 1
	}
	f := 1.0
	_ = s.read(ctx, id, func(p *domain.Profile, nowMs int64) bool {
		var purged bool
		f, purged = effective(p, t, nowMs)
		return purged
	})
	return f
}

// Breakdown returns every factor behind GetEffectiveMultiplier.
func (s *MultiplierService) Breakdown(ctx context.Context, id domain.Identity, t domain.BonusType) (Breakdown, error) {
	if err := s.checkType("breakdown", id, t); err != nil {
		return Breakdown{}, err
	}
	var b Breakdown
	err := s.read(ctx, id, func(p *domain.Profile, nowMs int64) bool {
		var purged bool
		b, purged = breakdown(p, t, nowMs)
		return purged
	})
	return b, err
}

// All returns the effective factor for every type above 1.0.
func (s *MultiplierService) All(ctx context.Context, id domain.Identity) (map[domain.BonusType]float64, error) {
	out := make(map[domain.BonusType]float64)
	err := s.read(ctx, id, func(p *domain.Profile, nowMs int64) bool {
		purged := purgeExpired(p, nowMs) > 0
		for _, t := range domain.BonusTypes() {
			if f, _ := effective(p, t, nowMs); f > 1 {
				out[t] = f
			}
		}
		return purged
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetMultiplier stores factor for t. A duration <= 0 makes it permanent and
// clears any previous expiry.
func (s *MultiplierService) SetMultiplier(ctx context.Context, id domain.Identity, t domain.BonusType, factor float64, duration time.Duration) error {
	if err := s.checkType("set", id, t); err != nil {
		return err
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return domain.ErrInvalidAmount
	}
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		setLocal(p, t, factor, duration.Milliseconds(), millis(s.now()))
		return nil
	})
	if err == nil {
		s.changes.MarkDirty(id)
	}
	return err
}

// AddMultiplier adds delta to the current local factor and re-sets it with
// duration. The latest duration wins; durations are not cumulative.
func (s *MultiplierService) AddMultiplier(ctx context.Context, id domain.Identity, t domain.BonusType, delta float64, duration time.Duration) (float64, error) {
	if err := s.checkType("add", id, t); err != nil {
		return 1, err
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 1, domain.ErrInvalidAmount
	}
	var f float64
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		f = addLocal(p, t, delta, duration.Milliseconds(), millis(s.now()))
		return nil
	})
	if err != nil {
		return 1, err
	}
	s.changes.MarkDirty(id)
	return f, nil
}

// RemoveMultiplier drops the local entry for t.
func (s *MultiplierService) RemoveMultiplier(ctx context.Context, id domain.Identity, t domain.BonusType) error {
	if err := s.checkType("remove", id, t); err != nil {
		return err
	}
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		delete(p.Multipliers, t)
		return nil
	})
	if err == nil {
		s.changes.MarkDirty(id)
	}
	return err
}

// TimeLeft returns the remaining lifetime of a timed entry. ok is false for
// permanent or absent entries.
func (s *MultiplierService) TimeLeft(ctx context.Context, id domain.Identity, t domain.BonusType) (left time.Duration, ok bool) {
	if !t.Valid() {
		return 0, false
	}
	_ = s.read(ctx, id, func(p *domain.Profile, nowMs int64) bool {
		if _, purged := localFactor(p, t, nowMs); purged {
			return true
		}
		e, found := p.Multipliers[t]
		if !found || e.ExpiresAt == 0 {
			return false
		}
		left = time.Duration(e.ExpiresAt-nowMs) * time.Millisecond
		ok = true
		return false
	})
	return left, ok
}

// Sweep purges expired entries for every registered player.
func (s *MultiplierService) Sweep(ctx context.Context) int {
	total := 0
	s.registry.Range(func(st *player.State) bool {
		select {
		case <-st.Ready():
		default:
			return true
		}
		var n int
		err := s.registry.With(ctx, st.ID(), func(p *domain.Profile, _ player.Session) error {
			n = purgeExpired(p, millis(s.now()))
			return nil
		})
		if err == nil && n > 0 {
			total += n
			s.changes.MarkDirty(st.ID())
		}
		return ctx.Err() == nil
	})
	return total
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MultiplierService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(ctx); n > 0 {
					s.log.Debug("expired multipliers purged", "count", n)
				}
			}
		}
	}()
}
