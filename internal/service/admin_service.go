package service

import (
	"context"
	"time"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
)

// AdminService provides admin statistics and overrides. Overrides work on
// offline players too: the record is loaded, changed, saved and released.
type AdminService struct {
	registry    *player.Registry
	persist     *Persister
	sessions    *SessionService
	balances    *BalanceService
	multipliers *MultiplierService
	ladder      *ProgressionService
	audit       *AuditService
	started     time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(registry *player.Registry, persist *Persister, sessions *SessionService, balances *BalanceService, multipliers *MultiplierService, ladder *ProgressionService, audit *AuditService) *AdminService {
	return &AdminService{
		registry:    registry,
		persist:     persist,
		sessions:    sessions,
		balances:    balances,
		multipliers: multipliers,
		ladder:      ladder,
		audit:       audit,
		started:     time.Now(),
	}
}

// Stats represents engine statistics
type Stats struct {
	OnlinePlayers int   `json:"online_players"`
	LoadedRecords int   `json:"loaded_records"`
	PendingSaves  int   `json:"pending_saves"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// GetStats returns engine statistics
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	return &Stats{
		OnlinePlayers: len(s.sessions.Online()),
		LoadedRecords: s.registry.Len(),
		PendingSaves:  s.persist.Pending(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}, nil
}

// GetPlayer returns a detached profile, online or not.
func (s *AdminService) GetPlayer(ctx context.Context, identifier string) (*domain.Profile, error) {
	id, err := domain.ParseIdentity(identifier)
	if err != nil {
		return nil, err
	}
	return s.sessions.Lookup(ctx, id)
}

func (s *AdminService) withTarget(ctx context.Context, id domain.Identity, fn func() error) error {
	release, err := s.sessions.Acquire(ctx, domain.Offline{ID: id})
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// SetBalance overrides one balance
func (s *AdminService) SetBalance(ctx context.Context, id domain.Identity, c domain.Currency, amount float64, actor string) error {
	return s.withTarget(ctx, id, func() error {
		if err := s.balances.SetBalance(ctx, id, c, amount); err != nil {
			return err
		}
		s.audit.LogAdmin(ctx, id, domain.AuditActionAdminSetBalance, actor, map[string]interface{}{
			"currency": c,
			"amount":   amount,
		})
		return nil
	})
}

// AddBalance credits or debits (negative amount) one balance
func (s *AdminService) AddBalance(ctx context.Context, id domain.Identity, c domain.Currency, amount float64, actor string) error {
	return s.withTarget(ctx, id, func() error {
		var err error
		action := domain.AuditActionBalanceCredit
		if amount < 0 {
			action = domain.AuditActionBalanceDebit
			err = s.balances.RemoveBalance(ctx, id, c, -amount)
		} else {
			err = s.balances.AddBalance(ctx, id, c, amount)
		}
		if err != nil {
			return err
		}
		s.audit.LogAdmin(ctx, id, action, actor, map[string]interface{}{
			"currency": c,
			"amount":   amount,
		})
		return nil
	})
}

// SetMultiplier overrides one local multiplier
func (s *AdminService) SetMultiplier(ctx context.Context, id domain.Identity, t domain.BonusType, factor float64, duration time.Duration, actor string) error {
	return s.withTarget(ctx, id, func() error {
		if err := s.multipliers.SetMultiplier(ctx, id, t, factor, duration); err != nil {
			return err
		}
		s.audit.LogAdmin(ctx, id, domain.AuditActionAdminSetMultiplier, actor, map[string]interface{}{
			"type":        t,
			"factor":      factor,
			"duration_ms": duration.Milliseconds(),
		})
		return nil
	})
}

// SetRank sets the rank directly, validated only against the alphabet
func (s *AdminService) SetRank(ctx context.Context, id domain.Identity, rank, actor string) error {
	if _, err := domain.ParseRank(rank); err != nil {
		return err
	}
	return s.withTarget(ctx, id, func() error {
		return s.ladder.SetRank(ctx, id, rank, actor)
	})
}
