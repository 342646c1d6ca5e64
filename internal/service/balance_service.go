package service

import (
	"context"
	"errors"
	"math"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
)

// DefaultMaxPayAmount caps one player-to-player transfer.
const DefaultMaxPayAmount = 1e9

// BalanceService handles all balance operations
type BalanceService struct {
	common
	registry *player.Registry
	changes  DirtyMarker
	audit    *AuditService
	maxPay   float64
}

// NewBalanceService creates a new balance service
func NewBalanceService(registry *player.Registry, changes DirtyMarker, audit *AuditService, maxPay float64, opts ...Option) *BalanceService {
	if maxPay <= 0 {
		maxPay = DefaultMaxPayAmount
	}
	return &BalanceService{
		common:   newCommon("ledger", opts),
		registry: registry,
		changes:  changes,
		audit:    audit,
		maxPay:   maxPay,
	}
}

func (s *BalanceService) checkCurrency(op string, id domain.Identity, c domain.Currency) error {
	if c.Valid() {
		return nil
	}
	s.log.Warn("unknown currency", "op", op, "player", id, "currency", c)
	LedgerOps.WithLabelValues(op, "invalid", "error").Inc()
	return domain.ErrInvalidCurrency
}

// GetBalance returns 0 for unknown players and currencies.
func (s *BalanceService) GetBalance(ctx context.Context, id domain.Identity, c domain.Currency) float64 {
	if !c.Valid() {
		return 0
	}
	var bal float64
	_ = s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		bal = balanceOf(p, c)
		return nil
	})
	return bal
}

// Balances returns a copy of every balance.
func (s *BalanceService) Balances(ctx context.Context, id domain.Identity) (map[domain.Currency]float64, error) {
	out := make(map[domain.Currency]float64)
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		for _, c := range domain.Currencies() {
			out[c] = balanceOf(p, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Has reports whether the balance covers amount.
func (s *BalanceService) Has(ctx context.Context, id domain.Identity, c domain.Currency, amount float64) bool {
	return s.GetBalance(ctx, id, c) >= amount
}

// SetBalance replaces a balance, clamping negatives to 0. The lifetime
// earned counter is left alone.
func (s *BalanceService) SetBalance(ctx context.Context, id domain.Identity, c domain.Currency, amount float64) error {
	if err := s.checkCurrency("set", id, c); err != nil {
		return err
	}
	if math.IsNaN(amount) {
		return domain.ErrInvalidAmount
	}
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		setBalance(p, c, amount)
		return nil
	})
	s.done(id, "set", c, err)
	return err
}

// AddBalance credits amount. Non-positive amounts succeed without effect.
func (s *BalanceService) AddBalance(ctx context.Context, id domain.Identity, c domain.Currency, amount float64) error {
	if err := s.checkCurrency("add", id, c); err != nil {
		return err
	}
	if math.IsNaN(amount) {
		return domain.ErrInvalidAmount
	}
	if amount <= 0 {
		return nil
	}
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		credit(p, c, amount)
		return nil
	})
	s.done(id, "add", c, err)
	return err
}

// RemoveBalance debits amount, failing with *domain.InsufficientFundsError
// and no mutation when the balance is short.
func (s *BalanceService) RemoveBalance(ctx context.Context, id domain.Identity, c domain.Currency, amount float64) error {
	if err := s.checkCurrency("remove", id, c); err != nil {
		return err
	}
	if amount < 0 || !validAmount(amount) {
		return domain.ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		return debit(p, c, amount)
	})
	s.done(id, "remove", c, err)
	return err
}

// Transfer moves amount between two loaded players. Both identity locks are
// held for the whole move, so either both sides change or neither does.
func (s *BalanceService) Transfer(ctx context.Context, from, to domain.Identity, c domain.Currency, amount float64) error {
	if err := s.checkCurrency("transfer", from, c); err != nil {
		return err
	}
	if from == to {
		return domain.ErrSelfTransfer
	}
	if amount <= 0 || !validAmount(amount) {
		return domain.ErrInvalidAmount
	}
	if amount > s.maxPay {
		return domain.ErrAmountTooLarge
	}

	err := s.registry.WithPair(ctx, from, to, func(src, dst *domain.Profile) error {
		if err := debit(src, c, amount); err != nil {
			return err
		}
		// Earned counters track income from play, not payments between players.
		dst.Currencies[c] += amount
		return nil
	})
	LedgerOps.WithLabelValues("transfer", string(c), result(err)).Inc()
	if err != nil {
		return err
	}
	s.changes.MarkDirty(from)
	s.changes.MarkDirty(to)
	s.audit.LogTransfer(ctx, from, to, c, amount)
	return nil
}

func (s *BalanceService) done(id domain.Identity, op string, c domain.Currency, err error) {
	LedgerOps.WithLabelValues(op, string(c), result(err)).Inc()
	if err == nil {
		s.changes.MarkDirty(id)
		return
	}
	var short *domain.InsufficientFundsError
	if !errors.As(err, &short) {
		s.log.Debug("ledger op failed", "op", op, "player", id, "currency", c, "error", err)
	}
}
