package service

import (
	"context"
	"time"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/logger"
	"mythic_prison/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service. A nil repo logs entries
// instead of storing them.
func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an entry without blocking the caller.
func (s *AuditService) Log(ctx context.Context, playerID domain.Identity, action, category, actor string, details map[string]interface{}) {
	if s == nil {
		return
	}
	entry := &domain.AuditLog{
		PlayerID: playerID,
		Action:   action,
		Category: category,
		Details:  details,
		Actor:    actor,
	}

	if s.repo == nil {
		logger.Info("audit", "player", playerID, "action", action, "category", category, "actor", actor, "details", details)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.repo.Create(ctx, entry); err != nil {
			logger.Error("failed to create audit log", "error", err, "action", action, "player", playerID)
		}
	}()
}

// LogTransition logs a ladder advancement
func (s *AuditService) LogTransition(ctx context.Context, res *AdvanceResult) {
	s.Log(ctx, res.Player, string(res.Transition), domain.AuditCategoryProgression, "", map[string]interface{}{
		"from":    res.From,
		"to":      res.To,
		"cost":    res.Cost,
		"rewards": res.Rewards,
	})
}

// LogTransfer logs a player-to-player payment
func (s *AuditService) LogTransfer(ctx context.Context, from, to domain.Identity, currency domain.Currency, amount float64) {
	s.Log(ctx, from, domain.AuditActionTransfer, domain.AuditCategoryBalance, "", map[string]interface{}{
		"to":       to,
		"currency": currency,
		"amount":   amount,
	})
}

// LogAdmin logs an administrative override
func (s *AuditService) LogAdmin(ctx context.Context, playerID domain.Identity, action, actor string, details map[string]interface{}) {
	s.Log(ctx, playerID, action, domain.AuditCategoryAdmin, actor, details)
}
