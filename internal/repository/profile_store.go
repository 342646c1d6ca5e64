package repository

import (
	"context"
	"errors"

	"mythic_prison/internal/domain"
)

// ErrProfileNotFound is returned by Load when no document exists yet.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists one document per identity. Implementations must be
// safe for concurrent use; Save fully replaces the stored document.
type ProfileStore interface {
	Load(ctx context.Context, id domain.Identity) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
}

// Ranker is implemented by stores that can rank every stored profile, not
// only the ones currently online.
type Ranker interface {
	TopBy(ctx context.Context, currency domain.Currency, limit int) ([]domain.LeaderboardEntry, error)
}
