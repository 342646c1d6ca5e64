package repository

import (
	"context"
	"errors"
	"time"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// CachedProfileStore fronts another store with Redis: read-through on Load,
// write-through on Save. Redis failures are logged and bypassed.
type CachedProfileStore struct {
	inner  ProfileStore
	client *redis.Client
	ttl    time.Duration
}

func NewCachedProfileStore(inner ProfileStore, client *redis.Client, ttl time.Duration) *CachedProfileStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedProfileStore{inner: inner, client: client, ttl: ttl}
}

func profileKey(id domain.Identity) string {
	return "profile:" + string(id)
}

func (r *CachedProfileStore) Load(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	b, err := r.client.Get(ctx, profileKey(id)).Bytes()
	switch {
	case err == nil:
		if p, derr := domain.UnmarshalProfile(b); derr == nil {
			return p, nil
		}
		r.client.Del(ctx, profileKey(id))
	case !errors.Is(err, redis.Nil):
		logger.Warn("profile cache read failed", "player", id, "error", err)
	}

	p, err := r.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	r.put(ctx, p)
	return p, nil
}

func (r *CachedProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	if err := r.inner.Save(ctx, p); err != nil {
		// The cache must never hold a document the backing store rejected.
		r.client.Del(ctx, profileKey(p.UUID))
		return err
	}
	r.put(ctx, p)
	return nil
}

// TopBy delegates to the backing store when it can rank.
func (r *CachedProfileStore) TopBy(ctx context.Context, currency domain.Currency, limit int) ([]domain.LeaderboardEntry, error) {
	ranker, ok := r.inner.(Ranker)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	return ranker.TopBy(ctx, currency, limit)
}

func (r *CachedProfileStore) put(ctx context.Context, p *domain.Profile) {
	b, err := domain.MarshalProfile(p)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, profileKey(p.UUID), b, r.ttl).Err(); err != nil {
		logger.Warn("profile cache write failed", "player", p.UUID, "error", err)
	}
}
