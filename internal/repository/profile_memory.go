package repository

import (
	"context"
	"sort"
	"sync"

	"mythic_prison/internal/domain"
)

// MemoryProfileStore keeps encoded documents in process memory. Documents are
// stored encoded so callers never share maps with the store.
type MemoryProfileStore struct {
	mu   sync.RWMutex
	docs map[domain.Identity][]byte
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{docs: make(map[domain.Identity][]byte)}
}

func (r *MemoryProfileStore) Load(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProfileNotFound
	}
	return domain.UnmarshalProfile(doc)
}

func (r *MemoryProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := domain.MarshalProfile(p)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.docs[p.UUID] = doc
	r.mu.Unlock()
	return nil
}

// Len counts stored documents.
func (r *MemoryProfileStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *MemoryProfileStore) TopBy(ctx context.Context, currency domain.Currency, limit int) ([]domain.LeaderboardEntry, error) {
	if !currency.Valid() {
		return nil, domain.ErrInvalidCurrency
	}
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	out := make([]domain.LeaderboardEntry, 0, len(r.docs))
	for _, doc := range r.docs {
		p, err := domain.UnmarshalProfile(doc)
		if err != nil {
			continue
		}
		out = append(out, domain.LeaderboardEntry{UUID: p.UUID, Username: p.Username, Value: p.Currencies[currency]})
	}
	r.mu.RUnlock()

	SortLeaderboard(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SortLeaderboard orders by value descending, then identity.
func SortLeaderboard(entries []domain.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UUID < entries[j].UUID
	})
}
