package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mythic_prison/internal/db"
	"mythic_prison/internal/domain"
)

func sampleProfile() *domain.Profile {
	p := domain.NewProfile(domain.NewIdentity())
	p.Username = "inmate"
	p.LastSeen = 1_700_000_000_000
	p.Currencies[domain.Money] = 12345.67
	p.Currencies[domain.Souls] = 2e6
	p.TotalMoneyEarned = 99999.5
	p.CurrentRank = "Q"
	p.Prestige = 3
	p.Rebirth = 1
	p.Multipliers[domain.BonusType(domain.Money)] = domain.MultiplierEntry{Bonus: 0.6}
	p.Multipliers[domain.BonusExperience] = domain.MultiplierEntry{Bonus: 1, ExpiresAt: 1_800_000_000_000}
	p.Stats.BlocksMined = 4200
	p.Settings.AutoRankup = true
	p.CompletedMilestones = []string{"blocks_1000"}
	return p
}

func storeContract(t *testing.T, store ProfileStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, domain.NewIdentity())
	require.ErrorIs(t, err, ErrProfileNotFound)

	p := sampleProfile()
	require.NoError(t, store.Save(ctx, p))

	got, err := store.Load(ctx, p.UUID)
	require.NoError(t, err)
	require.Equal(t, p, got)

	p.Currencies[domain.Money] = 1
	p.Prestige = 4
	require.NoError(t, store.Save(ctx, p))
	got, err = store.Load(ctx, p.UUID)
	require.NoError(t, err)
	require.Equal(t, 1.0, got.Currencies[domain.Money])
	require.EqualValues(t, 4, got.Prestige)

	if ranker, ok := store.(Ranker); ok {
		rich := sampleProfile()
		rich.Currencies[domain.Money] = 1e12
		require.NoError(t, store.Save(ctx, rich))

		top, err := ranker.TopBy(ctx, domain.Money, 1)
		require.NoError(t, err)
		require.Len(t, top, 1)
		require.Equal(t, rich.UUID, top[0].UUID)
		require.Equal(t, 1e12, top[0].Value)

		_, err = ranker.TopBy(ctx, domain.Currency("dust"), 1)
		require.ErrorIs(t, err, domain.ErrInvalidCurrency)
	}
}

func TestMemoryProfileStore(t *testing.T) {
	storeContract(t, NewMemoryProfileStore())
}

func TestSQLiteProfileStore(t *testing.T) {
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	store, err := NewSQLiteProfileStore(sqlDB)
	require.NoError(t, err)
	storeContract(t, store)
}

func TestMemoryStoreDetachesDocuments(t *testing.T) {
	store := NewMemoryProfileStore()
	p := sampleProfile()
	require.NoError(t, store.Save(context.Background(), p))

	p.Currencies[domain.Money] = -1
	got, err := store.Load(context.Background(), p.UUID)
	require.NoError(t, err)
	require.Equal(t, 12345.67, got.Currencies[domain.Money])
}

func TestSortLeaderboard(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{UUID: "b", Value: 1},
		{UUID: "a", Value: 1},
		{UUID: "c", Value: 5},
	}
	SortLeaderboard(entries)
	require.Equal(t, domain.Identity("c"), entries[0].UUID)
	require.Equal(t, domain.Identity("a"), entries[1].UUID)
	require.Equal(t, domain.Identity("b"), entries[2].UUID)
}
