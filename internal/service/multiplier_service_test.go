package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mythic_prison/internal/domain"
)

var moneyBonus = domain.BonusType(domain.Money)

func TestLocalMultiplierDefaults(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)

	require.Equal(t, 1.0, e.mults.GetLocalMultiplier(e.ctx, id, moneyBonus))
	require.Equal(t, 1.0, e.mults.GetEffectiveMultiplier(e.ctx, id, moneyBonus))
	require.Equal(t, 1.0, e.mults.GetLocalMultiplier(e.ctx, id, "bogus"))
	require.ErrorIs(t, e.mults.SetMultiplier(e.ctx, id, "bogus", 2, 0), domain.ErrInvalidBonusType)
}

func TestEffectiveMultiplierAtPrestigeThree(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) { p.Prestige = 3 })

	require.InDelta(t, 1.3, e.mults.GetEffectiveMultiplier(e.ctx, id, moneyBonus), 1e-9)
	require.InDelta(t, 1.15, e.mults.GetEffectiveMultiplier(e.ctx, id, domain.BonusType(domain.Tokens)), 1e-9)
	require.InDelta(t, 1.06, e.mults.GetEffectiveMultiplier(e.ctx, id, domain.BonusType(domain.Souls)), 1e-9)
	require.Equal(t, 1.0, e.mults.GetEffectiveMultiplier(e.ctx, id, domain.BonusType(domain.Gems)))
}

func TestUniversalAppliesToCurrencyTypesOnly(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, domain.BonusUniversal, 2, 0))
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 1.5, 0))

	require.InDelta(t, 3.0, e.mults.GetEffectiveMultiplier(e.ctx, id, moneyBonus), 1e-9)
	require.InDelta(t, 2.0, e.mults.GetEffectiveMultiplier(e.ctx, id, domain.BonusExperience), 1e-9)
	require.Equal(t, 1.0, e.mults.GetEffectiveMultiplier(e.ctx, id, domain.BonusEnchant))
	require.Equal(t, 1.0, e.mults.GetEffectiveMultiplier(e.ctx, id, domain.BonusType(domain.AscensionPoints)))
}

func TestMultiplierExpiry(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 2, time.Minute))

	left, ok := e.mults.TimeLeft(e.ctx, id, moneyBonus)
	require.True(t, ok)
	require.Equal(t, time.Minute, left)
	require.Equal(t, 2.0, e.mults.GetLocalMultiplier(e.ctx, id, moneyBonus))

	e.clock.Advance(time.Minute)
	require.Equal(t, 1.0, e.mults.GetLocalMultiplier(e.ctx, id, moneyBonus))
	_, stored := e.profile(t, id).Multipliers[moneyBonus]
	require.False(t, stored)
}

func TestSetMultiplierPermanentClearsExpiry(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 2, time.Minute))
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 1.25, 0))

	_, ok := e.mults.TimeLeft(e.ctx, id, moneyBonus)
	require.False(t, ok)
	e.clock.Advance(time.Hour)
	require.Equal(t, 1.25, e.mults.GetLocalMultiplier(e.ctx, id, moneyBonus))
}

func TestAddMultiplierLatestDurationWins(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)

	f, err := e.mults.AddMultiplier(e.ctx, id, moneyBonus, 0.5, 10*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1.5, f)

	f, err = e.mults.AddMultiplier(e.ctx, id, moneyBonus, 0.5, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2.0, f)

	left, ok := e.mults.TimeLeft(e.ctx, id, moneyBonus)
	require.True(t, ok)
	require.Equal(t, time.Minute, left)
}

func TestSetMultiplierClampsBelowOne(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 0.2, 0))
	require.Equal(t, 1.0, e.mults.GetLocalMultiplier(e.ctx, id, moneyBonus))
	require.Zero(t, e.profile(t, id).Multipliers[moneyBonus].Bonus)
}

func TestRemoveMultiplier(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 3, 0))
	require.NoError(t, e.mults.RemoveMultiplier(e.ctx, id, moneyBonus))
	require.Equal(t, 1.0, e.mults.GetLocalMultiplier(e.ctx, id, moneyBonus))
}

func TestBreakdownLayers(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) {
		p.Prestige = 2
		p.Rebirth = 4
		p.Ascension = 1
	})
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, moneyBonus, 1.5, 0))
	require.NoError(t, e.mults.SetMultiplier(e.ctx, id, domain.BonusUniversal, 1.1, 0))

	b, err := e.mults.Breakdown(e.ctx, id, moneyBonus)
	require.NoError(t, err)
	require.Equal(t, 1.5, b.Local)
	require.InDelta(t, 1.2, b.Prestige, 1e-9)
	require.Equal(t, 1.0, b.Rebirth)
	require.Equal(t, 1.0, b.Ascension)
	require.InDelta(t, 1.1, b.Universal, 1e-9)
	require.InDelta(t, 1.5*1.2*1.1, b.Effective, 1e-9)
}

func TestSweepPurgesExpired(t *testing.T) {
	e := newEnv(t)
	a, b := e.join(t), e.join(t)
	require.NoError(t, e.mults.SetMultiplier(e.ctx, a, moneyBonus, 2, time.Second))
	require.NoError(t, e.mults.SetMultiplier(e.ctx, b, domain.BonusExperience, 2, time.Second))
	require.NoError(t, e.mults.SetMultiplier(e.ctx, b, domain.BonusEnchant, 2, 0))

	e.clock.Advance(2 * time.Second)
	require.Equal(t, 2, e.mults.Sweep(e.ctx))
	require.Empty(t, e.profile(t, a).Multipliers)
	require.Len(t, e.profile(t, b).Multipliers, 1)
}

func TestAllMultipliers(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) { p.Prestige = 1 })

	all, err := e.mults.All(e.ctx, id)
	require.NoError(t, err)
	require.InDelta(t, 1.1, all[moneyBonus], 1e-9)
	_, hasGems := all[domain.BonusType(domain.Gems)]
	require.False(t, hasGems)
}
