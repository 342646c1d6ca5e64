package service

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"mythic_prison/internal/domain"
)

func TestCostFormulas(t *testing.T) {
	require.Equal(t, 1000.0, RankupCost(0))
	require.Equal(t, 7593.75, RankupCost(5))
	require.InDelta(t, 1000*math.Pow(1.5, 25), RankZCost, 1e-6)

	require.InDelta(t, RankZCost*10, PrestigeCost(0), 1e-6)
	require.InDelta(t, RankZCost*10*1.8*1.8, PrestigeCost(2), 1e-3)
	require.InDelta(t, RankZCost*1000, RebirthCost(0), 1e-3)
	require.InDelta(t, RankZCost*1000*2.5, RebirthCost(1), 1e-3)
	require.InDelta(t, RankZCost*1e6, AscensionCost(0), 1)
	require.InDelta(t, RankZCost*1e6*9, AscensionCost(2), 10)

	s := domain.Progression{Rank: 5, Prestige: 1}
	require.Equal(t, RankupCost(5), Cost(domain.TransitionRankup, s))
	require.Equal(t, PrestigeCost(1), Cost(domain.TransitionPrestige, s))
}

func TestRankupSpendsCost(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 1200))

	res, err := e.ladder.Rankup(e.ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, res.To.Rank)
	require.Equal(t, 1000.0, res.Cost)
	require.Equal(t, 200.0, e.balances.GetBalance(e.ctx, id, domain.Money))
	require.Equal(t, "B", e.profile(t, id).CurrentRank)
}

func TestRankupRefusals(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 999))

	_, err := e.ladder.Rankup(e.ctx, id)
	var inel *domain.IneligibleError
	require.True(t, errors.As(err, &inel))
	require.Equal(t, domain.ReasonInsufficientFunds, inel.Reason)
	require.Equal(t, 1000.0, inel.Cost)
	require.Equal(t, 999.0, e.balances.GetBalance(e.ctx, id, domain.Money))

	e.edit(t, id, func(p *domain.Profile) {
		p.CurrentRank = "Z"
		p.Currencies[domain.Money] = math.MaxFloat64
	})
	_, err = e.ladder.Rankup(e.ctx, id)
	require.True(t, errors.As(err, &inel))
	require.Equal(t, domain.ReasonRankMaxed, inel.Reason)
}

func TestPrestigeFromZ(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	const start = 1e20
	e.edit(t, id, func(p *domain.Profile) {
		p.CurrentRank = "Z"
		p.Prestige = 2
		p.Currencies[domain.Money] = start
		p.Currencies[domain.Souls] = 5
	})
	cost := PrestigeCost(2)

	res, err := e.ladder.Prestige(e.ctx, id)
	require.NoError(t, err)

	p := e.profile(t, id)
	require.Equal(t, "A", p.CurrentRank)
	require.EqualValues(t, 3, p.Prestige)
	require.Equal(t, 5+1_000_000*4.0, p.Currencies[domain.Souls])
	require.Equal(t, start-cost, p.Currencies[domain.Money])
	require.Equal(t, domain.MultiplierEntry{Bonus: 0.1}, p.Multipliers[moneyBonus])
	require.Equal(t, 4_000_000.0, res.Rewards[domain.Souls])
}

func TestPrestigeNeedsRankZ(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) {
		p.CurrentRank = "Y"
		p.Currencies[domain.Money] = 1e30
	})

	_, err := e.ladder.Prestige(e.ctx, id)
	var inel *domain.IneligibleError
	require.True(t, errors.As(err, &inel))
	require.Equal(t, domain.ReasonRankNotMaxed, inel.Reason)
}

func TestRebirthRefusedAtPrestigeNine(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) {
		p.Prestige = 9
		p.Currencies[domain.Money] = 1e40
	})
	before := e.profile(t, id)

	_, err := e.ladder.Rebirth(e.ctx, id)
	require.ErrorIs(t, err, domain.ErrIneligible)
	var inel *domain.IneligibleError
	require.True(t, errors.As(err, &inel))
	require.Equal(t, domain.ReasonThresholdNotMet, inel.Reason)
	require.EqualValues(t, 9, inel.Have)
	require.EqualValues(t, 10, inel.Need)

	require.Equal(t, before, e.profile(t, id))
}

func TestRebirthEffects(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) {
		p.CurrentRank = "K"
		p.Prestige = 12
		p.Rebirth = 1
		p.Currencies[domain.Money] = 1e40
		p.Currencies[domain.Tokens] = 77
		p.Multipliers[moneyBonus] = domain.MultiplierEntry{Bonus: 1.2}
	})

	_, err := e.ladder.Rebirth(e.ctx, id)
	require.NoError(t, err)

	p := e.profile(t, id)
	require.Equal(t, "A", p.CurrentRank)
	require.Zero(t, p.Prestige)
	require.EqualValues(t, 2, p.Rebirth)
	require.Equal(t, 3e7, p.Currencies[domain.Beacons])
	require.Equal(t, 77.0, p.Currencies[domain.Tokens])
	require.InDelta(t, 1.7, p.Multipliers[moneyBonus].Bonus, 1e-9)
	require.InDelta(t, 0.25, p.Multipliers[domain.BonusType(domain.Souls)].Bonus, 1e-9)
}

func TestAscensionEffects(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) {
		p.CurrentRank = "C"
		p.Prestige = 4
		p.Rebirth = 5
		p.Currencies[domain.Money] = 1e60
		p.Currencies[domain.Beacons] = 10
	})

	res, err := e.ladder.Ascend(e.ctx, id)
	require.NoError(t, err)
	require.Empty(t, res.Rewards)

	p := e.profile(t, id)
	require.Equal(t, domain.Progression{Ascension: 1}, p.Progression())
	require.Equal(t, 10.0, p.Currencies[domain.Beacons])
	require.InDelta(t, 1.0, p.Multipliers[moneyBonus].Bonus, 1e-9)
	require.InDelta(t, 0.5, p.Multipliers[domain.BonusType(domain.Souls)].Bonus, 1e-9)
	require.InDelta(t, 0.25, p.Multipliers[domain.BonusType(domain.Beacons)].Bonus, 1e-9)
}

func TestAscensionNeedsFiveRebirths(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	e.edit(t, id, func(p *domain.Profile) {
		p.Rebirth = 4
		p.Currencies[domain.Money] = 1e60
	})
	q, err := e.ladder.Quote(e.ctx, id, domain.TransitionAscension)
	require.NoError(t, err)
	require.False(t, q.Eligible)
	require.Equal(t, domain.ReasonThresholdNotMet, q.Reason)
	require.EqualValues(t, 4, q.Have)
	require.EqualValues(t, 5, q.Need)
}

func TestQuoteRankup(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 5000))

	q, err := e.ladder.Quote(e.ctx, id, domain.TransitionRankup)
	require.NoError(t, err)
	require.True(t, q.Eligible)
	require.Equal(t, 1000.0, q.Cost)
	require.Equal(t, 5000.0, q.Balance)
	require.Equal(t, 5000.0, e.balances.GetBalance(e.ctx, id, domain.Money))
}

func TestRankupMax(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 1000+1500+2250+10))

	res, err := e.ladder.RankupMax(e.ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)
	require.Equal(t, 4750.0, res.Spent)
	require.Equal(t, 3, res.To.Rank)
	require.ErrorIs(t, res.Stopped, domain.ErrIneligible)
	require.Equal(t, 10.0, e.balances.GetBalance(e.ctx, id, domain.Money))
}

func TestRankupMaxStopsAtZ(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 1e12))

	res, err := e.ladder.RankupMax(e.ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.MaxRank, res.Count)
	require.Equal(t, "Z", res.To.RankSymbol())
}

func TestConcurrentRankupSpendsOnce(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)
	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 1000))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.ladder.Rankup(e.ctx, id); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.Equal(t, "B", e.profile(t, id).CurrentRank)
	require.Zero(t, e.balances.GetBalance(e.ctx, id, domain.Money))
}

func TestSetRankOverride(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)

	require.NoError(t, e.ladder.SetRank(e.ctx, id, "q", "admin"))
	require.Equal(t, "Q", e.profile(t, id).CurrentRank)
	require.ErrorIs(t, e.ladder.SetRank(e.ctx, id, "AA", "admin"), domain.ErrInvalidRank)
	require.ErrorIs(t, e.ladder.SetRank(e.ctx, id, "", "admin"), domain.ErrInvalidRank)
}

func TestAutoAdvance(t *testing.T) {
	e := newEnv(t)
	id := e.join(t)

	settings, err := e.ladder.SetAutoAdvance(e.ctx, id, domain.TransitionRankup, true)
	require.NoError(t, err)
	require.True(t, settings.AutoRankup)
	_, err = e.ladder.SetAutoAdvance(e.ctx, id, domain.TransitionAscension, true)
	require.ErrorIs(t, err, domain.ErrNotAutomatable)

	require.NoError(t, e.balances.SetBalance(e.ctx, id, domain.Money, 2600))
	res, err := e.ladder.AutoAdvance(e.ctx, id)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, 2, res[0].Count)
	require.Equal(t, "C", e.profile(t, id).CurrentRank)
}
