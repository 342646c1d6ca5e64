package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileRoundTrip(t *testing.T) {
	id := NewIdentity()
	p := NewProfile(id)
	p.Username = "inmate"
	p.CurrentRank = "K"
	p.Prestige = 3
	p.Currencies[Money] = 1234.5
	p.Multipliers[BonusType(Money)] = MultiplierEntry{Bonus: 0.3}
	p.Multipliers[BonusExperience] = MultiplierEntry{Bonus: 1, ExpiresAt: 99}
	p.Settings.AutoRankup = true
	p.CompletedMilestones = []string{"first_steps"}

	b, err := MarshalProfile(p)
	require.NoError(t, err)
	require.Contains(t, string(b), `"currentRank":"K"`)

	got, err := UnmarshalProfile(b)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestNormalizeRepairsDocument(t *testing.T) {
	p := &Profile{
		CurrentRank: "??",
		Currencies: map[Currency]float64{
			Money:                 -5,
			Tokens:                math.Inf(1),
			Currency("bottlecap"): 3,
		},
		Multipliers: map[BonusType]MultiplierEntry{
			BonusType(Money):  {Bonus: 0.5, ExpiresAt: 100},
			BonusType(Souls):  {Bonus: 0.2},
			BonusType("luck"): {Bonus: 1},
		},
		Prestige:            -1,
		CompletedMilestones: []string{"b", "a"},
	}
	p.Normalize(100)

	require.Equal(t, "A", p.CurrentRank)
	require.Len(t, p.Currencies, len(Currencies()))
	require.Zero(t, p.Currencies[Money])
	require.Zero(t, p.Currencies[Tokens])
	require.NotContains(t, p.Currencies, Currency("bottlecap"))
	require.Equal(t, map[BonusType]MultiplierEntry{BonusType(Souls): {Bonus: 0.2}}, p.Multipliers)
	require.Zero(t, p.Prestige)
	require.Equal(t, []string{"a", "b"}, p.CompletedMilestones)
}

func TestCloneIsDeep(t *testing.T) {
	p := NewProfile(NewIdentity())
	p.CompletedMilestones = []string{"x"}
	cp := p.Clone()
	cp.Currencies[Money] = 9
	cp.Multipliers[BonusType(Money)] = MultiplierEntry{Bonus: 1}
	cp.CompletedMilestones[0] = "y"

	require.Zero(t, p.Currencies[Money])
	require.Empty(t, p.Multipliers)
	require.Equal(t, "x", p.CompletedMilestones[0])
}

func TestMultiplierExpiry(t *testing.T) {
	require.False(t, MultiplierEntry{Bonus: 1}.Expired(math.MaxInt64))
	require.False(t, MultiplierEntry{ExpiresAt: 10}.Expired(9))
	require.True(t, MultiplierEntry{ExpiresAt: 10}.Expired(10))
}
