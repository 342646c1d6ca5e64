package service

import (
	"math"

	"mythic_prison/internal/domain"
)

const (
	BaseRankupCost  = 1000.0
	RankupGrowth    = 1.5
	PrestigeGrowth  = 1.8
	RebirthGrowth   = 2.5
	AscensionGrowth = 3.0

	// RebirthRequirement is the prestige count needed to rebirth.
	RebirthRequirement = 10
	// AscensionRequirement is the rebirth count needed to ascend.
	AscensionRequirement = 5
)

// RankZCost is the price of the last rankup tier, the base of every higher
// tier's cost.
var RankZCost = BaseRankupCost * math.Pow(RankupGrowth, domain.MaxRank)

func RankupCost(rank int) float64 {
	return BaseRankupCost * math.Pow(RankupGrowth, float64(rank))
}

func PrestigeCost(prestige int64) float64 {
	return RankZCost * 10 * math.Pow(PrestigeGrowth, float64(prestige))
}

func RebirthCost(rebirth int64) float64 {
	return RankZCost * 10 * 100 * math.Pow(RebirthGrowth, float64(rebirth))
}

func AscensionCost(ascension int64) float64 {
	return RankZCost * 10 * 100 * 1000 * math.Pow(AscensionGrowth, float64(ascension))
}

// Cost prices tr from state s. Costs are never stored.
func Cost(tr domain.Transition, s domain.Progression) float64 {
	switch tr {
	case domain.TransitionRankup:
		return RankupCost(s.Rank)
	case domain.TransitionPrestige:
		return PrestigeCost(s.Prestige)
	case domain.TransitionRebirth:
		return RebirthCost(s.Rebirth)
	case domain.TransitionAscension:
		return AscensionCost(s.Ascension)
	}
	return math.Inf(1)
}

// Reward is what a transition grants on top of the state change.
type Reward struct {
	Currencies  map[domain.Currency]float64  `json:"currencies,omitempty"`
	Multipliers map[domain.BonusType]float64 `json:"multipliers,omitempty"`
}

// rewardFor is computed from the counters before the transition applies.
func rewardFor(tr domain.Transition, before domain.Progression) Reward {
	switch tr {
	case domain.TransitionPrestige:
		return Reward{
			Currencies: map[domain.Currency]float64{
				domain.Souls: 1_000_000 * math.Pow(2, float64(before.Prestige)),
			},
			Multipliers: map[domain.BonusType]float64{
				domain.BonusType(domain.Money): 0.10,
			},
		}
	case domain.TransitionRebirth:
		return Reward{
			Currencies: map[domain.Currency]float64{
				domain.Beacons: 10_000_000 * math.Pow(3, float64(before.Rebirth)),
			},
			Multipliers: map[domain.BonusType]float64{
				domain.BonusType(domain.Money): 0.50,
				domain.BonusType(domain.Souls): 0.25,
			},
		}
	case domain.TransitionAscension:
		return Reward{
			Multipliers: map[domain.BonusType]float64{
				domain.BonusType(domain.Money):   1.00,
				domain.BonusType(domain.Souls):   0.50,
				domain.BonusType(domain.Beacons): 0.25,
			},
		}
	}
	return Reward{}
}

// next returns the state after tr. Lower tiers reset; currencies are not
// part of the tuple and never reset.
func next(tr domain.Transition, s domain.Progression) domain.Progression {
	switch tr {
	case domain.TransitionRankup:
		s.Rank++
	case domain.TransitionPrestige:
		s.Rank = 0
		s.Prestige++
	case domain.TransitionRebirth:
		s.Rank, s.Prestige = 0, 0
		s.Rebirth++
	case domain.TransitionAscension:
		s.Rank, s.Prestige, s.Rebirth = 0, 0, 0
		s.Ascension++
	}
	return s
}

// eligible checks the tier precondition, then funds. balance is the money
// balance.
func eligible(tr domain.Transition, s domain.Progression, balance float64) *domain.IneligibleError {
	cost := Cost(tr, s)
	refuse := func(r domain.IneligibleReason) *domain.IneligibleError {
		return &domain.IneligibleError{Transition: tr, Reason: r, Cost: cost, Balance: balance}
	}
	switch tr {
	case domain.TransitionRankup:
		if s.Rank >= domain.MaxRank {
			return refuse(domain.ReasonRankMaxed)
		}
	case domain.TransitionPrestige:
		if s.Rank < domain.MaxRank {
			return refuse(domain.ReasonRankNotMaxed)
		}
	case domain.TransitionRebirth:
		if s.Prestige < RebirthRequirement {
			e := refuse(domain.ReasonThresholdNotMet)
			e.Have, e.Need = s.Prestige, RebirthRequirement
			return e
		}
	case domain.TransitionAscension:
		if s.Rebirth < AscensionRequirement {
			e := refuse(domain.ReasonThresholdNotMet)
			e.Have, e.Need = s.Rebirth, AscensionRequirement
			return e
		}
	}
	if balance < cost {
		return refuse(domain.ReasonInsufficientFunds)
	}
	return nil
}

func applyProgression(p *domain.Profile, s domain.Progression) {
	p.CurrentRank = domain.RankSymbol(s.Rank)
	p.Prestige = s.Prestige
	p.Rebirth = s.Rebirth
	p.Ascension = s.Ascension
}

// AdvanceResult describes one applied transition.
type AdvanceResult struct {
	Player      domain.Identity              `json:"player"`
	Transition  domain.Transition            `json:"transition"`
	From        domain.Progression           `json:"from"`
	To          domain.Progression           `json:"to"`
	Cost        float64                      `json:"cost"`
	Rewards     map[domain.Currency]float64  `json:"rewards,omitempty"`
	Multipliers map[domain.BonusType]float64 `json:"multipliers,omitempty"`
	Money       float64                      `json:"money"`
}

// advance runs the whole transition against p with the identity lock held:
// check, debit, state change, rewards. Nothing is written unless every step
// can succeed.
func advance(p *domain.Profile, tr domain.Transition, nowMs int64) (*AdvanceResult, error) {
	from := p.Progression()
	money := balanceOf(p, domain.Money)
	if err := eligible(tr, from, money); err != nil {
		return nil, err
	}
	cost := Cost(tr, from)
	if err := debit(p, domain.Money, cost); err != nil {
		return nil, &domain.IneligibleError{Transition: tr, Reason: domain.ReasonInsufficientFunds, Cost: cost, Balance: money}
	}

	to := next(tr, from)
	applyProgression(p, to)

	reward := rewardFor(tr, from)
	res := &AdvanceResult{
		Player:     p.UUID,
		Transition: tr,
		From:       from,
		To:         to,
		Cost:       cost,
		Rewards:    reward.Currencies,
	}
	for c, amt := range reward.Currencies {
		credit(p, c, amt)
	}
	if len(reward.Multipliers) > 0 {
		res.Multipliers = make(map[domain.BonusType]float64, len(reward.Multipliers))
		for t, delta := range reward.Multipliers {
			res.Multipliers[t] = addLocal(p, t, delta, 0, nowMs)
		}
	}
	res.Money = balanceOf(p, domain.Money)
	return res, nil
}

// Quote is the read-only preview of a transition.
type Quote struct {
	Transition domain.Transition       `json:"transition"`
	State      domain.Progression      `json:"state"`
	Cost       float64                 `json:"cost"`
	Balance    float64                 `json:"balance"`
	Eligible   bool                    `json:"eligible"`
	Reason     domain.IneligibleReason `json:"reason,omitempty"`
	Have       int64                   `json:"have,omitempty"`
	Need       int64                   `json:"need,omitempty"`
	Reward     Reward                  `json:"reward"`
}

func quote(p *domain.Profile, tr domain.Transition) Quote {
	s := p.Progression()
	money := balanceOf(p, domain.Money)
	q := Quote{
		Transition: tr,
		State:      s,
		Cost:       Cost(tr, s),
		Balance:    money,
		Eligible:   true,
		Reward:     rewardFor(tr, s),
	}
	if e := eligible(tr, s, money); e != nil {
		q.Eligible = false
		q.Reason = e.Reason
		q.Have, q.Need = e.Have, e.Need
	}
	return q
}
