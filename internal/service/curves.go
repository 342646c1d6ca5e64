package service

import (
	"math"

	"mythic_prison/internal/domain"
)

// BonusCurve is the per-type bonus fraction granted for each completed ladder
// tier. The rebirth and ascension slots are zero for every type today; those
// tiers reward through permanent local multipliers instead.
type BonusCurve struct {
	PerPrestige  float64 `json:"per_prestige"`
	PerRebirth   float64 `json:"per_rebirth"`
	PerAscension float64 `json:"per_ascension"`
}

var bonusCurves = map[domain.BonusType]BonusCurve{
	domain.BonusType(domain.Money):  {PerPrestige: 0.10},
	domain.BonusType(domain.Tokens): {PerPrestige: 0.05},
	domain.BonusType(domain.Souls):  {PerPrestige: 0.02},
}

// CurveFor returns the curve for t; unknown types get the zero curve.
func CurveFor(t domain.BonusType) BonusCurve {
	return bonusCurves[t]
}

func (c BonusCurve) prestigeFactor(prestige int64) float64 {
	return 1 + c.PerPrestige*float64(prestige)
}

func (c BonusCurve) rebirthFactor(rebirth int64) float64 {
	return 1 + c.PerRebirth*float64(rebirth)
}

func (c BonusCurve) ascensionFactor(ascension int64) float64 {
	return 1 + c.PerAscension*float64(ascension)
}

// Breakdown lists each factor of an effective multiplier.
type Breakdown struct {
	Type      domain.BonusType `json:"type"`
	Local     float64          `json:"local"`
	Prestige  float64          `json:"prestige"`
	Rebirth   float64          `json:"rebirth"`
	Ascension float64          `json:"ascension"`
	Universal float64          `json:"universal"`
	Effective float64          `json:"effective"`
}

// localFactor reads one stored entry as a factor, dropping it when expired.
// The second result reports whether the profile was modified.
func localFactor(p *domain.Profile, t domain.BonusType, nowMs int64) (float64, bool) {
	e, ok := p.Multipliers[t]
	if !ok {
		return 1, false
	}
	if e.Expired(nowMs) {
		delete(p.Multipliers, t)
		return 1, true
	}
	return 1 + e.Bonus, false
}

// breakdown composes every layer for t. Callers hold the identity lock.
func breakdown(p *domain.Profile, t domain.BonusType, nowMs int64) (Breakdown, bool) {
	curve := CurveFor(t)
	local, purged := localFactor(p, t, nowMs)
	b := Breakdown{
		Type:      t,
		Local:     local,
		Prestige:  curve.prestigeFactor(p.Prestige),
		Rebirth:   curve.rebirthFactor(p.Rebirth),
		Ascension: curve.ascensionFactor(p.Ascension),
		Universal: 1,
	}
	if t.IsCurrencyClass() {
		u, purgedU := localFactor(p, domain.BonusUniversal, nowMs)
		b.Universal = u
		purged = purged || purgedU
	}
	b.Effective = b.Local * b.Prestige * b.Rebirth * b.Ascension * b.Universal
	return b, purged
}

// effective is breakdown(...).Effective.
func effective(p *domain.Profile, t domain.BonusType, nowMs int64) (float64, bool) {
	b, purged := breakdown(p, t, nowMs)
	return b.Effective, purged
}

// setLocal stores factor as a bonus fraction. durationMs <= 0 is permanent.
func setLocal(p *domain.Profile, t domain.BonusType, factor float64, durationMs, nowMs int64) {
	setBonus(p, t, factor-1, durationMs, nowMs)
}

func setBonus(p *domain.Profile, t domain.BonusType, bonus float64, durationMs, nowMs int64) {
	if bonus < 0 || math.IsNaN(bonus) {
		bonus = 0
	}
	e := domain.MultiplierEntry{Bonus: bonus}
	if durationMs > 0 {
		e.ExpiresAt = nowMs + durationMs
	}
	p.Multipliers[t] = e
}

// addLocal adds delta to the current bonus and re-sets it with the new
// duration. Durations do not accumulate. Returns the new factor.
func addLocal(p *domain.Profile, t domain.BonusType, delta float64, durationMs, nowMs int64) float64 {
	var bonus float64
	if e, ok := p.Multipliers[t]; ok && !e.Expired(nowMs) {
		bonus = e.Bonus
	}
	setBonus(p, t, bonus+delta, durationMs, nowMs)
	return 1 + p.Multipliers[t].Bonus
}

// purgeExpired drops every expired entry and reports how many went.
func purgeExpired(p *domain.Profile, nowMs int64) int {
	n := 0
	for t, e := range p.Multipliers {
		if e.Expired(nowMs) {
			delete(p.Multipliers, t)
			n++
		}
	}
	return n
}
