package domain

import (
	"encoding/json"
	"math"
	"sort"
)

// MultiplierEntry is a stored bonus fraction. The factor it contributes is
// 1+Bonus. ExpiresAt is unix milliseconds; zero means permanent.
type MultiplierEntry struct {
	Bonus     float64 `json:"bonus"`
	ExpiresAt int64   `json:"expiresAt,omitempty"`
}

// Expired reports whether the entry is logically absent at nowMs.
func (e MultiplierEntry) Expired(nowMs int64) bool {
	return e.ExpiresAt > 0 && nowMs >= e.ExpiresAt
}

type Stats struct {
	BlocksMined   int64 `json:"blocksMined"`
	TotalPlaytime int64 `json:"totalPlaytime"`
	CommandsUsed  int64 `json:"commandsUsed"`
}

// Settings toggles automatic ladder advancement.
type Settings struct {
	AutoRankup   bool `json:"autoRankup"`
	AutoPrestige bool `json:"autoPrestige"`
	AutoRebirth  bool `json:"autoRebirth"`
}

// Profile is the persisted per-player document.
type Profile struct {
	UUID                Identity                      `json:"uuid"`
	Username            string                        `json:"username,omitempty"`
	LastSeen            int64                         `json:"lastSeen"`
	Currencies          map[Currency]float64          `json:"currencies"`
	TotalMoneyEarned    float64                       `json:"totalMoneyEarned"`
	CurrentRank         string                        `json:"currentRank"`
	Prestige            int64                         `json:"prestige"`
	Rebirth             int64                         `json:"rebirth"`
	Ascension           int64                         `json:"ascension"`
	Multipliers         map[BonusType]MultiplierEntry `json:"multipliers"`
	Stats               Stats                         `json:"stats"`
	Settings            Settings                      `json:"settings"`
	CompletedMilestones []string                      `json:"completedMilestones,omitempty"`
}

// NewProfile returns the zero-state profile for a first-time player.
func NewProfile(id Identity) *Profile {
	p := &Profile{
		UUID:        id,
		CurrentRank: RankSymbol(0),
		Currencies:  make(map[Currency]float64, len(currencies)),
		Multipliers: make(map[BonusType]MultiplierEntry),
	}
	for _, c := range currencies {
		p.Currencies[c] = 0
	}
	return p
}

// Normalize repairs a hydrated document: unknown ranks become A, negative or
// non-finite balances become 0, unknown keys and expired entries are dropped.
func (p *Profile) Normalize(nowMs int64) {
	if _, err := ParseRank(p.CurrentRank); err != nil {
		p.CurrentRank = RankSymbol(0)
	}
	if p.Currencies == nil {
		p.Currencies = make(map[Currency]float64, len(currencies))
	}
	for c, v := range p.Currencies {
		if !c.Valid() {
			delete(p.Currencies, c)
			continue
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			p.Currencies[c] = 0
		}
	}
	for _, c := range currencies {
		if _, ok := p.Currencies[c]; !ok {
			p.Currencies[c] = 0
		}
	}
	if p.Multipliers == nil {
		p.Multipliers = make(map[BonusType]MultiplierEntry)
	}
	for t, e := range p.Multipliers {
		if !t.Valid() || e.Expired(nowMs) || e.Bonus < 0 {
			delete(p.Multipliers, t)
		}
	}
	if p.TotalMoneyEarned < 0 {
		p.TotalMoneyEarned = 0
	}
	if p.Prestige < 0 {
		p.Prestige = 0
	}
	if p.Rebirth < 0 {
		p.Rebirth = 0
	}
	if p.Ascension < 0 {
		p.Ascension = 0
	}
	sort.Strings(p.CompletedMilestones)
}

// Progression extracts the ladder tuple.
func (p *Profile) Progression() Progression {
	rank, _ := ParseRank(p.CurrentRank)
	return Progression{Rank: rank, Prestige: p.Prestige, Rebirth: p.Rebirth, Ascension: p.Ascension}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Currencies = make(map[Currency]float64, len(p.Currencies))
	for k, v := range p.Currencies {
		cp.Currencies[k] = v
	}
	cp.Multipliers = make(map[BonusType]MultiplierEntry, len(p.Multipliers))
	for k, v := range p.Multipliers {
		cp.Multipliers[k] = v
	}
	if p.CompletedMilestones != nil {
		cp.CompletedMilestones = append([]string(nil), p.CompletedMilestones...)
	}
	return &cp
}

// MarshalProfile encodes the document for storage.
func MarshalProfile(p *Profile) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalProfile decodes a stored document without normalising it.
func UnmarshalProfile(b []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LeaderboardEntry is one row of a balance ranking.
type LeaderboardEntry struct {
	UUID     Identity `json:"uuid"`
	Username string   `json:"username,omitempty"`
	Value    float64  `json:"value"`
}
