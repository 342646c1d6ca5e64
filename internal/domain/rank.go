package domain

import "strings"

// RankCount is the size of the rank alphabet A..Z.
const RankCount = 26

// MaxRank is the index of rank Z.
const MaxRank = RankCount - 1

// RankSymbol returns the letter for a rank index, clamping out-of-range values.
func RankSymbol(index int) string {
	if index < 0 {
		index = 0
	}
	if index > MaxRank {
		index = MaxRank
	}
	return string(rune('A' + index))
}

// ParseRank converts a rank letter (any case) to its index.
func ParseRank(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return 0, ErrInvalidRank
	}
	return int(s[0] - 'A'), nil
}

// Transition is one edge of the ladder state machine.
type Transition string

const (
	TransitionRankup    Transition = "rankup"
	TransitionPrestige  Transition = "prestige"
	TransitionRebirth   Transition = "rebirth"
	TransitionAscension Transition = "ascension"
)

// ParseTransition accepts the transition names plus the "ascend" verb.
func ParseTransition(raw string) (Transition, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "rankup", "ru":
		return TransitionRankup, true
	case "prestige":
		return TransitionPrestige, true
	case "rebirth":
		return TransitionRebirth, true
	case "ascension", "ascend":
		return TransitionAscension, true
	}
	return "", false
}

// Progression is the ladder 4-tuple.
type Progression struct {
	Rank      int   `json:"rank"`
	Prestige  int64 `json:"prestige"`
	Rebirth   int64 `json:"rebirth"`
	Ascension int64 `json:"ascension"`
}

// RankSymbol returns the letter of the current rank.
func (p Progression) RankSymbol() string { return RankSymbol(p.Rank) }
