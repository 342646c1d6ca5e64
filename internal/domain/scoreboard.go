package domain

// Scoreboard is the read-only view pushed to scoreboard renderers.
type Scoreboard struct {
	UUID       Identity             `json:"uuid"`
	Username   string               `json:"username,omitempty"`
	Rank       string               `json:"rank"`
	Prestige   int64                `json:"prestige"`
	Rebirth    int64                `json:"rebirth"`
	Ascension  int64                `json:"ascension"`
	Balances   map[Currency]string  `json:"balances"`
	Raw        map[Currency]float64 `json:"raw"`
	Multiplier float64              `json:"money_multiplier"`
	NextCost   string               `json:"next_cost"`
	Progress   float64              `json:"progress"`
}
