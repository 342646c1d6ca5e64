package domain

import "strings"

// Currency names a ledger balance. Names are case-insensitive on input and
// stored lowercase.
type Currency string

const (
	Money           Currency = "money"
	Tokens          Currency = "tokens"
	Souls           Currency = "souls"
	Beacons         Currency = "beacons"
	Gems            Currency = "gems"
	AscensionPoints Currency = "ascension_points"
)

// CurrencyInfo carries display metadata for a currency.
type CurrencyInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
	Icon   string `json:"icon"`
}

// currencies is the fixed enumerated set. Append here to add a currency.
var currencies = []Currency{Money, Tokens, Souls, Beacons, Gems, AscensionPoints}

var currencyInfo = map[Currency]CurrencyInfo{
	Money:           {Name: "Money", Symbol: "$", Icon: "💰"},
	Tokens:          {Name: "Tokens", Icon: "⚡"},
	Souls:           {Name: "Souls", Icon: "👻"},
	Beacons:         {Name: "Beacons", Icon: "🔆"},
	Gems:            {Name: "Gems", Icon: "💎"},
	AscensionPoints: {Name: "Ascension Points", Icon: "⭐"},
}

// Currencies returns the known currencies in declaration order.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// ParseCurrency normalises a currency name and reports whether it is known.
func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return c, ErrInvalidCurrency
	}
	return c, nil
}

func (c Currency) Valid() bool {
	_, ok := currencyInfo[c]
	return ok
}

func (c Currency) Info() CurrencyInfo {
	if info, ok := currencyInfo[c]; ok {
		return info
	}
	name := string(c)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return CurrencyInfo{Name: name, Icon: "📊"}
}

// BonusType keys a multiplier entry. Every currency is a bonus type; a few
// extra types exist that are not balances.
type BonusType string

const (
	BonusExperience BonusType = "experience"
	BonusUniversal  BonusType = "universal"
	BonusEnchant    BonusType = "enchant"
)

var extraBonusTypes = map[BonusType]struct{}{
	BonusExperience: {},
	BonusUniversal:  {},
	BonusEnchant:    {},
}

// currency-class bonus types receive the universal factor.
var currencyClass = map[BonusType]struct{}{
	BonusType(Money):   {},
	BonusType(Tokens):  {},
	BonusType(Souls):   {},
	BonusType(Beacons): {},
	BonusType(Gems):    {},
	BonusExperience:    {},
}

// ParseBonusType normalises a bonus-type name and reports whether it is known.
func ParseBonusType(raw string) (BonusType, error) {
	t := BonusType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return t, ErrInvalidBonusType
	}
	return t, nil
}

func (t BonusType) Valid() bool {
	if _, ok := extraBonusTypes[t]; ok {
		return true
	}
	return Currency(t).Valid()
}

// IsCurrencyClass reports whether the universal multiplier applies to t.
func (t BonusType) IsCurrencyClass() bool {
	_, ok := currencyClass[t]
	return ok
}

// BonusTypes lists every valid bonus type, currencies first.
func BonusTypes() []BonusType {
	out := make([]BonusType, 0, len(currencies)+len(extraBonusTypes))
	for _, c := range currencies {
		out = append(out, BonusType(c))
	}
	return append(out, BonusExperience, BonusUniversal, BonusEnchant)
}
