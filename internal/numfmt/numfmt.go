// Package numfmt renders balances as short display strings such as 1.50K or
// 12.3QQ. All functions are pure.
package numfmt

import (
	"math"
	"strconv"

	"mythic_prison/internal/domain"
)

type suffix struct {
	scale float64
	label string
}

// suffixes is ordered from the largest scale down.
var suffixes = []suffix{
	{1e57, "OC"},
	{1e54, "SP"},
	{1e51, "SD"},
	{1e48, "QN"},
	{1e45, "QT"},
	{1e42, "TR"},
	{1e39, "DD"},
	{1e36, "UN"},
	{1e33, "D"},
	{1e30, "N"},
	{1e27, "O"},
	{1e24, "SS"},
	{1e21, "S"},
	{1e18, "QQ"},
	{1e15, "Q"},
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Format abbreviates amount. Money keeps two decimals below one thousand and
// uses a finer 0/1/2 decimal rule above it; other values drop decimals when
// they are whole at their scale and keep one otherwise.
func Format(amount float64, money bool) string {
	switch {
	case math.IsNaN(amount):
		return "0"
	case math.IsInf(amount, 1):
		return "∞"
	case math.IsInf(amount, -1):
		return "-∞"
	}
	if amount < 0 {
		return "-" + Format(-amount, money)
	}

	for _, s := range suffixes {
		if amount >= s.scale {
			return withSuffix(amount/s.scale, s.label, money)
		}
	}

	if money {
		return fixed(amount, 2)
	}
	if amount == math.Trunc(amount) {
		return fixed(amount, 0)
	}
	return fixed(amount, 1)
}

// Money is Format(amount, true).
func Money(amount float64) string { return Format(amount, true) }

// Number is Format(amount, false).
func Number(amount float64) string { return Format(amount, false) }

// Currency prefixes the formatted amount with the currency's symbol (money)
// or icon (everything else).
func Currency(c domain.Currency, amount float64) string {
	info := c.Info()
	if c == domain.Money {
		return info.Symbol + Money(amount)
	}
	return info.Icon + " " + Number(amount)
}

func withSuffix(scaled float64, label string, money bool) string {
	if !money {
		if scaled == math.Trunc(scaled) {
			return fixed(scaled, 0) + label
		}
		return fixed(scaled, 1) + label
	}
	switch {
	case scaled >= 100:
		return fixed(scaled, 0) + label
	case scaled >= 10:
		return fixed(scaled, 1) + label
	default:
		return fixed(scaled, 2) + label
	}
}

func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
