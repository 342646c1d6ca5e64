package service

import (
	"math"

	"mythic_prison/internal/domain"
)

// Ledger primitives. All of them run with the identity lock held and assume
// the currency was validated by the caller.

func balanceOf(p *domain.Profile, c domain.Currency) float64 {
	return p.Currencies[c]
}

// credit adds a positive amount. Money credits also raise the lifetime
// earned counter, which never decreases.
func credit(p *domain.Profile, c domain.Currency, amount float64) {
	if amount <= 0 || math.IsNaN(amount) {
		return
	}
	next := p.Currencies[c] + amount
	if math.IsInf(next, 1) {
		next = math.MaxFloat64
	}
	p.Currencies[c] = next
	if c == domain.Money {
		earned := p.TotalMoneyEarned + amount
		if math.IsInf(earned, 1) {
			earned = math.MaxFloat64
		}
		p.TotalMoneyEarned = earned
	}
}

// debit removes amount or fails without touching the balance.
func debit(p *domain.Profile, c domain.Currency, amount float64) error {
	have := p.Currencies[c]
	if have < amount {
		return &domain.InsufficientFundsError{Currency: c, Required: amount, Available: have}
	}
	p.Currencies[c] = have - amount
	return nil
}

func setBalance(p *domain.Profile, c domain.Currency, amount float64) {
	if amount < 0 || math.IsNaN(amount) {
		amount = 0
	}
	if math.IsInf(amount, 1) {
		amount = math.MaxFloat64
	}
	p.Currencies[c] = amount
}

func validAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
