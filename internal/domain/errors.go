package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidBonusType  = errors.New("invalid bonus type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidIdentity   = errors.New("invalid player identity")
	ErrInvalidRank       = errors.New("invalid rank")
	ErrPlayerNotLoaded   = errors.New("player not loaded")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
	ErrAmountTooLarge    = errors.New("amount too large")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrIneligible        = errors.New("ineligible transition")
	ErrStoreUnavailable  = errors.New("profile store unavailable")
	ErrNotAutomatable    = errors.New("transition cannot be automated")
)

// InsufficientFundsError reports how far a debit fell short.
type InsufficientFundsError struct {
	Currency  Currency
	Required  float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s: need %.2f, have %.2f", e.Currency, e.Required, e.Available)
}

// Shortfall is the amount still missing.
func (e *InsufficientFundsError) Shortfall() float64 {
	return e.Required - e.Available
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// IneligibleReason names the precondition a ladder transition failed.
type IneligibleReason string

const (
	ReasonRankNotMaxed      IneligibleReason = "rank_not_maxed"
	ReasonRankMaxed         IneligibleReason = "rank_maxed"
	ReasonThresholdNotMet   IneligibleReason = "threshold_not_met"
	ReasonInsufficientFunds IneligibleReason = "insufficient_funds"
)

// IneligibleError is returned when a ladder transition is refused. Have and
// Need describe the counter threshold for ReasonThresholdNotMet; Cost and
// Balance describe the funds for ReasonInsufficientFunds.
type IneligibleError struct {
	Transition Transition
	Reason     IneligibleReason
	Cost       float64
	Balance    float64
	Have       int64
	Need       int64
}

func (e *IneligibleError) Error() string {
	switch e.Reason {
	case ReasonThresholdNotMet:
		return fmt.Sprintf("%s: need %d, have %d", e.Transition, e.Need, e.Have)
	case ReasonInsufficientFunds:
		return fmt.Sprintf("%s: costs %.2f, balance %.2f", e.Transition, e.Cost, e.Balance)
	}
	return fmt.Sprintf("%s: %s", e.Transition, e.Reason)
}

func (e *IneligibleError) Is(target error) bool {
	return target == ErrIneligible
}
