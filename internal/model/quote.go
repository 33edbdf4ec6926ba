package model

import "github.com/shopspring/decimal"

// Side is the direction of a trade from the player's point of view
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid returns true for buy and sell
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// PriceQuote is an authoritative price with the factors that produced it
type PriceQuote struct {
	ProductID ProductID
	StoreID   StoreID
	Condition Condition
	Side      Side
	ClockHour int

	BasePrice decimal.Decimal // Product base price (buy) or posted price (sell)
	UnitPrice decimal.Decimal

	ConditionFactor decimal.Decimal
	SpecialtyFactor decimal.Decimal
	RegionFactor    decimal.Decimal
	PeakFactor      decimal.Decimal
	MarginFactor    decimal.Decimal

	// Same-store anti-arbitrage cap, sell side only
	Capped   bool
	CapPrice decimal.NullDecimal
}

// CashDelta reports a change to a player's cash
type CashDelta struct {
	Amount  decimal.Decimal
	NewCash decimal.Decimal
}
