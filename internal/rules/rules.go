// Package rules holds the tunable game rules shared by the services.
package rules

import "github.com/shopspring/decimal"

// Rules are the per-deployment game settings
type Rules struct {
	ActionsPerHour int // Canonical per-hour allotment
	BuyCost        int // Actions spent per purchase
	SellCost       int // Actions spent per sale

	StartingCash      decimal.Decimal
	InventoryCapacity int
	StartRegion       string // Region new players start in; empty means first region in the catalog

	DefaultMaxHours int
	StartClockHour  int // Hour of day the first game hour shows

	MaxLoan          decimal.Decimal
	LoanInterestRate decimal.Decimal // Applied to outstanding loans at every hour advance

	DefaultStock int // Opening stock per listing before rarity scaling

	MaxTxRetries int // Attempts on concurrent modification before giving up
}

// Default returns the canonical rules
func Default() Rules {
	return Rules{
		ActionsPerHour:    4,
		BuyCost:           1,
		SellCost:          1,
		StartingCash:      decimal.NewFromInt(100),
		InventoryCapacity: 10,
		DefaultMaxHours:   24,
		StartClockHour:    8,
		MaxLoan:           decimal.NewFromInt(5000),
		LoanInterestRate:  decimal.RequireFromString("0.02"),
		DefaultStock:      5,
		MaxTxRetries:      3,
	}
}
