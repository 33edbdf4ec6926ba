package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductID identifies a record in the catalog
type ProductID string

// StoreID identifies a record store
type StoreID string

// RegionID identifies a borough
type RegionID string

// Condition grades a physical copy of a record
type Condition string

const (
	ConditionMint Condition = "Mint"
	ConditionGood Condition = "Good"
	ConditionFair Condition = "Fair"
	ConditionPoor Condition = "Poor"
)

// Conditions returns all valid conditions, best first
func Conditions() []Condition {
	return []Condition{ConditionMint, ConditionGood, ConditionFair, ConditionPoor}
}

// Valid returns true for the four known grades
func (c Condition) Valid() bool {
	switch c {
	case ConditionMint, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ParseCondition accepts any letter case
func ParseCondition(s string) (Condition, error) {
	for _, c := range Conditions() {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", ErrInvalidCondition
}

// Product is an abstract record; condition belongs to copies, not products
type Product struct {
	ID        ProductID
	Name      string
	Artist    string
	Genre     string
	BasePrice decimal.Decimal
	Rarity    float64 // 0 (common) .. 1 (rare)
}

// Store is a record shop in a region
type Store struct {
	ID             StoreID
	Name           string
	RegionID       RegionID
	SpecialtyGenre string
	OpenHour       int // Clock hour the store opens
	CloseHour      int // Clock hour the store closes; equal to OpenHour means always open
}

// IsOpen reports whether the store trades at the given clock hour
func (s *Store) IsOpen(clockHour int) bool {
	if s.OpenHour == s.CloseHour {
		return true
	}
	if s.OpenHour < s.CloseHour {
		return clockHour >= s.OpenHour && clockHour < s.CloseHour
	}
	// Wraps past midnight
	return clockHour >= s.OpenHour || clockHour < s.CloseHour
}

// HasSpecialty reports whether the store specialises in the given genre
func (s *Store) HasSpecialty(genre string) bool {
	return s.SpecialtyGenre != "" && strings.EqualFold(s.SpecialtyGenre, genre)
}

// Region is a borough with its own price level
type Region struct {
	ID            RegionID
	Name          string
	PriceModifier decimal.NullDecimal // Absent means 1.0
	Neighbors     map[RegionID]int    // Adjacent region -> travel cost in actions
}

// Modifier returns the multiplicative price factor for the region
func (r *Region) Modifier() decimal.Decimal {
	if r == nil || !r.PriceModifier.Valid {
		return decimal.NewFromInt(1)
	}
	return r.PriceModifier.Decimal
}
