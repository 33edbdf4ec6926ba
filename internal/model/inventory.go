package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemID identifies an inventory row
type ItemID string

// InventoryItem is a player's holding of one product in one condition.
// A player holds at most one row per (ProductID, Condition).
type InventoryItem struct {
	ID            ItemID
	PlayerID      PlayerID
	ProductID     ProductID
	Condition     Condition
	Quantity      int
	PurchasePrice decimal.Decimal // Paid unit price
	StoreID       StoreID         // Where it was bought

	Version    int64
	AcquiredAt time.Time
}

// Clone returns a copy safe to mutate
func (i *InventoryItem) Clone() *InventoryItem {
	c := *i
	return &c
}

// TotalUnits sums quantities across a player's inventory rows
func TotalUnits(items []*InventoryItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// ListingKey addresses a store listing within a game
type ListingKey struct {
	GameID    GameID
	StoreID   StoreID
	ProductID ProductID
	Condition Condition
}

// StoreListing is market stock of one product in one condition at one store
type StoreListing struct {
	GameID       GameID
	StoreID      StoreID
	ProductID    ProductID
	Condition    Condition
	Quantity     int
	CurrentPrice decimal.Decimal // Posted market price

	Version int64
}

// Key returns the listing's address
func (l *StoreListing) Key() ListingKey {
	return ListingKey{GameID: l.GameID, StoreID: l.StoreID, ProductID: l.ProductID, Condition: l.Condition}
}

// Clone returns a copy safe to mutate
func (l *StoreListing) Clone() *StoreListing {
	c := *l
	return &c
}
