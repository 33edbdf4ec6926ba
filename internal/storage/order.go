package storage

import (
	"cmp"
	"slices"

	"github.com/mcoot/vinyltrader/internal/model"
)

// Backends return lists in these orders so callers see the same results
// regardless of where data lives.

// SortPlayers orders players by join time, then ID
func SortPlayers(players []*model.Player) {
	slices.SortFunc(players, func(a, b *model.Player) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortListings orders listings by product, then condition best first
func SortListings(listings []*model.StoreListing) {
	slices.SortFunc(listings, func(a, b *model.StoreListing) int {
		if c := cmp.Compare(a.ProductID, b.ProductID); c != 0 {
			return c
		}
		return cmp.Compare(conditionRank(a.Condition), conditionRank(b.Condition))
	})
}

// SortInventory orders items by acquisition time, then ID
func SortInventory(items []*model.InventoryItem) {
	slices.SortFunc(items, func(a, b *model.InventoryItem) int {
		if c := a.AcquiredAt.Compare(b.AcquiredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func conditionRank(c model.Condition) int {
	return slices.Index(model.Conditions(), c)
}
