// Package ledger applies buys and sells to inventory, cash and market stock.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
	"github.com/mcoot/vinyltrader/internal/dependencies/idgen"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/pricing"
	"github.com/mcoot/vinyltrader/internal/services/txlog"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Ledger runs inside a storage transaction supplied by the caller. Any error
// it returns means the caller must abandon that transaction.
type Ledger struct {
	log   *txlog.Log
	ids   idgen.Generator
	clock clock.Clock
}

// New creates a Ledger
func New(log *txlog.Log, ids idgen.Generator, clk clock.Clock) *Ledger {
	return &Ledger{log: log, ids: ids, clock: clk}
}

// CheckAcquire returns why the player cannot take one more unit of the
// product in this condition, or nil if they can
func (l *Ledger) CheckAcquire(ctx context.Context, tx storage.Tx, p *model.Player, productID model.ProductID, cond model.Condition) error {
	_, err := tx.GetInventoryItem(ctx, p.ID, productID, cond)
	switch {
	case err == nil:
		return model.ErrDuplicateCondition
	case !errors.Is(err, model.ErrItemNotFound):
		return err
	}

	items, err := tx.ListInventory(ctx, p.ID)
	if err != nil {
		return err
	}
	if model.TotalUnits(items)+1 > p.InventoryCapacity {
		return model.ErrCapacityExceeded
	}
	return nil
}

// CanAcquire reports whether CheckAcquire passes
func (l *Ledger) CanAcquire(ctx context.Context, tx storage.Tx, p *model.Player, productID model.ProductID, cond model.Condition) (bool, error) {
	err := l.CheckAcquire(ctx, tx, p, productID, cond)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, model.ErrDuplicateCondition), errors.Is(err, model.ErrCapacityExceeded):
		return false, nil
	}
	return false, err
}

// ApplyBuy moves one unit from the listing into the player's inventory at
// unitPrice and saves the player
func (l *Ledger) ApplyBuy(ctx context.Context, tx storage.Tx, p *model.Player, listing *model.StoreListing, cond model.Condition, unitPrice decimal.Decimal, hour int) (*model.InventoryItem, error) {
	if listing == nil || listing.Condition != cond {
		return nil, model.Invalid("condition %s does not match the listing", cond)
	}
	if unitPrice.IsNegative() {
		return nil, model.Invalid("negative price")
	}
	if err := l.CheckAcquire(ctx, tx, p, listing.ProductID, cond); err != nil {
		return nil, err
	}
	if p.Cash.LessThan(unitPrice) {
		return nil, model.ErrInsufficientFunds
	}
	if listing.Quantity <= 0 {
		return nil, model.ErrOutOfStock
	}

	listing.Quantity--
	if err := tx.SaveStoreListing(ctx, listing); err != nil {
		return nil, err
	}

	p.Cash = p.Cash.Sub(unitPrice)
	if err := tx.SavePlayer(ctx, p); err != nil {
		return nil, err
	}

	item := &model.InventoryItem{
		ID:            model.ItemID(l.ids.NewID()),
		PlayerID:      p.ID,
		ProductID:     listing.ProductID,
		Condition:     cond,
		Quantity:      1,
		PurchasePrice: unitPrice,
		StoreID:       listing.StoreID,
		AcquiredAt:    l.clock.Now(),
	}
	if err := tx.SaveInventoryItem(ctx, item); err != nil {
		return nil, err
	}

	err := l.log.Append(ctx, tx, &model.TransactionRecord{
		GameID:    p.GameID,
		PlayerID:  p.ID,
		ProductID: listing.ProductID,
		StoreID:   listing.StoreID,
		Type:      model.TransactionBuy,
		Condition: cond,
		Quantity:  1,
		UnitPrice: unitPrice,
		Hour:      hour,
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ApplySell moves one unit of item into the market at storeID for the quoted
// price and saves the player
func (l *Ledger) ApplySell(ctx context.Context, tx storage.Tx, p *model.Player, item *model.InventoryItem, storeID model.StoreID, q model.PriceQuote, hour int) (model.CashDelta, error) {
	if item == nil || item.PlayerID != p.ID || item.Quantity <= 0 {
		return model.CashDelta{}, model.ErrItemNotFound
	}
	if q.Side != model.SideSell || q.ProductID != item.ProductID || q.Condition != item.Condition || q.StoreID != storeID {
		return model.CashDelta{}, model.Invalid("quote does not match the item being sold")
	}
	if err := pricing.CheckCap(q); err != nil {
		return model.CashDelta{}, err
	}

	item.Quantity--
	if item.Quantity == 0 {
		if err := tx.DeleteInventoryItem(ctx, item.ID); err != nil {
			return model.CashDelta{}, err
		}
	} else if err := tx.SaveInventoryItem(ctx, item); err != nil {
		return model.CashDelta{}, err
	}

	key := model.ListingKey{GameID: p.GameID, StoreID: storeID, ProductID: item.ProductID, Condition: item.Condition}
	listing, err := tx.GetStoreListing(ctx, key)
	switch {
	case errors.Is(err, model.ErrListingNotFound):
		listing = &model.StoreListing{
			GameID:       key.GameID,
			StoreID:      key.StoreID,
			ProductID:    key.ProductID,
			Condition:    key.Condition,
			CurrentPrice: q.BasePrice.Round(2),
		}
	case err != nil:
		return model.CashDelta{}, err
	}
	listing.Quantity++
	if err := tx.SaveStoreListing(ctx, listing); err != nil {
		return model.CashDelta{}, err
	}

	p.Cash = p.Cash.Add(q.UnitPrice)
	if err := tx.SavePlayer(ctx, p); err != nil {
		return model.CashDelta{}, err
	}

	err = l.log.Append(ctx, tx, &model.TransactionRecord{
		GameID:    p.GameID,
		PlayerID:  p.ID,
		ProductID: item.ProductID,
		StoreID:   storeID,
		Type:      model.TransactionSell,
		Condition: item.Condition,
		Quantity:  1,
		UnitPrice: q.UnitPrice,
		Hour:      hour,
	})
	if err != nil {
		return model.CashDelta{}, err
	}
	return model.CashDelta{Amount: q.UnitPrice, NewCash: p.Cash}, nil
}
