// Package txlog is the append-only record of buys, sells and trips.
package txlog

import (
	"context"

	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
	"github.com/mcoot/vinyltrader/internal/dependencies/idgen"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Log appends and queries transaction records inside a storage transaction.
// Records are never updated or deleted.
type Log struct {
	clock clock.Clock
	ids   idgen.Generator
}

// New creates a Log
func New(clk clock.Clock, ids idgen.Generator) *Log {
	return &Log{clock: clk, ids: ids}
}

// Append validates rec, stamps its ID and time, and stores it
func (l *Log) Append(ctx context.Context, tx storage.Tx, rec *model.TransactionRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = l.ids.NewID()
	}
	rec.CreatedAt = l.clock.Now()
	return tx.AppendTransaction(ctx, rec)
}

// MostRecentPurchase returns where, when and for how much the player last
// bought the product
func (l *Log) MostRecentPurchase(ctx context.Context, tx storage.Tx, playerID model.PlayerID, productID model.ProductID) (model.PurchaseRecord, bool, error) {
	return tx.MostRecentPurchase(ctx, playerID, productID)
}

// History lists a player's records oldest first
func (l *Log) History(ctx context.Context, tx storage.Tx, playerID model.PlayerID) ([]*model.TransactionRecord, error) {
	return tx.ListTransactions(ctx, playerID)
}

func validate(rec *model.TransactionRecord) error {
	if rec == nil || rec.PlayerID == "" || rec.GameID == "" {
		return model.ErrInvalidTransaction
	}
	if !rec.Type.Valid() || rec.Quantity <= 0 || rec.UnitPrice.IsNegative() {
		return model.ErrInvalidTransaction
	}
	switch rec.Type {
	case model.TransactionBuy, model.TransactionSell:
		if rec.ProductID == "" || rec.StoreID == "" || !rec.Condition.Valid() {
			return model.ErrInvalidTransaction
		}
	case model.TransactionTransport:
		if rec.FromRegion == "" || rec.ToRegion == "" {
			return model.ErrInvalidTransaction
		}
	}
	return nil
}
