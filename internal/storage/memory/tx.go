package memory

import (
	"context"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// memTx mutates the maps directly while the storage lock is held and keeps
// an undo entry for every write
type memTx struct {
	s    *Storage
	undo []func()
}

var _ storage.Tx = (*memTx)(nil)

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) onUndo(f func()) {
	t.undo = append(t.undo, f)
}

// checkVersion enforces the optimistic concurrency contract shared by every backend
func checkVersion(stored, given int64, exists bool) error {
	if given == 0 {
		if exists {
			return model.ErrConcurrentModification
		}
		return nil
	}
	if !exists || stored != given {
		return model.ErrConcurrentModification
	}
	return nil
}

// Games

func (t *memTx) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	g, ok := t.s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	c := *g
	return &c, nil
}

func (t *memTx) SaveGame(ctx context.Context, game *model.Game) error {
	prev, ok := t.s.games[game.ID]
	var stored int64
	if ok {
		stored = prev.Version
	}
	if err := checkVersion(stored, game.Version, ok); err != nil {
		return err
	}
	game.Version++
	c := *game
	t.s.games[game.ID] = &c
	t.onUndo(func() {
		if ok {
			t.s.games[game.ID] = prev
		} else {
			delete(t.s.games, game.ID)
		}
	})
	return nil
}

// Players

func (t *memTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	p, ok := t.s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return p.Clone(), nil
}

func (t *memTx) SavePlayer(ctx context.Context, player *model.Player) error {
	prev, ok := t.s.players[player.ID]
	var stored int64
	if ok {
		stored = prev.Version
	}
	if err := checkVersion(stored, player.Version, ok); err != nil {
		return err
	}
	player.Version++
	t.s.players[player.ID] = player.Clone()
	t.onUndo(func() {
		if ok {
			t.s.players[player.ID] = prev
		} else {
			delete(t.s.players, player.ID)
		}
	})
	return nil
}

func (t *memTx) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	prev, ok := t.s.players[id]
	if !ok {
		return nil
	}
	delete(t.s.players, id)
	t.onUndo(func() { t.s.players[id] = prev })
	return nil
}

func (t *memTx) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	var out []*model.Player
	for _, p := range t.s.players {
		if p.GameID == gameID {
			out = append(out, p.Clone())
		}
	}
	storage.SortPlayers(out)
	return out, nil
}

// Market

func (t *memTx) GetStoreListing(ctx context.Context, key model.ListingKey) (*model.StoreListing, error) {
	l, ok := t.s.listings[key]
	if !ok {
		return nil, model.ErrListingNotFound
	}
	return l.Clone(), nil
}

func (t *memTx) ListStoreListings(ctx context.Context, gameID model.GameID, storeID model.StoreID) ([]*model.StoreListing, error) {
	var out []*model.StoreListing
	for k, l := range t.s.listings {
		if k.GameID == gameID && k.StoreID == storeID {
			out = append(out, l.Clone())
		}
	}
	storage.SortListings(out)
	return out, nil
}

func (t *memTx) SaveStoreListing(ctx context.Context, listing *model.StoreListing) error {
	key := listing.Key()
	prev, ok := t.s.listings[key]
	var stored int64
	if ok {
		stored = prev.Version
	}
	if err := checkVersion(stored, listing.Version, ok); err != nil {
		return err
	}
	listing.Version++
	t.s.listings[key] = listing.Clone()
	t.onUndo(func() {
		if ok {
			t.s.listings[key] = prev
		} else {
			delete(t.s.listings, key)
		}
	})
	return nil
}

// Inventory

func (t *memTx) GetInventoryItem(ctx context.Context, playerID model.PlayerID, productID model.ProductID, cond model.Condition) (*model.InventoryItem, error) {
	id, ok := t.s.itemSlots[itemSlot{playerID, productID, cond}]
	if !ok {
		return nil, model.ErrItemNotFound
	}
	return t.GetInventoryItemByID(ctx, id)
}

func (t *memTx) GetInventoryItemByID(ctx context.Context, id model.ItemID) (*model.InventoryItem, error) {
	it, ok := t.s.items[id]
	if !ok {
		return nil, model.ErrItemNotFound
	}
	return it.Clone(), nil
}

func (t *memTx) ListInventory(ctx context.Context, playerID model.PlayerID) ([]*model.InventoryItem, error) {
	var out []*model.InventoryItem
	for _, it := range t.s.items {
		if it.PlayerID == playerID {
			out = append(out, it.Clone())
		}
	}
	storage.SortInventory(out)
	return out, nil
}

func (t *memTx) SaveInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	prev, ok := t.s.items[item.ID]
	var stored int64
	if ok {
		stored = prev.Version
	}
	slot := itemSlot{item.PlayerID, item.ProductID, item.Condition}
	if !ok && item.Version == 0 {
		if _, taken := t.s.itemSlots[slot]; taken {
			return model.ErrDuplicateCondition
		}
	}
	if err := checkVersion(stored, item.Version, ok); err != nil {
		return err
	}
	item.Version++
	t.s.items[item.ID] = item.Clone()
	t.s.itemSlots[slot] = item.ID
	t.onUndo(func() {
		if ok {
			t.s.items[item.ID] = prev
		} else {
			delete(t.s.items, item.ID)
			delete(t.s.itemSlots, slot)
		}
	})
	return nil
}

func (t *memTx) DeleteInventoryItem(ctx context.Context, id model.ItemID) error {
	prev, ok := t.s.items[id]
	if !ok {
		return model.ErrItemNotFound
	}
	slot := itemSlot{prev.PlayerID, prev.ProductID, prev.Condition}
	delete(t.s.items, id)
	delete(t.s.itemSlots, slot)
	t.onUndo(func() {
		t.s.items[id] = prev
		t.s.itemSlots[slot] = id
	})
	return nil
}

// Transaction log

func (t *memTx) AppendTransaction(ctx context.Context, rec *model.TransactionRecord) error {
	c := *rec
	prev := t.s.transactions[rec.PlayerID]
	t.s.transactions[rec.PlayerID] = append(prev[:len(prev):len(prev)], &c)
	t.onUndo(func() {
		if prev == nil {
			delete(t.s.transactions, rec.PlayerID)
			return
		}
		t.s.transactions[rec.PlayerID] = prev
	})
	return nil
}

func (t *memTx) MostRecentPurchase(ctx context.Context, playerID model.PlayerID, productID model.ProductID) (model.PurchaseRecord, bool, error) {
	recs := t.s.transactions[playerID]
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Type == model.TransactionBuy && recs[i].ProductID == productID {
			return model.PurchaseFrom(recs[i]), true, nil
		}
	}
	return model.PurchaseRecord{}, false, nil
}

func (t *memTx) ListTransactions(ctx context.Context, playerID model.PlayerID) ([]*model.TransactionRecord, error) {
	recs := t.s.transactions[playerID]
	out := make([]*model.TransactionRecord, len(recs))
	for i, r := range recs {
		c := *r
		out[i] = &c
	}
	return out, nil
}
