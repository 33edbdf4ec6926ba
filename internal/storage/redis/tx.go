package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// redisTx reads through a WATCHing connection and buffers writes. Buffered
// writes are visible to later reads in the same transaction.
type redisTx struct {
	tx  *redis.Tx
	cfg Config

	watched map[string]bool

	values  map[string]*string // nil marks a delete
	written []string

	setAdds map[string]map[string]bool
	setRems map[string]map[string]bool
	appends map[string][]string
}

var _ storage.Tx = (*redisTx)(nil)

func newTx(tx *redis.Tx, cfg Config) *redisTx {
	return &redisTx{
		tx:      tx,
		cfg:     cfg,
		watched: make(map[string]bool),
		values:  make(map[string]*string),
		setAdds: make(map[string]map[string]bool),
		setRems: make(map[string]map[string]bool),
		appends: make(map[string][]string),
	}
}

func (t *redisTx) watch(ctx context.Context, key string) error {
	if t.watched[key] {
		return nil
	}
	if err := t.tx.Watch(ctx, key).Err(); err != nil {
		return fmt.Errorf("watch %s: %w", key, err)
	}
	t.watched[key] = true
	return nil
}

func (t *redisTx) get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.values[key]; ok {
		if v == nil {
			return nil, false, nil
		}
		return []byte(*v), true, nil
	}
	if err := t.watch(ctx, key); err != nil {
		return nil, false, err
	}
	data, err := t.tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (t *redisTx) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, ok, err := t.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *redisTx) set(key string, value string) {
	if _, ok := t.values[key]; !ok {
		t.written = append(t.written, key)
	}
	t.values[key] = &value
}

func (t *redisTx) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.set(key, string(data))
	return nil
}

func (t *redisTx) del(key string) {
	if _, ok := t.values[key]; !ok {
		t.written = append(t.written, key)
	}
	t.values[key] = nil
}

func (t *redisTx) members(ctx context.Context, key string) ([]string, error) {
	if err := t.watch(ctx, key); err != nil {
		return nil, err
	}
	stored, err := t.tx.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	var out []string
	for _, m := range stored {
		if !t.setRems[key][m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for m := range t.setAdds[key] {
		if !seen[m] {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (t *redisTx) sadd(key, member string) {
	if t.setAdds[key] == nil {
		t.setAdds[key] = make(map[string]bool)
	}
	t.setAdds[key][member] = true
	delete(t.setRems[key], member)
}

func (t *redisTx) srem(key, member string) {
	if t.setRems[key] == nil {
		t.setRems[key] = make(map[string]bool)
	}
	t.setRems[key][member] = true
	delete(t.setAdds[key], member)
}

func (t *redisTx) list(ctx context.Context, key string) ([]string, error) {
	if err := t.watch(ctx, key); err != nil {
		return nil, err
	}
	stored, err := t.tx.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return append(stored, t.appends[key]...), nil
}

func (t *redisTx) commit(ctx context.Context) error {
	if len(t.written) == 0 && len(t.setAdds) == 0 && len(t.setRems) == 0 && len(t.appends) == 0 {
		return nil
	}
	_, err := t.tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		var touched []string
		for _, key := range t.written {
			v := t.values[key]
			if v == nil {
				pipe.Del(ctx, key)
				continue
			}
			pipe.Set(ctx, key, *v, 0)
			touched = append(touched, key)
		}
		for key, adds := range t.setAdds {
			if len(adds) == 0 {
				continue
			}
			members := make([]any, 0, len(adds))
			for m := range adds {
				members = append(members, m)
			}
			pipe.SAdd(ctx, key, members...)
			touched = append(touched, key)
		}
		for key, rems := range t.setRems {
			if len(rems) == 0 {
				continue
			}
			members := make([]any, 0, len(rems))
			for m := range rems {
				members = append(members, m)
			}
			pipe.SRem(ctx, key, members...)
		}
		for key, values := range t.appends {
			args := make([]any, len(values))
			for i, v := range values {
				args[i] = v
			}
			pipe.RPush(ctx, key, args...)
			touched = append(touched, key)
		}
		// Keep game state TTLs in sync
		if t.cfg.GameTTL > 0 {
			for _, key := range touched {
				pipe.Expire(ctx, key, t.cfg.GameTTL)
			}
		}
		return nil
	})
	return err
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

type versioned struct {
	Version int64
}

func (t *redisTx) storedVersion(ctx context.Context, key string) (int64, bool, error) {
	var v versioned
	ok, err := t.getJSON(ctx, key, &v)
	return v.Version, ok, err
}

// Games

func (t *redisTx) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var g model.Game
	ok, err := t.getJSON(ctx, gameKey(id), &g)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return &g, nil
}

func (t *redisTx) SaveGame(ctx context.Context, game *model.Game) error {
	key := gameKey(game.ID)
	stored, exists, err := t.storedVersion(ctx, key)
	if err != nil {
		return err
	}
	if err := checkVersion(stored, game.Version, exists); err != nil {
		return err
	}
	game.Version++
	return t.setJSON(key, game)
}

// Players

func (t *redisTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var p model.Player
	ok, err := t.getJSON(ctx, playerKey(id), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &p, nil
}

func (t *redisTx) SavePlayer(ctx context.Context, player *model.Player) error {
	key := playerKey(player.ID)
	stored, exists, err := t.storedVersion(ctx, key)
	if err != nil {
		return err
	}
	if err := checkVersion(stored, player.Version, exists); err != nil {
		return err
	}
	player.Version++
	if err := t.setJSON(key, player); err != nil {
		return err
	}
	t.sadd(playersForGameIndexKey(player.GameID), string(player.ID))
	return nil
}

func (t *redisTx) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	p, err := t.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil
		}
		return err
	}
	t.del(playerKey(id))
	t.srem(playersForGameIndexKey(p.GameID), string(id))
	return nil
}

func (t *redisTx) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	ids, err := t.members(ctx, playersForGameIndexKey(gameID))
	if err != nil {
		return nil, err
	}
	var out []*model.Player
	for _, id := range ids {
		p, err := t.GetPlayer(ctx, model.PlayerID(id))
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	storage.SortPlayers(out)
	return out, nil
}

// Market

func (t *redisTx) GetStoreListing(ctx context.Context, key model.ListingKey) (*model.StoreListing, error) {
	return t.getListing(ctx, listingKey(key))
}

func (t *redisTx) getListing(ctx context.Context, key string) (*model.StoreListing, error) {
	var l model.StoreListing
	ok, err := t.getJSON(ctx, key, &l)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrListingNotFound
	}
	return &l, nil
}

func (t *redisTx) ListStoreListings(ctx context.Context, gameID model.GameID, storeID model.StoreID) ([]*model.StoreListing, error) {
	keys, err := t.members(ctx, listingsForStoreIndexKey(gameID, storeID))
	if err != nil {
		return nil, err
	}
	var out []*model.StoreListing
	for _, key := range keys {
		l, err := t.getListing(ctx, key)
		if err != nil {
			if errors.Is(err, model.ErrListingNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, l)
	}
	storage.SortListings(out)
	return out, nil
}

func (t *redisTx) SaveStoreListing(ctx context.Context, listing *model.StoreListing) error {
	key := listingKey(listing.Key())
	stored, exists, err := t.storedVersion(ctx, key)
	if err != nil {
		return err
	}
	if err := checkVersion(stored, listing.Version, exists); err != nil {
		return err
	}
	listing.Version++
	if err := t.setJSON(key, listing); err != nil {
		return err
	}
	t.sadd(listingsForStoreIndexKey(listing.GameID, listing.StoreID), key)
	return nil
}

// Inventory

func (t *redisTx) GetInventoryItem(ctx context.Context, playerID model.PlayerID, productID model.ProductID, cond model.Condition) (*model.InventoryItem, error) {
	id, ok, err := t.get(ctx, itemSlotKey(playerID, productID, cond))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrItemNotFound
	}
	return t.GetInventoryItemByID(ctx, model.ItemID(id))
}

func (t *redisTx) GetInventoryItemByID(ctx context.Context, id model.ItemID) (*model.InventoryItem, error) {
	var it model.InventoryItem
	ok, err := t.getJSON(ctx, itemKey(id), &it)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrItemNotFound
	}
	return &it, nil
}

func (t *redisTx) ListInventory(ctx context.Context, playerID model.PlayerID) ([]*model.InventoryItem, error) {
	ids, err := t.members(ctx, inventoryIndexKey(playerID))
	if err != nil {
		return nil, err
	}
	var out []*model.InventoryItem
	for _, id := range ids {
		it, err := t.GetInventoryItemByID(ctx, model.ItemID(id))
		if err != nil {
			if errors.Is(err, model.ErrItemNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, it)
	}
	storage.SortInventory(out)
	return out, nil
}

func (t *redisTx) SaveInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	key := itemKey(item.ID)
	stored, exists, err := t.storedVersion(ctx, key)
	if err != nil {
		return err
	}
	slot := itemSlotKey(item.PlayerID, item.ProductID, item.Condition)
	if !exists && item.Version == 0 {
		_, taken, err := t.get(ctx, slot)
		if err != nil {
			return err
		}
		if taken {
			return model.ErrDuplicateCondition
		}
	}
	if err := checkVersion(stored, item.Version, exists); err != nil {
		return err
	}
	item.Version++
	if err := t.setJSON(key, item); err != nil {
		return err
	}
	t.set(slot, string(item.ID))
	t.sadd(inventoryIndexKey(item.PlayerID), string(item.ID))
	return nil
}

func (t *redisTx) DeleteInventoryItem(ctx context.Context, id model.ItemID) error {
	it, err := t.GetInventoryItemByID(ctx, id)
	if err != nil {
		return err
	}
	t.del(itemKey(id))
	t.del(itemSlotKey(it.PlayerID, it.ProductID, it.Condition))
	t.srem(inventoryIndexKey(it.PlayerID), string(id))
	return nil
}

// Transaction log

func (t *redisTx) AppendTransaction(ctx context.Context, rec *model.TransactionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	key := txlogKey(rec.PlayerID)
	t.appends[key] = append(t.appends[key], string(data))
	if rec.Type == model.TransactionBuy {
		return t.setJSON(lastPurchaseKey(rec.PlayerID, rec.ProductID), model.PurchaseFrom(rec))
	}
	return nil
}

func (t *redisTx) MostRecentPurchase(ctx context.Context, playerID model.PlayerID, productID model.ProductID) (model.PurchaseRecord, bool, error) {
	var rec model.PurchaseRecord
	ok, err := t.getJSON(ctx, lastPurchaseKey(playerID, productID), &rec)
	return rec, ok, err
}

func (t *redisTx) ListTransactions(ctx context.Context, playerID model.PlayerID) ([]*model.TransactionRecord, error) {
	raw, err := t.list(ctx, txlogKey(playerID))
	if err != nil {
		return nil, err
	}
	out := make([]*model.TransactionRecord, 0, len(raw))
	for _, r := range raw {
		var rec model.TransactionRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
