package redis

import (
	"fmt"

	"github.com/mcoot/vinyltrader/internal/model"
)

// Key prefix for all trader data
const keyPrefix = "vinyl"

// Catalog keys

func productKey(id model.ProductID) string {
	return fmt.Sprintf("%s:product:%s", keyPrefix, id)
}

func productIndexKey() string {
	return fmt.Sprintf("%s:idx:products", keyPrefix)
}

func storeKey(id model.StoreID) string {
	return fmt.Sprintf("%s:store:%s", keyPrefix, id)
}

func storeIndexKey() string {
	return fmt.Sprintf("%s:idx:stores", keyPrefix)
}

func regionKey(id model.RegionID) string {
	return fmt.Sprintf("%s:region:%s", keyPrefix, id)
}

func regionIndexKey() string {
	return fmt.Sprintf("%s:idx:regions", keyPrefix)
}

// Game-scoped keys

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersForGameIndexKey returns the SET of player IDs in a game
func playersForGameIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:players:%s", keyPrefix, gameID)
}

// listingKey returns the Redis key for one store listing
func listingKey(k model.ListingKey) string {
	return fmt.Sprintf("%s:listing:%s:%s:%s:%s", keyPrefix, k.GameID, k.StoreID, k.ProductID, k.Condition)
}

// listingsForStoreIndexKey returns the SET of listing keys at a store in a game
func listingsForStoreIndexKey(gameID model.GameID, storeID model.StoreID) string {
	return fmt.Sprintf("%s:idx:listings:%s:%s", keyPrefix, gameID, storeID)
}

// itemKey returns the Redis key for an inventory row
func itemKey(id model.ItemID) string {
	return fmt.Sprintf("%s:item:%s", keyPrefix, id)
}

// itemSlotKey maps (player, product, condition) to the single item ID allowed there
func itemSlotKey(playerID model.PlayerID, productID model.ProductID, cond model.Condition) string {
	return fmt.Sprintf("%s:idx:item_slot:%s:%s:%s", keyPrefix, playerID, productID, cond)
}

// inventoryIndexKey returns the SET of item IDs held by a player
func inventoryIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:inventory:%s", keyPrefix, playerID)
}

// txlogKey returns the LIST of a player's transaction records
func txlogKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:txlog:%s", keyPrefix, playerID)
}

// lastPurchaseKey holds the newest buy record of a product by a player
func lastPurchaseKey(playerID model.PlayerID, productID model.ProductID) string {
	return fmt.Sprintf("%s:last_purchase:%s:%s", keyPrefix, playerID, productID)
}
