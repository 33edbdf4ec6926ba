package storage

import (
	"context"

	"github.com/mcoot/vinyltrader/internal/model"
)

// Catalog holds the static world: records, stores and boroughs. It is shared
// by every game and changes only through seeding.
type Catalog interface {
	GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
	SaveProduct(ctx context.Context, product *model.Product) error

	GetStore(ctx context.Context, id model.StoreID) (*model.Store, error)
	ListStores(ctx context.Context) ([]*model.Store, error)
	SaveStore(ctx context.Context, store *model.Store) error

	GetRegion(ctx context.Context, id model.RegionID) (*model.Region, error)
	ListRegions(ctx context.Context) ([]*model.Region, error)
	SaveRegion(ctx context.Context, region *model.Region) error
}

// Tx is the view of per-game state inside one atomic unit of work.
//
// Save methods create a row when its Version is zero and otherwise update it
// only if the stored version still matches, returning
// model.ErrConcurrentModification when it does not. On success the argument's
// Version is set to the stored version.
type Tx interface {
	// Games
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	SaveGame(ctx context.Context, game *model.Game) error

	// Players
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	SavePlayer(ctx context.Context, player *model.Player) error
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.Player, error)

	// Market
	GetStoreListing(ctx context.Context, key model.ListingKey) (*model.StoreListing, error)
	ListStoreListings(ctx context.Context, gameID model.GameID, storeID model.StoreID) ([]*model.StoreListing, error)
	SaveStoreListing(ctx context.Context, listing *model.StoreListing) error

	// Inventory. Creating a second row for the same (player, product,
	// condition) fails with model.ErrDuplicateCondition.
	GetInventoryItem(ctx context.Context, playerID model.PlayerID, productID model.ProductID, cond model.Condition) (*model.InventoryItem, error)
	GetInventoryItemByID(ctx context.Context, id model.ItemID) (*model.InventoryItem, error)
	ListInventory(ctx context.Context, playerID model.PlayerID) ([]*model.InventoryItem, error)
	SaveInventoryItem(ctx context.Context, item *model.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id model.ItemID) error

	// Transaction log (append-only)
	AppendTransaction(ctx context.Context, rec *model.TransactionRecord) error
	MostRecentPurchase(ctx context.Context, playerID model.PlayerID, productID model.ProductID) (model.PurchaseRecord, bool, error)
	ListTransactions(ctx context.Context, playerID model.PlayerID) ([]*model.TransactionRecord, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	Catalog

	// Atomically runs fn as one unit of work. If fn returns an error nothing
	// it wrote is kept. A lost optimistic race is reported as
	// model.ErrConcurrentModification.
	Atomically(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
