package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Transactions are serialized by a single lock and rolled back from an undo log.
// The catalog has its own lock so it can be read from inside a transaction.
type Storage struct {
	mu        sync.Mutex
	catalogMu sync.Mutex

	products map[model.ProductID]*model.Product
	stores   map[model.StoreID]*model.Store
	regions  map[model.RegionID]*model.Region

	games        map[model.GameID]*model.Game
	players      map[model.PlayerID]*model.Player
	listings     map[model.ListingKey]*model.StoreListing
	items        map[model.ItemID]*model.InventoryItem
	itemSlots    map[itemSlot]model.ItemID
	transactions map[model.PlayerID][]*model.TransactionRecord
}

type itemSlot struct {
	playerID  model.PlayerID
	productID model.ProductID
	condition model.Condition
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		products:     make(map[model.ProductID]*model.Product),
		stores:       make(map[model.StoreID]*model.Store),
		regions:      make(map[model.RegionID]*model.Region),
		games:        make(map[model.GameID]*model.Game),
		players:      make(map[model.PlayerID]*model.Player),
		listings:     make(map[model.ListingKey]*model.StoreListing),
		items:        make(map[model.ItemID]*model.InventoryItem),
		itemSlots:    make(map[itemSlot]model.ItemID),
		transactions: make(map[model.PlayerID][]*model.TransactionRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Catalog operations

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (s *Storage) ListProducts(ctx context.Context) ([]*model.Product, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	out := make([]*model.Product, 0, len(s.products))
	for _, p := range s.products {
		c := *p
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Storage) SaveProduct(ctx context.Context, product *model.Product) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	c := *product
	s.products[product.ID] = &c
	return nil
}

func (s *Storage) GetStore(ctx context.Context, id model.StoreID) (*model.Store, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, model.ErrStoreNotFound
	}
	c := *st
	return &c, nil
}

func (s *Storage) ListStores(ctx context.Context) ([]*model.Store, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	out := make([]*model.Store, 0, len(s.stores))
	for _, st := range s.stores {
		c := *st
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.Store) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Storage) SaveStore(ctx context.Context, store *model.Store) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	c := *store
	s.stores[store.ID] = &c
	return nil
}

func (s *Storage) GetRegion(ctx context.Context, id model.RegionID) (*model.Region, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	r, ok := s.regions[id]
	if !ok {
		return nil, model.ErrRegionNotFound
	}
	return cloneRegion(r), nil
}

func (s *Storage) ListRegions(ctx context.Context) ([]*model.Region, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	out := make([]*model.Region, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, cloneRegion(r))
	}
	slices.SortFunc(out, func(a, b *model.Region) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Storage) SaveRegion(ctx context.Context, region *model.Region) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	s.regions[region.ID] = cloneRegion(region)
	return nil
}

// Atomically runs fn under the storage lock, undoing its writes if it fails
func (s *Storage) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func cloneRegion(r *model.Region) *model.Region {
	c := *r
	if r.Neighbors != nil {
		c.Neighbors = make(map[model.RegionID]int, len(r.Neighbors))
		for k, v := range r.Neighbors {
			c.Neighbors[k] = v
		}
	}
	return &c
}
