// Package cache fronts the catalog with TTL-bounded LRU caches.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Config sizes the caches
type Config struct {
	Size int
	TTL  time.Duration
}

// DefaultConfig returns sensible defaults for the catalog cache
func DefaultConfig() Config {
	return Config{Size: 1024, TTL: 5 * time.Minute}
}

// listKey is the single key under which a full listing is cached
const listKey = "all"

// Catalog is a read-through, write-through cache over a storage.Catalog.
// Entries expire after the TTL; the Invalidate methods drop them sooner.
type Catalog struct {
	next storage.Catalog

	products *expirable.LRU[model.ProductID, *model.Product]
	stores   *expirable.LRU[model.StoreID, *model.Store]
	regions  *expirable.LRU[model.RegionID, *model.Region]

	productLists *expirable.LRU[string, []*model.Product]
	storeLists   *expirable.LRU[string, []*model.Store]
	regionLists  *expirable.LRU[string, []*model.Region]
}

var _ storage.Catalog = (*Catalog)(nil)

// NewCatalog wraps next
func NewCatalog(next storage.Catalog, cfg Config) *Catalog {
	if cfg.Size <= 0 {
		cfg.Size = DefaultConfig().Size
	}
	return &Catalog{
		next:         next,
		products:     expirable.NewLRU[model.ProductID, *model.Product](cfg.Size, nil, cfg.TTL),
		stores:       expirable.NewLRU[model.StoreID, *model.Store](cfg.Size, nil, cfg.TTL),
		regions:      expirable.NewLRU[model.RegionID, *model.Region](cfg.Size, nil, cfg.TTL),
		productLists: expirable.NewLRU[string, []*model.Product](1, nil, cfg.TTL),
		storeLists:   expirable.NewLRU[string, []*model.Store](1, nil, cfg.TTL),
		regionLists:  expirable.NewLRU[string, []*model.Region](1, nil, cfg.TTL),
	}
}

// Products

func (c *Catalog) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	if p, ok := c.products.Get(id); ok {
		cp := *p
		return &cp, nil
	}
	p, err := c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *p
	c.products.Add(id, &cp)
	return p, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]*model.Product, error) {
	if list, ok := c.productLists.Get(listKey); ok {
		return copyProducts(list), nil
	}
	list, err := c.next.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.productLists.Add(listKey, copyProducts(list))
	return list, nil
}

func (c *Catalog) SaveProduct(ctx context.Context, p *model.Product) error {
	if err := c.next.SaveProduct(ctx, p); err != nil {
		c.InvalidateProduct(p.ID)
		return err
	}
	cp := *p
	c.products.Add(p.ID, &cp)
	c.productLists.Purge()
	return nil
}

// InvalidateProduct drops a product and the cached product listing
func (c *Catalog) InvalidateProduct(id model.ProductID) {
	c.products.Remove(id)
	c.productLists.Purge()
}

// Stores

func (c *Catalog) GetStore(ctx context.Context, id model.StoreID) (*model.Store, error) {
	if st, ok := c.stores.Get(id); ok {
		cp := *st
		return &cp, nil
	}
	st, err := c.next.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *st
	c.stores.Add(id, &cp)
	return st, nil
}

func (c *Catalog) ListStores(ctx context.Context) ([]*model.Store, error) {
	if list, ok := c.storeLists.Get(listKey); ok {
		return copyStores(list), nil
	}
	list, err := c.next.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	c.storeLists.Add(listKey, copyStores(list))
	return list, nil
}

func (c *Catalog) SaveStore(ctx context.Context, st *model.Store) error {
	if err := c.next.SaveStore(ctx, st); err != nil {
		c.InvalidateStore(st.ID)
		return err
	}
	cp := *st
	c.stores.Add(st.ID, &cp)
	c.storeLists.Purge()
	return nil
}

// InvalidateStore drops a store and the cached store listing
func (c *Catalog) InvalidateStore(id model.StoreID) {
	c.stores.Remove(id)
	c.storeLists.Purge()
}

// Regions

func (c *Catalog) GetRegion(ctx context.Context, id model.RegionID) (*model.Region, error) {
	if r, ok := c.regions.Get(id); ok {
		return copyRegion(r), nil
	}
	r, err := c.next.GetRegion(ctx, id)
	if err != nil {
		return nil, err
	}
	c.regions.Add(id, copyRegion(r))
	return r, nil
}

func (c *Catalog) ListRegions(ctx context.Context) ([]*model.Region, error) {
	if list, ok := c.regionLists.Get(listKey); ok {
		return copyRegions(list), nil
	}
	list, err := c.next.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	c.regionLists.Add(listKey, copyRegions(list))
	return list, nil
}

func (c *Catalog) SaveRegion(ctx context.Context, r *model.Region) error {
	if err := c.next.SaveRegion(ctx, r); err != nil {
		c.InvalidateRegion(r.ID)
		return err
	}
	c.regions.Add(r.ID, copyRegion(r))
	c.regionLists.Purge()
	return nil
}

// InvalidateRegion drops a region and the cached region listing
func (c *Catalog) InvalidateRegion(id model.RegionID) {
	c.regions.Remove(id)
	c.regionLists.Purge()
}

// Purge empties every cache
func (c *Catalog) Purge() {
	c.products.Purge()
	c.stores.Purge()
	c.regions.Purge()
	c.productLists.Purge()
	c.storeLists.Purge()
	c.regionLists.Purge()
}

func copyProducts(in []*model.Product) []*model.Product {
	out := make([]*model.Product, len(in))
	for i, p := range in {
		cp := *p
		out[i] = &cp
	}
	return out
}

func copyStores(in []*model.Store) []*model.Store {
	out := make([]*model.Store, len(in))
	for i, st := range in {
		cp := *st
		out[i] = &cp
	}
	return out
}

func copyRegion(r *model.Region) *model.Region {
	cp := *r
	if r.Neighbors != nil {
		cp.Neighbors = make(map[model.RegionID]int, len(r.Neighbors))
		for k, v := range r.Neighbors {
			cp.Neighbors[k] = v
		}
	}
	return &cp
}

func copyRegions(in []*model.Region) []*model.Region {
	out := make([]*model.Region, len(in))
	for i, r := range in {
		out[i] = copyRegion(r)
	}
	return out
}
