package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
)

// countingCatalog records how often the backing catalog is hit
type countingCatalog struct {
	storage.Catalog
	productGets int
	regionLists int
}

func (c *countingCatalog) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	c.productGets++
	return c.Catalog.GetProduct(ctx, id)
}

func (c *countingCatalog) ListRegions(ctx context.Context) ([]*model.Region, error) {
	c.regionLists++
	return c.Catalog.ListRegions(ctx)
}

type CatalogSuite struct {
	suite.Suite
	backing *memory.Storage
	counter *countingCatalog
	cache   *Catalog
	ctx     context.Context
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.ctx = context.Background()
	s.backing = memory.New()
	s.counter = &countingCatalog{Catalog: s.backing}
	s.cache = NewCatalog(s.counter, Config{Size: 16, TTL: time.Minute})

	s.Require().NoError(s.backing.SaveProduct(s.ctx, &model.Product{ID: "blue-train", Name: "Blue Train", BasePrice: decimal.NewFromInt(20)}))
	s.Require().NoError(s.backing.SaveRegion(s.ctx, &model.Region{ID: "queens", Name: "Queens"}))
}

func (s *CatalogSuite) TestReadThrough() {
	for range 3 {
		p, err := s.cache.GetProduct(s.ctx, "blue-train")
		s.Require().NoError(err)
		s.Equal("Blue Train", p.Name)
	}
	s.Equal(1, s.counter.productGets)
}

func (s *CatalogSuite) TestMissesAreNotCached() {
	_, err := s.cache.GetProduct(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProductNotFound)
	_, err = s.cache.GetProduct(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProductNotFound)
	s.Equal(2, s.counter.productGets)
}

func (s *CatalogSuite) TestCallersCannotCorruptCache() {
	p, err := s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	p.Name = "scribbled"

	again, err := s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.Equal("Blue Train", again.Name)
}

func (s *CatalogSuite) TestInvalidateProduct() {
	_, err := s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)

	// Changed behind the cache's back
	s.Require().NoError(s.backing.SaveProduct(s.ctx, &model.Product{ID: "blue-train", Name: "Blue Train (Remaster)", BasePrice: decimal.NewFromInt(25)}))
	p, err := s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.Equal("Blue Train", p.Name)

	s.cache.InvalidateProduct("blue-train")
	p, err = s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.Equal("Blue Train (Remaster)", p.Name)
}

func (s *CatalogSuite) TestSaveWritesThroughAndResetsLists() {
	regions, err := s.cache.ListRegions(s.ctx)
	s.Require().NoError(err)
	s.Len(regions, 1)

	s.Require().NoError(s.cache.SaveRegion(s.ctx, &model.Region{ID: "bronx", Name: "Bronx"}))

	regions, err = s.cache.ListRegions(s.ctx)
	s.Require().NoError(err)
	s.Len(regions, 2)
	s.Equal(2, s.counter.regionLists)

	r, err := s.backing.GetRegion(s.ctx, "bronx")
	s.Require().NoError(err)
	s.Equal("Bronx", r.Name)
}

func (s *CatalogSuite) TestEntriesExpire() {
	short := NewCatalog(s.counter, Config{Size: 16, TTL: 20 * time.Millisecond})
	_, err := short.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	time.Sleep(60 * time.Millisecond)
	_, err = short.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.Equal(2, s.counter.productGets)
}

func (s *CatalogSuite) TestPurge() {
	_, err := s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.cache.Purge()
	_, err = s.cache.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.Equal(2, s.counter.productGets)
}
