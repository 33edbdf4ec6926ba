// Package catalog loads the static world (boroughs, stores, records and the
// stock each store opens a game with) from YAML.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

//go:embed default.yaml
var defaultSeed []byte

// StockEntry is one listing a store opens every game with
type StockEntry struct {
	StoreID   model.StoreID
	ProductID model.ProductID
	Condition model.Condition
	Quantity  int                 // Zero means derive from rarity
	Price     decimal.NullDecimal // Condition-neutral; absent means the base price
}

// Seed is a validated catalog
type Seed struct {
	Regions  []*model.Region
	Stores   []*model.Store
	Products []*model.Product
	Stock    []StockEntry
}

type seedFile struct {
	Regions []struct {
		ID            string         `yaml:"id"`
		Name          string         `yaml:"name"`
		PriceModifier string         `yaml:"price_modifier"`
		Neighbors     map[string]int `yaml:"neighbors"`
	} `yaml:"regions"`
	Stores []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Region    string `yaml:"region"`
		Specialty string `yaml:"specialty"`
		Open      int    `yaml:"open"`
		Close     int    `yaml:"close"`
	} `yaml:"stores"`
	Products []struct {
		ID        string  `yaml:"id"`
		Name      string  `yaml:"name"`
		Artist    string  `yaml:"artist"`
		Genre     string  `yaml:"genre"`
		BasePrice string  `yaml:"base_price"`
		Rarity    float64 `yaml:"rarity"`
	} `yaml:"products"`
	Stock []struct {
		Store     string `yaml:"store"`
		Product   string `yaml:"product"`
		Condition string `yaml:"condition"`
		Quantity  int    `yaml:"quantity"`
		Price     string `yaml:"price"`
	} `yaml:"stock"`
}

// Default returns the built-in New York catalog
func Default() (*Seed, error) {
	return Load(bytes.NewReader(defaultSeed))
}

// LoadFile reads a catalog from a YAML file
func LoadFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load parses and validates a YAML catalog
func Load(r io.Reader) (*Seed, error) {
	var raw seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seed := &Seed{}
	regions := make(map[model.RegionID]*model.Region)
	for _, r := range raw.Regions {
		if r.ID == "" {
			return nil, fmt.Errorf("region without id")
		}
		region := &model.Region{
			ID:        model.RegionID(r.ID),
			Name:      r.Name,
			Neighbors: make(map[model.RegionID]int, len(r.Neighbors)),
		}
		if r.PriceModifier != "" {
			mod, err := decimal.NewFromString(r.PriceModifier)
			if err != nil || !mod.IsPositive() {
				return nil, fmt.Errorf("region %s: invalid price_modifier %q", r.ID, r.PriceModifier)
			}
			region.PriceModifier = decimal.NewNullDecimal(mod)
		}
		for n, cost := range r.Neighbors {
			if cost <= 0 {
				return nil, fmt.Errorf("region %s: travel cost to %s must be positive", r.ID, n)
			}
			region.Neighbors[model.RegionID(n)] = cost
		}
		if _, dup := regions[region.ID]; dup {
			return nil, fmt.Errorf("duplicate region %s", r.ID)
		}
		regions[region.ID] = region
		seed.Regions = append(seed.Regions, region)
	}
	for _, region := range seed.Regions {
		for n := range region.Neighbors {
			if _, ok := regions[n]; !ok {
				return nil, fmt.Errorf("region %s: unknown neighbor %s", region.ID, n)
			}
		}
	}

	stores := make(map[model.StoreID]bool)
	for _, s := range raw.Stores {
		if _, ok := regions[model.RegionID(s.Region)]; !ok {
			return nil, fmt.Errorf("store %s: unknown region %q", s.ID, s.Region)
		}
		if s.Open < 0 || s.Open > 23 || s.Close < 0 || s.Close > 23 {
			return nil, fmt.Errorf("store %s: hours must be within 0-23", s.ID)
		}
		if stores[model.StoreID(s.ID)] {
			return nil, fmt.Errorf("duplicate store %s", s.ID)
		}
		stores[model.StoreID(s.ID)] = true
		seed.Stores = append(seed.Stores, &model.Store{
			ID:             model.StoreID(s.ID),
			Name:           s.Name,
			RegionID:       model.RegionID(s.Region),
			SpecialtyGenre: s.Specialty,
			OpenHour:       s.Open,
			CloseHour:      s.Close,
		})
	}

	products := make(map[model.ProductID]bool)
	for _, p := range raw.Products {
		price, err := decimal.NewFromString(p.BasePrice)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("product %s: invalid base_price %q", p.ID, p.BasePrice)
		}
		if p.Rarity < 0 || p.Rarity > 1 {
			return nil, fmt.Errorf("product %s: rarity must be within 0..1", p.ID)
		}
		if products[model.ProductID(p.ID)] {
			return nil, fmt.Errorf("duplicate product %s", p.ID)
		}
		products[model.ProductID(p.ID)] = true
		seed.Products = append(seed.Products, &model.Product{
			ID:        model.ProductID(p.ID),
			Name:      p.Name,
			Artist:    p.Artist,
			Genre:     p.Genre,
			BasePrice: price.Round(2),
			Rarity:    p.Rarity,
		})
	}

	for _, st := range raw.Stock {
		if !stores[model.StoreID(st.Store)] {
			return nil, fmt.Errorf("stock: unknown store %q", st.Store)
		}
		if !products[model.ProductID(st.Product)] {
			return nil, fmt.Errorf("stock: unknown product %q", st.Product)
		}
		cond, err := model.ParseCondition(st.Condition)
		if err != nil {
			return nil, fmt.Errorf("stock %s/%s: %w", st.Store, st.Product, err)
		}
		if st.Quantity < 0 {
			return nil, fmt.Errorf("stock %s/%s: negative quantity", st.Store, st.Product)
		}
		entry := StockEntry{
			StoreID:   model.StoreID(st.Store),
			ProductID: model.ProductID(st.Product),
			Condition: cond,
			Quantity:  st.Quantity,
		}
		if st.Price != "" {
			price, err := decimal.NewFromString(st.Price)
			if err != nil || !price.IsPositive() {
				return nil, fmt.Errorf("stock %s/%s: invalid price %q", st.Store, st.Product, st.Price)
			}
			entry.Price = decimal.NewNullDecimal(price.Round(2))
		}
		seed.Stock = append(seed.Stock, entry)
	}

	return seed, nil
}

// Apply writes the catalog rows to storage
func (s *Seed) Apply(ctx context.Context, c storage.Catalog) error {
	for _, r := range s.Regions {
		if err := c.SaveRegion(ctx, r); err != nil {
			return fmt.Errorf("save region %s: %w", r.ID, err)
		}
	}
	for _, st := range s.Stores {
		if err := c.SaveStore(ctx, st); err != nil {
			return fmt.Errorf("save store %s: %w", st.ID, err)
		}
	}
	for _, p := range s.Products {
		if err := c.SaveProduct(ctx, p); err != nil {
			return fmt.Errorf("save product %s: %w", p.ID, err)
		}
	}
	return nil
}

// OpeningQuantity is how many copies a listing starts with. Rarer records
// come in smaller crates but never fewer than one.
func OpeningQuantity(entry StockEntry, product *model.Product, defaultStock int) int {
	if entry.Quantity > 0 {
		return entry.Quantity
	}
	q := int(math.Round((1 - product.Rarity) * float64(defaultStock)))
	return max(q, 1)
}
