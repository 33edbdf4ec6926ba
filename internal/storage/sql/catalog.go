package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/model"
)

type productRow struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Artist    string          `db:"artist"`
	Genre     string          `db:"genre"`
	BasePrice decimal.Decimal `db:"base_price"`
	Rarity    float64         `db:"rarity"`
}

func (r productRow) toModel() *model.Product {
	return &model.Product{
		ID:        model.ProductID(r.ID),
		Name:      r.Name,
		Artist:    r.Artist,
		Genre:     r.Genre,
		BasePrice: r.BasePrice,
		Rarity:    r.Rarity,
	}
}

type storeRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	RegionID       string `db:"region_id"`
	SpecialtyGenre string `db:"specialty_genre"`
	OpenHour       int    `db:"open_hour"`
	CloseHour      int    `db:"close_hour"`
}

func (r storeRow) toModel() *model.Store {
	return &model.Store{
		ID:             model.StoreID(r.ID),
		Name:           r.Name,
		RegionID:       model.RegionID(r.RegionID),
		SpecialtyGenre: r.SpecialtyGenre,
		OpenHour:       r.OpenHour,
		CloseHour:      r.CloseHour,
	}
}

type regionRow struct {
	ID            string              `db:"id"`
	Name          string              `db:"name"`
	PriceModifier decimal.NullDecimal `db:"price_modifier"`
	Neighbors     string              `db:"neighbors"`
}

func (r regionRow) toModel() (*model.Region, error) {
	region := &model.Region{
		ID:            model.RegionID(r.ID),
		Name:          r.Name,
		PriceModifier: r.PriceModifier,
	}
	if r.Neighbors != "" {
		if err := json.Unmarshal([]byte(r.Neighbors), &region.Neighbors); err != nil {
			return nil, fmt.Errorf("decode neighbors of %s: %w", r.ID, err)
		}
	}
	return region, nil
}

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT * FROM products WHERE id = ?"), string(id))
	if err != nil {
		return nil, notFound(err, model.ErrProductNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) ListProducts(ctx context.Context) ([]*model.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM products ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]*model.Product, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *Storage) SaveProduct(ctx context.Context, p *model.Product) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO products (id, name, artist, genre, base_price, rarity)
		VALUES (:id, :name, :artist, :genre, :base_price, :rarity)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, artist = excluded.artist, genre = excluded.genre,
			base_price = excluded.base_price, rarity = excluded.rarity`,
		productRow{
			ID:        string(p.ID),
			Name:      p.Name,
			Artist:    p.Artist,
			Genre:     p.Genre,
			BasePrice: p.BasePrice,
			Rarity:    p.Rarity,
		})
	return err
}

func (s *Storage) GetStore(ctx context.Context, id model.StoreID) (*model.Store, error) {
	var row storeRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT * FROM stores WHERE id = ?"), string(id))
	if err != nil {
		return nil, notFound(err, model.ErrStoreNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) ListStores(ctx context.Context) ([]*model.Store, error) {
	var rows []storeRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM stores ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]*model.Store, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *Storage) SaveStore(ctx context.Context, st *model.Store) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO stores (id, name, region_id, specialty_genre, open_hour, close_hour)
		VALUES (:id, :name, :region_id, :specialty_genre, :open_hour, :close_hour)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, region_id = excluded.region_id,
			specialty_genre = excluded.specialty_genre,
			open_hour = excluded.open_hour, close_hour = excluded.close_hour`,
		storeRow{
			ID:             string(st.ID),
			Name:           st.Name,
			RegionID:       string(st.RegionID),
			SpecialtyGenre: st.SpecialtyGenre,
			OpenHour:       st.OpenHour,
			CloseHour:      st.CloseHour,
		})
	return err
}

func (s *Storage) GetRegion(ctx context.Context, id model.RegionID) (*model.Region, error) {
	var row regionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT * FROM regions WHERE id = ?"), string(id))
	if err != nil {
		return nil, notFound(err, model.ErrRegionNotFound)
	}
	return row.toModel()
}

func (s *Storage) ListRegions(ctx context.Context) ([]*model.Region, error) {
	var rows []regionRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM regions ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]*model.Region, 0, len(rows))
	for _, r := range rows {
		region, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, region)
	}
	return out, nil
}

func (s *Storage) SaveRegion(ctx context.Context, r *model.Region) error {
	neighbors := r.Neighbors
	if neighbors == nil {
		neighbors = map[model.RegionID]int{}
	}
	data, err := json.Marshal(neighbors)
	if err != nil {
		return fmt.Errorf("encode neighbors: %w", err)
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO regions (id, name, price_modifier, neighbors)
		VALUES (:id, :name, :price_modifier, :neighbors)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, price_modifier = excluded.price_modifier,
			neighbors = excluded.neighbors`,
		regionRow{
			ID:            string(r.ID),
			Name:          r.Name,
			PriceModifier: r.PriceModifier,
			Neighbors:     string(data),
		})
	return err
}
