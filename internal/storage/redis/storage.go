package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Atomically runs fn inside WATCH/MULTI/EXEC. Every key fn reads is watched
// and every write is buffered until fn returns, then applied in one EXEC.
func (s *Storage) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		t := newTx(rtx, s.cfg)
		if err := fn(t); err != nil {
			return err
		}
		return t.commit(ctx)
	})
	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrConcurrentModification
	}
	return err
}

// Catalog operations. Catalog rows are written outside game transactions
// and never expire.

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	var p model.Product
	if err := s.getJSON(ctx, productKey(id), &p, model.ErrProductNotFound); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) ListProducts(ctx context.Context) ([]*model.Product, error) {
	ids, err := s.client.SMembers(ctx, productIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Product, 0, len(ids))
	for _, id := range sortedStrings(ids) {
		p, err := s.GetProduct(ctx, model.ProductID(id))
		if err != nil {
			if errors.Is(err, model.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Storage) SaveProduct(ctx context.Context, product *model.Product) error {
	return s.saveCatalogRow(ctx, productKey(product.ID), productIndexKey(), string(product.ID), product)
}

func (s *Storage) GetStore(ctx context.Context, id model.StoreID) (*model.Store, error) {
	var st model.Store
	if err := s.getJSON(ctx, storeKey(id), &st, model.ErrStoreNotFound); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Storage) ListStores(ctx context.Context) ([]*model.Store, error) {
	ids, err := s.client.SMembers(ctx, storeIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Store, 0, len(ids))
	for _, id := range sortedStrings(ids) {
		st, err := s.GetStore(ctx, model.StoreID(id))
		if err != nil {
			if errors.Is(err, model.ErrStoreNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Storage) SaveStore(ctx context.Context, store *model.Store) error {
	return s.saveCatalogRow(ctx, storeKey(store.ID), storeIndexKey(), string(store.ID), store)
}

func (s *Storage) GetRegion(ctx context.Context, id model.RegionID) (*model.Region, error) {
	var r model.Region
	if err := s.getJSON(ctx, regionKey(id), &r, model.ErrRegionNotFound); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Storage) ListRegions(ctx context.Context) ([]*model.Region, error) {
	ids, err := s.client.SMembers(ctx, regionIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Region, 0, len(ids))
	for _, id := range sortedStrings(ids) {
		r, err := s.GetRegion(ctx, model.RegionID(id))
		if err != nil {
			if errors.Is(err, model.ErrRegionNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Storage) SaveRegion(ctx context.Context, region *model.Region) error {
	return s.saveCatalogRow(ctx, regionKey(region.ID), regionIndexKey(), string(region.ID), region)
}

func (s *Storage) getJSON(ctx context.Context, key string, dst any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (s *Storage) saveCatalogRow(ctx context.Context, key, indexKey, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, indexKey, id)
	_, err = pipe.Exec(ctx)
	return err
}
