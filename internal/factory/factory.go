package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/vinyltrader/internal/catalog"
	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
	"github.com/mcoot/vinyltrader/internal/dependencies/idgen"
	"github.com/mcoot/vinyltrader/internal/rules"
	"github.com/mcoot/vinyltrader/internal/services/budget"
	"github.com/mcoot/vinyltrader/internal/services/game"
	"github.com/mcoot/vinyltrader/internal/services/ledger"
	"github.com/mcoot/vinyltrader/internal/services/pricing"
	"github.com/mcoot/vinyltrader/internal/services/roster"
	"github.com/mcoot/vinyltrader/internal/services/turn"
	"github.com/mcoot/vinyltrader/internal/services/txlog"
	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/cache"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
	redisstorage "github.com/mcoot/vinyltrader/internal/storage/redis"
	sqlstorage "github.com/mcoot/vinyltrader/internal/storage/sql"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQL    = "sql"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Catalog *cache.Catalog
	Seed    *catalog.Seed

	// External dependencies
	Clock clock.Clock
	IDs   idgen.Generator

	Rules rules.Rules

	// Services
	PricingEngine    *pricing.Engine
	Budget           *budget.Budget
	TurnCoordinator  *turn.Coordinator
	TransactionLog   *txlog.Log
	Ledger           *ledger.Ledger
	RosterController *roster.Controller
	GameController   *game.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sql")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds database settings (optional, defaults to local SQLite)
	SQLConfig *sqlstorage.Config
	// CatalogPath points at a YAML catalog. If empty the built-in one is used.
	CatalogPath string
	// CatalogCache sizes the catalog cache. Zero value means defaults.
	CatalogCache cache.Config
	// Rules overrides the game rules. If nil, rules.Default() is used.
	Rules *rules.Rules
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	seed, err := loadSeed(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := seed.Apply(ctx, store); err != nil {
		store.Close()
		return nil, fmt.Errorf("apply catalog: %w", err)
	}

	r := rules.Default()
	if cfg.Rules != nil {
		r = *cfg.Rules
	}

	cacheCfg := cfg.CatalogCache
	if cacheCfg.Size == 0 && cacheCfg.TTL == 0 {
		cacheCfg = cache.DefaultConfig()
	}

	logger.Info("application configured",
		slog.String("storage", storageType(cfg)),
		slog.Int("regions", len(seed.Regions)),
		slog.Int("stores", len(seed.Stores)),
		slog.Int("products", len(seed.Products)),
	)

	return newWithDependencies(store, seed, clock.New(), idgen.New(), r, cacheCfg, logger), nil
}

func storageType(cfg Config) string {
	if cfg.StorageType == "" {
		return StorageTypeMemory
	}
	return cfg.StorageType
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	switch storageType(cfg) {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQL:
		sqlCfg := sqlstorage.DefaultConfig()
		if cfg.SQLConfig != nil {
			sqlCfg = *cfg.SQLConfig
		}
		return sqlstorage.Open(ctx, sqlCfg)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sql'")
	}
}

func loadSeed(path string) (*catalog.Seed, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	seed *catalog.Seed,
	clk clock.Clock,
	ids idgen.Generator,
	r rules.Rules,
	cacheCfg cache.Config,
	logger *slog.Logger,
) *App {
	if r.StartRegion == "" && len(seed.Regions) > 0 {
		r.StartRegion = string(seed.Regions[0].ID)
	}

	catalogCache := cache.NewCatalog(store, cacheCfg)
	engine := pricing.New(pricing.DefaultTable())
	budgetService := budget.New(r.ActionsPerHour)
	turns := turn.New(budgetService, r.LoanInterestRate, clk)
	log := txlog.New(clk, ids)
	ledgerService := ledger.New(log, ids, clk)
	rosterController := roster.NewController(store, catalogCache, seed.Stock, engine, turns, r, clk, ids, logger)
	gameController := game.NewController(store, catalogCache, engine, ledgerService, budgetService, turns, log, r, clk, logger)

	return &App{
		Storage:          store,
		Catalog:          catalogCache,
		Seed:             seed,
		Clock:            clk,
		IDs:              ids,
		Rules:            r,
		PricingEngine:    engine,
		Budget:           budgetService,
		TurnCoordinator:  turns,
		TransactionLog:   log,
		Ledger:           ledgerService,
		RosterController: rosterController,
		GameController:   gameController,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
