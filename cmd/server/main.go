package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/vinyltrader/internal/api"
	"github.com/mcoot/vinyltrader/internal/factory"
	"github.com/mcoot/vinyltrader/internal/storage/cache"
	redisstorage "github.com/mcoot/vinyltrader/internal/storage/redis"
	sqlstorage "github.com/mcoot/vinyltrader/internal/storage/sql"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A .env file is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("could not load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.Close()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		RosterController: app.RosterController,
		GameController:   app.GameController,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	if err := serverConfig.ApplyEnv(os.Getenv); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// configFromEnv builds the factory config from environment variables
func configFromEnv(logger *slog.Logger) (factory.Config, error) {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		CatalogPath: os.Getenv("CATALOG_PATH"),
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypeSQL:
		sqlCfg := sqlstorage.DefaultConfig()
		if dialect := os.Getenv("DB_DIALECT"); dialect != "" {
			sqlCfg.Dialect = sqlstorage.Dialect(dialect)
		}
		if path := os.Getenv("DB_SQLITE_PATH"); path != "" {
			sqlCfg.SQLitePath = path
		}
		sqlCfg.DSN = os.Getenv("DATABASE_URL")
		if sqlCfg.Dialect == sqlstorage.DialectPostgres && sqlCfg.DSN == "" {
			return cfg, errors.New("DATABASE_URL required when DB_DIALECT=postgres")
		}
		cfg.SQLConfig = &sqlCfg
	}

	if ttl := os.Getenv("CATALOG_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return cfg, errors.New("CATALOG_CACHE_TTL must be a duration like 5m")
		}
		cfg.CatalogCache = cache.Config{Size: cache.DefaultConfig().Size, TTL: d}
	}

	return cfg, nil
}
