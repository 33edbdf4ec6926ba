// Package roster manages who is in a game and starts it.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/vinyltrader/internal/catalog"
	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
	"github.com/mcoot/vinyltrader/internal/dependencies/idgen"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/rules"
	"github.com/mcoot/vinyltrader/internal/services/pricing"
	"github.com/mcoot/vinyltrader/internal/services/turn"
	"github.com/mcoot/vinyltrader/internal/storage"
)

const (
	// GameCodeLength is the length of generated game IDs
	GameCodeLength = 6

	maxCodeAttempts = 10
	maxNameLength   = 32
)

// Overview is a game with its live roster
type Overview struct {
	Game    *model.Game
	Phase   turn.Phase
	Players []*model.Player
}

// Controller manages game membership
type Controller struct {
	storage storage.Storage
	catalog storage.Catalog
	stock   []catalog.StockEntry
	engine  *pricing.Engine
	turns   *turn.Coordinator
	rules   rules.Rules
	clock   clock.Clock
	ids     idgen.Generator
	logger  *slog.Logger
}

// NewController creates a new roster Controller. Catalog reads go through
// cat, which may be a cache in front of storage.
func NewController(
	storage storage.Storage,
	cat storage.Catalog,
	stock []catalog.StockEntry,
	engine *pricing.Engine,
	turns *turn.Coordinator,
	rules rules.Rules,
	clock clock.Clock,
	ids idgen.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		catalog: cat,
		stock:   stock,
		engine:  engine,
		turns:   turns,
		rules:   rules,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// CreateGame creates a waiting game with the named player as host
func (c *Controller) CreateGame(ctx context.Context, hostName string, maxHours int) (*model.Game, *model.Player, error) {
	name, err := validName(hostName)
	if err != nil {
		return nil, nil, err
	}
	if maxHours == 0 {
		maxHours = c.rules.DefaultMaxHours
	}
	if maxHours < 0 {
		return nil, nil, model.Invalid("max hours must be positive")
	}
	start, err := c.startRegion(ctx)
	if err != nil {
		return nil, nil, err
	}

	var game *model.Game
	var host *model.Player
	err = c.atomically(ctx, func(tx storage.Tx) error {
		id, err := c.newGameID(ctx, tx)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		host = c.newPlayer(id, name, start)
		game = &model.Game{
			ID:             id,
			HostID:         host.ID,
			Status:         model.GameStatusWaiting,
			CurrentHour:    maxHours,
			MaxHours:       maxHours,
			StartClockHour: c.rules.StartClockHour,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.SaveGame(ctx, game); err != nil {
			return err
		}
		return tx.SavePlayer(ctx, host)
	})
	if err != nil {
		return nil, nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("host_id", string(host.ID)),
		slog.Int("max_hours", maxHours),
	)
	return game, host, nil
}

// GetGame returns the game with its roster and phase
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*Overview, error) {
	var out *Overview
	err := c.storage.Atomically(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		players, err := tx.ListPlayers(ctx, gameID)
		if err != nil {
			return err
		}
		out = &Overview{Game: g, Players: players, Phase: c.turns.Phase(g, players)}
		return nil
	})
	return out, err
}

// JoinGame adds a player. Joining is allowed until the game completes; a
// late joiner starts the current hour with a fresh budget.
func (c *Controller) JoinGame(ctx context.Context, gameID model.GameID, displayName string) (*model.Player, error) {
	name, err := validName(displayName)
	if err != nil {
		return nil, err
	}
	start, err := c.startRegion(ctx)
	if err != nil {
		return nil, err
	}

	var player *model.Player
	err = c.atomically(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if g.IsOver() {
			return model.ErrGameComplete
		}

		player = c.newPlayer(gameID, name, start)
		if err := tx.SavePlayer(ctx, player); err != nil {
			return err
		}

		// Touch the game so an in-flight barrier check sees the new roster
		g.UpdatedAt = c.clock.Now()
		return tx.SaveGame(ctx, g)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(player.ID)),
	)
	return player, nil
}

// LeaveGame removes a player and everything they hold. The barrier is
// re-evaluated against whoever remains, so leaving can end the hour.
func (c *Controller) LeaveGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (model.TurnResult, error) {
	var res model.TurnResult
	err := c.atomically(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		p, err := tx.GetPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		if p.GameID != gameID {
			return model.ErrNotInGame
		}

		items, err := tx.ListInventory(ctx, playerID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.DeleteInventoryItem(ctx, it.ID); err != nil {
				return err
			}
		}
		if err := tx.DeletePlayer(ctx, playerID); err != nil {
			return err
		}

		remaining, err := tx.ListPlayers(ctx, gameID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			g.Status = model.GameStatusCompleted
			g.UpdatedAt = c.clock.Now()
			res = model.TurnResult{NewHour: g.CurrentHour, GameOver: true}
			return tx.SaveGame(ctx, g)
		}
		if g.HostID == playerID {
			g.HostID = remaining[0].ID
		}

		res, err = c.turns.Settle(ctx, tx, g)
		return err
	})
	if err != nil {
		return model.TurnResult{}, err
	}

	c.logger.Info("player left",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Bool("hour_advanced", res.AllCompleted),
	)
	return res, nil
}

// StartGame opens the market and starts the clock. Only the host may start.
func (c *Controller) StartGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error) {
	listings, err := c.openingListings(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var game *model.Game
	err = c.atomically(ctx, func(tx storage.Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if g.HostID != playerID {
			return model.ErrNotHost
		}
		switch g.Status {
		case model.GameStatusActive:
			return model.ErrGameInProgress
		case model.GameStatusCompleted:
			return model.ErrGameComplete
		}

		for _, l := range listings {
			if err := tx.SaveStoreListing(ctx, l.Clone()); err != nil {
				return err
			}
		}

		g.Status = model.GameStatusActive
		g.UpdatedAt = c.clock.Now()
		if err := tx.SaveGame(ctx, g); err != nil {
			return err
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("game_id", string(gameID)),
		slog.Int("listing_count", len(listings)),
		slog.Int("clock_hour", game.ClockHour()),
	)
	return game, nil
}

func (c *Controller) openingListings(ctx context.Context, gameID model.GameID) ([]*model.StoreListing, error) {
	out := make([]*model.StoreListing, 0, len(c.stock))
	for _, entry := range c.stock {
		product, err := c.catalog.GetProduct(ctx, entry.ProductID)
		if err != nil {
			return nil, fmt.Errorf("opening stock for %s: %w", entry.ProductID, err)
		}
		price := entry.Price.Decimal
		if !entry.Price.Valid {
			price = c.engine.ListingPrice(product)
		}
		out = append(out, &model.StoreListing{
			GameID:       gameID,
			StoreID:      entry.StoreID,
			ProductID:    entry.ProductID,
			Condition:    entry.Condition,
			Quantity:     catalog.OpeningQuantity(entry, product, c.rules.DefaultStock),
			CurrentPrice: price,
		})
	}
	return out, nil
}

func (c *Controller) newGameID(ctx context.Context, tx storage.Tx) (model.GameID, error) {
	for range maxCodeAttempts {
		id := model.GameID(c.ids.Code(GameCodeLength))
		_, err := tx.GetGame(ctx, id)
		if errors.Is(err, model.ErrGameNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free game code after %d attempts", maxCodeAttempts)
}

func (c *Controller) newPlayer(gameID model.GameID, name string, start model.RegionID) *model.Player {
	return &model.Player{
		ID:                model.PlayerID(c.ids.NewID()),
		GameID:            gameID,
		DisplayName:       name,
		Cash:              c.rules.StartingCash,
		InventoryCapacity: c.rules.InventoryCapacity,
		Location:          start,
		JoinedAt:          c.clock.Now(),
	}
}

func (c *Controller) startRegion(ctx context.Context) (model.RegionID, error) {
	if c.rules.StartRegion != "" {
		r, err := c.catalog.GetRegion(ctx, model.RegionID(c.rules.StartRegion))
		if err != nil {
			return "", err
		}
		return r.ID, nil
	}
	regions, err := c.catalog.ListRegions(ctx)
	if err != nil {
		return "", err
	}
	if len(regions) == 0 {
		return "", model.ErrRegionNotFound
	}
	return regions[0].ID, nil
}

func (c *Controller) atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	return storage.AtomicallyWithRetry(ctx, c.storage, c.rules.MaxTxRetries, fn)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.Invalid("display name is required")
	}
	if len(name) > maxNameLength {
		return "", model.Invalid("display name is longer than %d characters", maxNameLength)
	}
	return name, nil
}

// ControllerInterface for dependency injection
type ControllerInterface interface {
	CreateGame(ctx context.Context, hostName string, maxHours int) (*model.Game, *model.Player, error)
	GetGame(ctx context.Context, gameID model.GameID) (*Overview, error)
	JoinGame(ctx context.Context, gameID model.GameID, displayName string) (*model.Player, error)
	LeaveGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (model.TurnResult, error)
	StartGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error)
}

var _ ControllerInterface = (*Controller)(nil)
