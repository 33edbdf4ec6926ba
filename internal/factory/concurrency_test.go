package factory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/catalog"
	"github.com/mcoot/vinyltrader/internal/dependencies/mocks"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/game"
	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/cache"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
	redisstorage "github.com/mcoot/vinyltrader/internal/storage/redis"
	sqlstorage "github.com/mcoot/vinyltrader/internal/storage/sql"
	"github.com/mcoot/vinyltrader/internal/testutil"
)

const racers = 6

// ConcurrencySuite runs simultaneous requests against one backend
type ConcurrencySuite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	app     *App
	players []model.PlayerID
	ctx     context.Context
}

func TestConcurrencyMemory(t *testing.T) {
	suite.Run(t, &ConcurrencySuite{
		NewStorage: func(t *testing.T) storage.Storage { return memory.New() },
	})
}

func TestConcurrencyRedis(t *testing.T) {
	suite.Run(t, &ConcurrencySuite{
		NewStorage: func(t *testing.T) storage.Storage {
			mini := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
			return redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
		},
	})
}

func TestConcurrencySQLite(t *testing.T) {
	suite.Run(t, &ConcurrencySuite{
		NewStorage: func(t *testing.T) storage.Storage {
			s, err := sqlstorage.Open(context.Background(), sqlstorage.Config{
				Dialect:    sqlstorage.DialectSQLite,
				SQLitePath: filepath.Join(t.TempDir(), "race.sqlite"),
			})
			require.NoError(t, err)
			return s
		},
	})
}

func (s *ConcurrencySuite) SetupTest() {
	s.ctx = context.Background()

	store := s.NewStorage(s.T())
	s.T().Cleanup(func() { store.Close() })
	seed, err := catalog.Default()
	s.Require().NoError(err)
	s.Require().NoError(seed.Apply(s.ctx, store))

	ids := mocks.NewMockIDs()
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.app = newWithDependencies(store, seed, clk, ids, TestRules(), cache.DefaultConfig(), testutil.NopLogger())

	ids.QueueCode("RACE01")
	g, host, err := s.app.RosterController.CreateGame(s.ctx, "Host", 0)
	s.Require().NoError(err)
	s.players = []model.PlayerID{host.ID}
	for i := 1; i < racers; i++ {
		p, err := s.app.RosterController.JoinGame(s.ctx, g.ID, fmt.Sprintf("Racer %d", i))
		s.Require().NoError(err)
		s.players = append(s.players, p.ID)
	}
	_, err = s.app.RosterController.StartGame(s.ctx, g.ID, host.ID)
	s.Require().NoError(err)
}

// race runs fn once per player at the same moment. A conflict that outlasts
// the controller's own retries is retried here, as any client would.
func (s *ConcurrencySuite) race(fn func(id model.PlayerID) error) []error {
	start := make(chan struct{})
	errs := make([]error, len(s.players))
	var wg sync.WaitGroup
	for i, id := range s.players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for range 100 {
				errs[i] = fn(id)
				if !errors.Is(errs[i], model.ErrConcurrentModification) {
					return
				}
			}
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

func (s *ConcurrencySuite) game() *model.Game {
	var g *model.Game
	s.Require().NoError(s.app.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		var err error
		g, err = tx.GetGame(s.ctx, "RACE01")
		return err
	}))
	return g
}

func (s *ConcurrencySuite) TestSimultaneousEndTurnsAdvanceOnce() {
	errs := s.race(func(id model.PlayerID) error {
		_, err := s.app.GameController.EndTurn(s.ctx, id)
		return err
	})
	for i, err := range errs {
		s.NoError(err, "player %s", s.players[i])
	}

	s.Equal(1, s.game().CurrentHour)
	for _, id := range s.players {
		state, err := s.app.GameController.PlayerState(s.ctx, id)
		s.Require().NoError(err)
		s.False(state.Player.TurnCompleted, "player %s", id)
	}
}

func (s *ConcurrencySuite) TestLastUnitSellsOnce() {
	key := model.ListingKey{GameID: "RACE01", StoreID: "academy-records", ProductID: "blue-train", Condition: model.ConditionGood}
	s.Require().NoError(s.app.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		l, err := tx.GetStoreListing(s.ctx, key)
		if err != nil {
			return err
		}
		l.Quantity = 1
		return tx.SaveStoreListing(s.ctx, l)
	}))

	errs := s.race(func(id model.PlayerID) error {
		_, err := s.app.GameController.Buy(s.ctx, game.BuyRequest{
			PlayerID: id, StoreID: key.StoreID, ProductID: key.ProductID, Condition: key.Condition,
		})
		return err
	})

	var sold int
	for _, err := range errs {
		if err == nil {
			sold++
			continue
		}
		s.ErrorIs(err, model.ErrOutOfStock)
	}
	s.Equal(1, sold)

	var held int
	s.Require().NoError(s.app.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		l, err := tx.GetStoreListing(s.ctx, key)
		s.Require().NoError(err)
		s.Equal(0, l.Quantity)
		for _, id := range s.players {
			items, err := tx.ListInventory(s.ctx, id)
			s.Require().NoError(err)
			held += len(items)
		}
		return nil
	}))
	s.Equal(1, held)
}
