package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/storagetest"
)

func TestConformance(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return New() },
	})
}

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestReturnedPlayersAreCopies() {
	p := &model.Player{ID: "P1", GameID: "G1", Cash: decimal.NewFromInt(100), JoinedAt: time.Now()}
	s.Require().NoError(s.storage.Atomically(s.ctx, func(tx storage.Tx) error { return tx.SavePlayer(s.ctx, p) }))

	// Mutating the caller's struct must not leak into storage
	p.Cash = decimal.Zero

	s.Require().NoError(s.storage.Atomically(s.ctx, func(tx storage.Tx) error {
		got, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		s.Equal("100", got.Cash.String())
		got.Cash = decimal.NewFromInt(5)

		again, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		s.Equal("100", again.Cash.String())
		return nil
	}))
}

func (s *StorageSuite) TestRegionNeighborsAreCopied() {
	r := &model.Region{ID: "queens", Neighbors: map[model.RegionID]int{"brooklyn": 1}}
	s.Require().NoError(s.storage.SaveRegion(s.ctx, r))
	r.Neighbors["bronx"] = 3

	got, err := s.storage.GetRegion(s.ctx, "queens")
	s.Require().NoError(err)
	s.Len(got.Neighbors, 1)
}

func (s *StorageSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	called := false
	err := s.storage.Atomically(ctx, func(tx storage.Tx) error {
		called = true
		return nil
	})
	s.ErrorIs(err, context.Canceled)
	s.False(called)
}
