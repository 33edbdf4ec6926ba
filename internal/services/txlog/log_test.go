package txlog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/dependencies/mocks"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
)

type LogSuite struct {
	suite.Suite
	store *memory.Storage
	clock *mocks.MockClock
	ids   *mocks.MockIDs
	log   *Log
	ctx   context.Context
}

func TestLogSuite(t *testing.T) {
	suite.Run(t, new(LogSuite))
}

func (s *LogSuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.log = New(s.clock, s.ids)
	s.ctx = context.Background()
}

func (s *LogSuite) buy(store model.StoreID, price string, hour int) *model.TransactionRecord {
	return &model.TransactionRecord{
		GameID: "G1", PlayerID: "P1", ProductID: "blue-train", StoreID: store,
		Type: model.TransactionBuy, Condition: model.ConditionGood, Quantity: 1,
		UnitPrice: decimal.RequireFromString(price), Hour: hour,
	}
}

func (s *LogSuite) append(rec *model.TransactionRecord) error {
	return s.store.Atomically(s.ctx, func(tx storage.Tx) error {
		return s.log.Append(s.ctx, tx, rec)
	})
}

func (s *LogSuite) TestAppendStampsIDAndTime() {
	s.ids.QueueID("tx-1")
	rec := s.buy("academy", "20.00", 24)
	s.Require().NoError(s.append(rec))
	s.Equal("tx-1", rec.ID)
	s.True(rec.CreatedAt.Equal(s.clock.Now()))
}

func (s *LogSuite) TestMostRecentPurchaseTracksLatestBuy() {
	s.Require().NoError(s.append(s.buy("academy", "20.00", 24)))
	s.clock.Advance(time.Minute)
	s.Require().NoError(s.append(s.buy("rough-trade", "18.00", 22)))
	s.Require().NoError(s.append(&model.TransactionRecord{
		GameID: "G1", PlayerID: "P1", ProductID: "blue-train", StoreID: "academy",
		Type: model.TransactionSell, Condition: model.ConditionGood, Quantity: 1,
		UnitPrice: decimal.RequireFromString("15.00"), Hour: 21,
	}))

	s.Require().NoError(s.store.Atomically(s.ctx, func(tx storage.Tx) error {
		rec, ok, err := s.log.MostRecentPurchase(s.ctx, tx, "P1", "blue-train")
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Equal(model.StoreID("rough-trade"), rec.StoreID)
		s.Equal("18.00", rec.UnitPrice.StringFixed(2))
		s.Equal(22, rec.Hour)

		_, ok, err = s.log.MostRecentPurchase(s.ctx, tx, "P2", "blue-train")
		s.Require().NoError(err)
		s.False(ok)

		history, err := s.log.History(s.ctx, tx, "P1")
		s.Require().NoError(err)
		s.Len(history, 3)
		s.Equal(model.TransactionSell, history[2].Type)
		return nil
	}))
}

func (s *LogSuite) TestRejectsMalformedRecords() {
	cases := map[string]*model.TransactionRecord{
		"unknown type":       {GameID: "G1", PlayerID: "P1", Type: "gift", Quantity: 1},
		"zero quantity":      {GameID: "G1", PlayerID: "P1", ProductID: "p", StoreID: "s", Type: model.TransactionBuy, Condition: model.ConditionGood},
		"buy without store":  {GameID: "G1", PlayerID: "P1", ProductID: "p", Type: model.TransactionBuy, Condition: model.ConditionGood, Quantity: 1},
		"negative price":     {GameID: "G1", PlayerID: "P1", ProductID: "p", StoreID: "s", Type: model.TransactionSell, Condition: model.ConditionGood, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
		"transport no route": {GameID: "G1", PlayerID: "P1", Type: model.TransactionTransport, Quantity: 1},
		"no player":          {GameID: "G1", ProductID: "p", StoreID: "s", Type: model.TransactionBuy, Condition: model.ConditionGood, Quantity: 1},
	}
	for name, rec := range cases {
		s.Run(name, func() {
			s.ErrorIs(s.append(rec), model.ErrInvalidTransaction)
		})
	}
}
