package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/dependencies/mocks"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/txlog"
	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
)

type LedgerSuite struct {
	suite.Suite
	store  *memory.Storage
	ids    *mocks.MockIDs
	ledger *Ledger
	ctx    context.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.store = memory.New()
	clk := mocks.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.ledger = New(txlog.New(clk, s.ids), s.ids, clk)
	s.ctx = context.Background()

	s.atomically(func(tx storage.Tx) error {
		return tx.SavePlayer(s.ctx, &model.Player{
			ID: "P1", GameID: "G1", DisplayName: "alice",
			Cash: dec("100"), InventoryCapacity: 3, Location: "manhattan",
		})
	})
	s.atomically(func(tx storage.Tx) error {
		return tx.SaveStoreListing(s.ctx, &model.StoreListing{
			GameID: "G1", StoreID: "academy", ProductID: "blue-train",
			Condition: model.ConditionMint, Quantity: 2, CurrentPrice: dec("30"),
		})
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *LedgerSuite) atomically(fn func(tx storage.Tx) error) {
	s.Require().NoError(s.store.Atomically(s.ctx, fn))
}

func (s *LedgerSuite) buy(productID model.ProductID, cond model.Condition, price string) (*model.InventoryItem, error) {
	var item *model.InventoryItem
	err := s.store.Atomically(s.ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		if err != nil {
			return err
		}
		key := model.ListingKey{GameID: "G1", StoreID: "academy", ProductID: productID, Condition: cond}
		l, err := tx.GetStoreListing(s.ctx, key)
		if err != nil {
			return err
		}
		item, err = s.ledger.ApplyBuy(s.ctx, tx, p, l, cond, dec(price), 24)
		return err
	})
	return item, err
}

func (s *LedgerSuite) addListing(productID model.ProductID, cond model.Condition, qty int) {
	s.atomically(func(tx storage.Tx) error {
		return tx.SaveStoreListing(s.ctx, &model.StoreListing{
			GameID: "G1", StoreID: "academy", ProductID: productID,
			Condition: cond, Quantity: qty, CurrentPrice: dec("10"),
		})
	})
}

func (s *LedgerSuite) TestBuyMovesStockAndCash() {
	s.ids.QueueID("item-1", "tx-1")
	item, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)
	s.Equal(model.ItemID("item-1"), item.ID)
	s.Equal(1, item.Quantity)
	s.Equal(model.StoreID("academy"), item.StoreID)

	s.atomically(func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		s.Equal("70.00", p.Cash.StringFixed(2))

		l, err := tx.GetStoreListing(s.ctx, model.ListingKey{GameID: "G1", StoreID: "academy", ProductID: "blue-train", Condition: model.ConditionMint})
		s.Require().NoError(err)
		s.Equal(1, l.Quantity)

		recs, err := tx.ListTransactions(s.ctx, "P1")
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Equal(model.TransactionBuy, recs[0].Type)
		s.Equal(24, recs[0].Hour)
		s.Equal("30.00", recs[0].UnitPrice.StringFixed(2))
		return nil
	})
}

func (s *LedgerSuite) TestBuySameConditionTwiceIsRefused() {
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)

	_, err = s.buy("blue-train", model.ConditionMint, "30")
	s.ErrorIs(err, model.ErrDuplicateCondition)

	s.atomically(func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		s.Equal("70.00", p.Cash.StringFixed(2))
		return nil
	})
}

func (s *LedgerSuite) TestBuyDifferentConditionIsAllowed() {
	s.addListing("blue-train", model.ConditionPoor, 1)
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)
	_, err = s.buy("blue-train", model.ConditionPoor, "10")
	s.Require().NoError(err)
}

func (s *LedgerSuite) TestBuyRespectsCapacity() {
	s.addListing("kind-of-blue", model.ConditionGood, 1)
	s.addListing("a-love-supreme", model.ConditionGood, 1)
	s.addListing("giant-steps", model.ConditionGood, 1)

	for _, id := range []model.ProductID{"kind-of-blue", "a-love-supreme", "giant-steps"} {
		_, err := s.buy(id, model.ConditionGood, "10")
		s.Require().NoError(err)
	}
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.ErrorIs(err, model.ErrCapacityExceeded)
}

func (s *LedgerSuite) TestBuyNeedsFunds() {
	_, err := s.buy("blue-train", model.ConditionMint, "100.01")
	s.ErrorIs(err, model.ErrInsufficientFunds)
}

func (s *LedgerSuite) TestBuyOutOfStock() {
	s.addListing("giant-steps", model.ConditionFair, 0)
	_, err := s.buy("giant-steps", model.ConditionFair, "5")
	s.ErrorIs(err, model.ErrOutOfStock)
}

func (s *LedgerSuite) TestBuyConditionMustMatchListing() {
	err := s.store.Atomically(s.ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		l, err := tx.GetStoreListing(s.ctx, model.ListingKey{GameID: "G1", StoreID: "academy", ProductID: "blue-train", Condition: model.ConditionMint})
		s.Require().NoError(err)
		_, err = s.ledger.ApplyBuy(s.ctx, tx, p, l, model.ConditionPoor, dec("1"), 24)
		return err
	})
	s.ErrorIs(err, model.ErrInvalidRequest)
}

func (s *LedgerSuite) TestCanAcquire() {
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)

	s.atomically(func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)

		ok, err := s.ledger.CanAcquire(s.ctx, tx, p, "blue-train", model.ConditionMint)
		s.Require().NoError(err)
		s.False(ok)

		ok, err = s.ledger.CanAcquire(s.ctx, tx, p, "blue-train", model.ConditionGood)
		s.Require().NoError(err)
		s.True(ok)
		return nil
	})
}

func (s *LedgerSuite) sell(storeID model.StoreID, q model.PriceQuote) (model.CashDelta, error) {
	var delta model.CashDelta
	err := s.store.Atomically(s.ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		if err != nil {
			return err
		}
		item, err := tx.GetInventoryItem(s.ctx, "P1", "blue-train", model.ConditionMint)
		if err != nil {
			return err
		}
		delta, err = s.ledger.ApplySell(s.ctx, tx, p, item, storeID, q, 23)
		return err
	})
	return delta, err
}

func sellQuote(storeID model.StoreID, price string) model.PriceQuote {
	return model.PriceQuote{
		ProductID: "blue-train", StoreID: storeID, Condition: model.ConditionMint,
		Side: model.SideSell, BasePrice: dec("20"), UnitPrice: dec(price),
		ConditionFactor: dec("1.5"),
	}
}

func (s *LedgerSuite) TestSellCreditsAndRestocks() {
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)

	delta, err := s.sell("rough-trade", sellQuote("rough-trade", "22.50"))
	s.Require().NoError(err)
	s.Equal("22.50", delta.Amount.StringFixed(2))
	s.Equal("92.50", delta.NewCash.StringFixed(2))

	s.atomically(func(tx storage.Tx) error {
		_, err := tx.GetInventoryItem(s.ctx, "P1", "blue-train", model.ConditionMint)
		s.ErrorIs(err, model.ErrItemNotFound)

		l, err := tx.GetStoreListing(s.ctx, model.ListingKey{GameID: "G1", StoreID: "rough-trade", ProductID: "blue-train", Condition: model.ConditionMint})
		s.Require().NoError(err)
		s.Equal(1, l.Quantity)
		s.Equal("20.00", l.CurrentPrice.StringFixed(2))

		recs, err := tx.ListTransactions(s.ctx, "P1")
		s.Require().NoError(err)
		s.Require().Len(recs, 2)
		s.Equal(model.TransactionSell, recs[1].Type)
		s.Equal(23, recs[1].Hour)
		return nil
	})
}

func (s *LedgerSuite) TestSellBackIncrementsExistingListing() {
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)

	q := sellQuote("academy", "22.50")
	q.CapPrice = decimal.NewNullDecimal(dec("22.50"))
	_, err = s.sell("academy", q)
	s.Require().NoError(err)

	s.atomically(func(tx storage.Tx) error {
		l, err := tx.GetStoreListing(s.ctx, model.ListingKey{GameID: "G1", StoreID: "academy", ProductID: "blue-train", Condition: model.ConditionMint})
		s.Require().NoError(err)
		s.Equal(2, l.Quantity)
		s.Equal("30.00", l.CurrentPrice.StringFixed(2))
		return nil
	})
}

func (s *LedgerSuite) TestSellAboveCapIsRefused() {
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)

	q := sellQuote("academy", "33.75")
	q.CapPrice = decimal.NewNullDecimal(dec("22.50"))
	_, err = s.sell("academy", q)
	s.ErrorIs(err, model.ErrPriceExceedsCap)

	s.atomically(func(tx storage.Tx) error {
		item, err := tx.GetInventoryItem(s.ctx, "P1", "blue-train", model.ConditionMint)
		s.Require().NoError(err)
		s.Equal(1, item.Quantity)
		return nil
	})
}

func (s *LedgerSuite) TestSellSomeoneElsesItem() {
	err := s.store.Atomically(s.ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		item := &model.InventoryItem{ID: "x", PlayerID: "P2", ProductID: "blue-train", Condition: model.ConditionMint, Quantity: 1}
		_, err = s.ledger.ApplySell(s.ctx, tx, p, item, "academy", sellQuote("academy", "1"), 20)
		return err
	})
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *LedgerSuite) TestSellQuoteMustMatchItem() {
	_, err := s.buy("blue-train", model.ConditionMint, "30")
	s.Require().NoError(err)

	q := sellQuote("academy", "10")
	q.Condition = model.ConditionGood
	_, err = s.sell("academy", q)
	s.ErrorIs(err, model.ErrInvalidRequest)
}
