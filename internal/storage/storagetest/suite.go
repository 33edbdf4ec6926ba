// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Suite runs against a fresh, empty backend for every test
type Suite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	store storage.Storage
	ctx   context.Context
	now   time.Time
}

func (s *Suite) SetupTest() {
	s.store = s.NewStorage(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *Suite) atomically(fn func(tx storage.Tx) error) error {
	return s.store.Atomically(s.ctx, fn)
}

func (s *Suite) mustAtomically(fn func(tx storage.Tx) error) {
	s.Require().NoError(s.atomically(fn))
}

func (s *Suite) newGame(id model.GameID) *model.Game {
	g := &model.Game{
		ID:             id,
		HostID:         "host",
		Status:         model.GameStatusWaiting,
		CurrentHour:    24,
		MaxHours:       24,
		StartClockHour: 8,
		CreatedAt:      s.now,
		UpdatedAt:      s.now,
	}
	s.mustAtomically(func(tx storage.Tx) error { return tx.SaveGame(s.ctx, g) })
	return g
}

func (s *Suite) newPlayer(id model.PlayerID, gameID model.GameID, joined time.Time) *model.Player {
	p := &model.Player{
		ID:                id,
		GameID:            gameID,
		DisplayName:       string(id),
		Cash:              decimal.NewFromInt(100),
		LoanAmount:        decimal.Zero,
		InventoryCapacity: 10,
		Location:          "manhattan",
		JoinedAt:          joined,
	}
	s.mustAtomically(func(tx storage.Tx) error { return tx.SavePlayer(s.ctx, p) })
	return p
}

// Catalog

func (s *Suite) TestCatalogRoundTrip() {
	s.Require().NoError(s.store.SaveProduct(s.ctx, &model.Product{
		ID: "blue-train", Name: "Blue Train", Artist: "John Coltrane", Genre: "Jazz",
		BasePrice: decimal.RequireFromString("20.00"), Rarity: 0.4,
	}))
	s.Require().NoError(s.store.SaveStore(s.ctx, &model.Store{
		ID: "academy", Name: "Academy Records", RegionID: "manhattan", SpecialtyGenre: "Jazz", OpenHour: 10, CloseHour: 22,
	}))
	s.Require().NoError(s.store.SaveRegion(s.ctx, &model.Region{
		ID: "manhattan", Name: "Manhattan",
		PriceModifier: decimal.NewNullDecimal(decimal.RequireFromString("1.25")),
		Neighbors:     map[model.RegionID]int{"brooklyn": 2},
	}))
	s.Require().NoError(s.store.SaveRegion(s.ctx, &model.Region{ID: "queens", Name: "Queens"}))

	p, err := s.store.GetProduct(s.ctx, "blue-train")
	s.Require().NoError(err)
	s.Equal("Jazz", p.Genre)
	s.Equal("20.00", p.BasePrice.StringFixed(2))
	s.InDelta(0.4, p.Rarity, 1e-9)

	st, err := s.store.GetStore(s.ctx, "academy")
	s.Require().NoError(err)
	s.Equal(model.RegionID("manhattan"), st.RegionID)
	s.Equal(10, st.OpenHour)

	r, err := s.store.GetRegion(s.ctx, "manhattan")
	s.Require().NoError(err)
	s.Equal("1.25", r.Modifier().StringFixed(2))
	s.Equal(2, r.Neighbors["brooklyn"])

	q, err := s.store.GetRegion(s.ctx, "queens")
	s.Require().NoError(err)
	s.False(q.PriceModifier.Valid)

	regions, err := s.store.ListRegions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(regions, 2)
	s.Equal(model.RegionID("manhattan"), regions[0].ID)

	// Saving again overwrites
	p.BasePrice = decimal.RequireFromString("25.00")
	s.Require().NoError(s.store.SaveProduct(s.ctx, p))
	products, err := s.store.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(products, 1)
	s.Equal("25.00", products[0].BasePrice.StringFixed(2))

	stores, err := s.store.ListStores(s.ctx)
	s.Require().NoError(err)
	s.Len(stores, 1)
}

func (s *Suite) TestCatalogNotFound() {
	_, err := s.store.GetProduct(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProductNotFound)
	_, err = s.store.GetStore(s.ctx, "missing")
	s.ErrorIs(err, model.ErrStoreNotFound)
	_, err = s.store.GetRegion(s.ctx, "missing")
	s.ErrorIs(err, model.ErrRegionNotFound)
}

// Games

func (s *Suite) TestGameCreateAndUpdate() {
	g := s.newGame("G1")
	s.Equal(int64(1), g.Version)

	g.CurrentHour = 23
	s.mustAtomically(func(tx storage.Tx) error { return tx.SaveGame(s.ctx, g) })
	s.Equal(int64(2), g.Version)

	s.mustAtomically(func(tx storage.Tx) error {
		got, err := tx.GetGame(s.ctx, "G1")
		s.Require().NoError(err)
		s.Equal(23, got.CurrentHour)
		s.Equal(int64(2), got.Version)
		s.Equal(model.GameStatusWaiting, got.Status)
		return nil
	})
}

func (s *Suite) TestGameNotFound() {
	err := s.atomically(func(tx storage.Tx) error {
		_, err := tx.GetGame(s.ctx, "nope")
		return err
	})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestStaleVersionIsConflict() {
	g := s.newGame("G1")
	stale := *g

	g.CurrentHour = 23
	s.mustAtomically(func(tx storage.Tx) error { return tx.SaveGame(s.ctx, g) })

	stale.CurrentHour = 22
	err := s.atomically(func(tx storage.Tx) error { return tx.SaveGame(s.ctx, &stale) })
	s.ErrorIs(err, model.ErrConcurrentModification)
	s.True(model.IsRetryable(err))
}

func (s *Suite) TestCreatingExistingRowIsConflict() {
	s.newGame("G1")
	err := s.atomically(func(tx storage.Tx) error {
		return tx.SaveGame(s.ctx, &model.Game{ID: "G1", Status: model.GameStatusWaiting, CreatedAt: s.now, UpdatedAt: s.now})
	})
	s.ErrorIs(err, model.ErrConcurrentModification)
}

func (s *Suite) TestFailedTransactionLeavesNoTrace() {
	s.newGame("G1")
	boom := errors.New("boom")

	err := s.atomically(func(tx storage.Tx) error {
		p := &model.Player{ID: "P1", GameID: "G1", DisplayName: "Ann", Cash: decimal.NewFromInt(100), JoinedAt: s.now}
		if err := tx.SavePlayer(s.ctx, p); err != nil {
			return err
		}
		g, err := tx.GetGame(s.ctx, "G1")
		if err != nil {
			return err
		}
		g.CurrentHour = 1
		if err := tx.SaveGame(s.ctx, g); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	s.mustAtomically(func(tx storage.Tx) error {
		_, err := tx.GetPlayer(s.ctx, "P1")
		s.ErrorIs(err, model.ErrPlayerNotFound)
		g, err := tx.GetGame(s.ctx, "G1")
		s.Require().NoError(err)
		s.Equal(24, g.CurrentHour)
		s.Equal(int64(1), g.Version)
		return nil
	})
}

func (s *Suite) TestReadsSeeOwnWrites() {
	s.newGame("G1")
	s.mustAtomically(func(tx storage.Tx) error {
		g, err := tx.GetGame(s.ctx, "G1")
		s.Require().NoError(err)
		g.CurrentHour = 10
		s.Require().NoError(tx.SaveGame(s.ctx, g))

		again, err := tx.GetGame(s.ctx, "G1")
		s.Require().NoError(err)
		s.Equal(10, again.CurrentHour)

		// A second save with the fresh version succeeds in the same transaction
		again.CurrentHour = 9
		return tx.SaveGame(s.ctx, again)
	})
}

// Players

func (s *Suite) TestPlayersListedInJoinOrder() {
	s.newGame("G1")
	s.newGame("G2")
	s.newPlayer("zed", "G1", s.now)
	s.newPlayer("amy", "G1", s.now.Add(time.Minute))
	s.newPlayer("other", "G2", s.now)

	s.mustAtomically(func(tx storage.Tx) error {
		players, err := tx.ListPlayers(s.ctx, "G1")
		s.Require().NoError(err)
		s.Require().Len(players, 2)
		s.Equal(model.PlayerID("zed"), players[0].ID)
		s.Equal(model.PlayerID("amy"), players[1].ID)
		s.Equal("100.00", players[0].Cash.StringFixed(2))
		return nil
	})
}

func (s *Suite) TestPlayerUpdateAndDelete() {
	s.newGame("G1")
	p := s.newPlayer("P1", "G1", s.now)

	p.Cash = decimal.RequireFromString("70.00")
	p.ActionsUsedThisHour = 3
	p.ActionsOverflow = 1
	p.TurnCompleted = true
	s.mustAtomically(func(tx storage.Tx) error { return tx.SavePlayer(s.ctx, p) })

	s.mustAtomically(func(tx storage.Tx) error {
		got, err := tx.GetPlayer(s.ctx, "P1")
		s.Require().NoError(err)
		s.Equal("70.00", got.Cash.StringFixed(2))
		s.Equal(3, got.ActionsUsedThisHour)
		s.Equal(1, got.ActionsOverflow)
		s.True(got.TurnCompleted)
		s.True(got.JoinedAt.Equal(s.now))
		return tx.DeletePlayer(s.ctx, "P1")
	})

	s.mustAtomically(func(tx storage.Tx) error {
		_, err := tx.GetPlayer(s.ctx, "P1")
		s.ErrorIs(err, model.ErrPlayerNotFound)
		players, err := tx.ListPlayers(s.ctx, "G1")
		s.Require().NoError(err)
		s.Empty(players)
		return nil
	})
}

// Market

func (s *Suite) TestStoreListings() {
	s.newGame("G1")
	listings := []*model.StoreListing{
		{GameID: "G1", StoreID: "academy", ProductID: "kind-of-blue", Condition: model.ConditionPoor, Quantity: 1, CurrentPrice: decimal.RequireFromString("10.00")},
		{GameID: "G1", StoreID: "academy", ProductID: "kind-of-blue", Condition: model.ConditionMint, Quantity: 2, CurrentPrice: decimal.RequireFromString("30.00")},
		{GameID: "G1", StoreID: "academy", ProductID: "blue-train", Condition: model.ConditionGood, Quantity: 3, CurrentPrice: decimal.RequireFromString("20.00")},
		{GameID: "G1", StoreID: "rough-trade", ProductID: "blue-train", Condition: model.ConditionGood, Quantity: 4, CurrentPrice: decimal.RequireFromString("21.00")},
	}
	s.mustAtomically(func(tx storage.Tx) error {
		for _, l := range listings {
			if err := tx.SaveStoreListing(s.ctx, l); err != nil {
				return err
			}
		}
		return nil
	})

	s.mustAtomically(func(tx storage.Tx) error {
		got, err := tx.ListStoreListings(s.ctx, "G1", "academy")
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(model.ProductID("blue-train"), got[0].ProductID)
		s.Equal(model.ConditionMint, got[1].Condition)
		s.Equal(model.ConditionPoor, got[2].Condition)

		l, err := tx.GetStoreListing(s.ctx, model.ListingKey{GameID: "G1", StoreID: "academy", ProductID: "kind-of-blue", Condition: model.ConditionMint})
		s.Require().NoError(err)
		s.Equal(2, l.Quantity)
		s.Equal("30.00", l.CurrentPrice.StringFixed(2))

		l.Quantity--
		s.Require().NoError(tx.SaveStoreListing(s.ctx, l))
		s.Equal(int64(2), l.Version)

		_, err = tx.GetStoreListing(s.ctx, model.ListingKey{GameID: "G2", StoreID: "academy", ProductID: "kind-of-blue", Condition: model.ConditionMint})
		s.ErrorIs(err, model.ErrListingNotFound)
		return nil
	})
}

// Inventory

func (s *Suite) TestInventoryDuplicateCondition() {
	s.newGame("G1")
	s.newPlayer("P1", "G1", s.now)
	item := &model.InventoryItem{
		ID: "I1", PlayerID: "P1", ProductID: "blue-train", Condition: model.ConditionMint,
		Quantity: 1, PurchasePrice: decimal.RequireFromString("30.00"), StoreID: "academy", AcquiredAt: s.now,
	}
	s.mustAtomically(func(tx storage.Tx) error { return tx.SaveInventoryItem(s.ctx, item) })

	err := s.atomically(func(tx storage.Tx) error {
		return tx.SaveInventoryItem(s.ctx, &model.InventoryItem{
			ID: "I2", PlayerID: "P1", ProductID: "blue-train", Condition: model.ConditionMint,
			Quantity: 1, PurchasePrice: decimal.RequireFromString("31.00"), StoreID: "academy", AcquiredAt: s.now,
		})
	})
	s.ErrorIs(err, model.ErrDuplicateCondition)

	// A different condition is a different slot
	s.mustAtomically(func(tx storage.Tx) error {
		return tx.SaveInventoryItem(s.ctx, &model.InventoryItem{
			ID: "I3", PlayerID: "P1", ProductID: "blue-train", Condition: model.ConditionPoor,
			Quantity: 1, PurchasePrice: decimal.RequireFromString("10.00"), StoreID: "academy", AcquiredAt: s.now.Add(time.Second),
		})
	})

	s.mustAtomically(func(tx storage.Tx) error {
		items, err := tx.ListInventory(s.ctx, "P1")
		s.Require().NoError(err)
		s.Require().Len(items, 2)
		s.Equal(model.ItemID("I1"), items[0].ID)
		s.Equal(model.ItemID("I3"), items[1].ID)
		return nil
	})
}

func (s *Suite) TestInventoryLookupAndDelete() {
	s.newGame("G1")
	s.newPlayer("P1", "G1", s.now)
	item := &model.InventoryItem{
		ID: "I1", PlayerID: "P1", ProductID: "blue-train", Condition: model.ConditionGood,
		Quantity: 2, PurchasePrice: decimal.RequireFromString("20.00"), StoreID: "academy", AcquiredAt: s.now,
	}
	s.mustAtomically(func(tx storage.Tx) error { return tx.SaveInventoryItem(s.ctx, item) })

	s.mustAtomically(func(tx storage.Tx) error {
		got, err := tx.GetInventoryItem(s.ctx, "P1", "blue-train", model.ConditionGood)
		s.Require().NoError(err)
		s.Equal(model.ItemID("I1"), got.ID)
		s.Equal(model.StoreID("academy"), got.StoreID)

		got.Quantity = 1
		s.Require().NoError(tx.SaveInventoryItem(s.ctx, got))

		byID, err := tx.GetInventoryItemByID(s.ctx, "I1")
		s.Require().NoError(err)
		s.Equal(1, byID.Quantity)

		return tx.DeleteInventoryItem(s.ctx, "I1")
	})

	s.mustAtomically(func(tx storage.Tx) error {
		_, err := tx.GetInventoryItem(s.ctx, "P1", "blue-train", model.ConditionGood)
		s.ErrorIs(err, model.ErrItemNotFound)
		_, err = tx.GetInventoryItemByID(s.ctx, "I1")
		s.ErrorIs(err, model.ErrItemNotFound)
		s.ErrorIs(tx.DeleteInventoryItem(s.ctx, "I1"), model.ErrItemNotFound)

		// The slot is free again
		return tx.SaveInventoryItem(s.ctx, &model.InventoryItem{
			ID: "I2", PlayerID: "P1", ProductID: "blue-train", Condition: model.ConditionGood,
			Quantity: 1, PurchasePrice: decimal.RequireFromString("20.00"), StoreID: "academy", AcquiredAt: s.now,
		})
	})
}

// Transaction log

func (s *Suite) TestTransactionLog() {
	s.newGame("G1")
	s.newPlayer("P1", "G1", s.now)

	recs := []*model.TransactionRecord{
		{ID: "T1", GameID: "G1", PlayerID: "P1", ProductID: "blue-train", StoreID: "academy", Type: model.TransactionBuy,
			Condition: model.ConditionMint, Quantity: 1, UnitPrice: decimal.RequireFromString("30.00"), Hour: 24, CreatedAt: s.now},
		{ID: "T2", GameID: "G1", PlayerID: "P1", Type: model.TransactionTransport, Quantity: 1,
			UnitPrice: decimal.Zero, Hour: 24, FromRegion: "manhattan", ToRegion: "brooklyn", CreatedAt: s.now},
		{ID: "T3", GameID: "G1", PlayerID: "P1", ProductID: "blue-train", StoreID: "rough-trade", Type: model.TransactionBuy,
			Condition: model.ConditionPoor, Quantity: 1, UnitPrice: decimal.RequireFromString("12.00"), Hour: 23, CreatedAt: s.now},
		{ID: "T4", GameID: "G1", PlayerID: "P1", ProductID: "blue-train", StoreID: "rough-trade", Type: model.TransactionSell,
			Condition: model.ConditionMint, Quantity: 1, UnitPrice: decimal.RequireFromString("40.00"), Hour: 23, CreatedAt: s.now},
	}
	for _, r := range recs {
		s.mustAtomically(func(tx storage.Tx) error { return tx.AppendTransaction(s.ctx, r) })
	}

	s.mustAtomically(func(tx storage.Tx) error {
		last, ok, err := tx.MostRecentPurchase(s.ctx, "P1", "blue-train")
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Equal(model.StoreID("rough-trade"), last.StoreID)
		s.Equal("12.00", last.UnitPrice.StringFixed(2))
		s.Equal(23, last.Hour)

		_, ok, err = tx.MostRecentPurchase(s.ctx, "P1", "kind-of-blue")
		s.Require().NoError(err)
		s.False(ok)

		all, err := tx.ListTransactions(s.ctx, "P1")
		s.Require().NoError(err)
		s.Require().Len(all, 4)
		for i, r := range all {
			s.Equal(recs[i].ID, r.ID)
		}
		s.Equal(model.RegionID("brooklyn"), all[1].ToRegion)
		return nil
	})
}

func (s *Suite) TestAppendRolledBackWithTransaction() {
	s.newGame("G1")
	s.newPlayer("P1", "G1", s.now)
	_ = s.atomically(func(tx storage.Tx) error {
		_ = tx.AppendTransaction(s.ctx, &model.TransactionRecord{
			ID: "T1", GameID: "G1", PlayerID: "P1", ProductID: "blue-train", StoreID: "academy",
			Type: model.TransactionBuy, Condition: model.ConditionGood, Quantity: 1,
			UnitPrice: decimal.RequireFromString("20.00"), Hour: 24, CreatedAt: s.now,
		})
		return model.ErrInsufficientFunds
	})
	s.mustAtomically(func(tx storage.Tx) error {
		_, ok, err := tx.MostRecentPurchase(s.ctx, "P1", "blue-train")
		s.Require().NoError(err)
		s.False(ok)
		all, err := tx.ListTransactions(s.ctx, "P1")
		s.Require().NoError(err)
		s.Empty(all)
		return nil
	})
}
