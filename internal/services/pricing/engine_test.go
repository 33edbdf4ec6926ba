package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/model"
)

type EngineSuite struct {
	suite.Suite
	engine  *Engine
	product *model.Product
	plain   *model.Store
	jazz    *model.Store
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = New(DefaultTable())
	s.product = &model.Product{ID: "kind-of-blue", Genre: "Jazz", BasePrice: decimal.NewFromInt(20)}
	s.plain = &model.Store{ID: "plain", RegionID: "queens", SpecialtyGenre: "Punk"}
	s.jazz = &model.Store{ID: "jazz", RegionID: "manhattan", SpecialtyGenre: "jazz"}
}

func (s *EngineSuite) buy(store *model.Store, cond model.Condition, region *model.Region, hour int) model.PriceQuote {
	q, err := s.engine.Quote(Input{Product: s.product, Condition: cond, Store: store, Region: region, ClockHour: hour, Side: model.SideBuy})
	s.Require().NoError(err)
	return q
}

func (s *EngineSuite) TestMintOffPeakNoModifiers() {
	q := s.buy(s.plain, model.ConditionMint, nil, 9)
	s.Equal("30.00", q.UnitPrice.StringFixed(2))
	s.Equal("1.5", q.ConditionFactor.String())
	s.Equal("1", q.SpecialtyFactor.String())
	s.False(q.Capped)
}

func (s *EngineSuite) TestConditionTable() {
	cases := map[model.Condition]string{
		model.ConditionMint: "30.00",
		model.ConditionGood: "20.00",
		model.ConditionFair: "14.00",
		model.ConditionPoor: "10.00",
	}
	for cond, want := range cases {
		s.Equal(want, s.buy(s.plain, cond, nil, 9).UnitPrice.StringFixed(2), cond)
	}
}

func (s *EngineSuite) TestSpecialtyMatchIsCaseInsensitive() {
	q := s.buy(s.jazz, model.ConditionGood, nil, 9)
	s.Equal("1.5", q.SpecialtyFactor.String())
	s.Equal("30.00", q.UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestRegionModifier() {
	region := &model.Region{ID: "manhattan", PriceModifier: decimal.NewNullDecimal(decimal.RequireFromString("1.25"))}
	q := s.buy(s.plain, model.ConditionGood, region, 9)
	s.Equal("25.00", q.UnitPrice.StringFixed(2))

	absent := &model.Region{ID: "queens"}
	s.Equal("20.00", s.buy(s.plain, model.ConditionGood, absent, 9).UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestPeakWindow() {
	s.Equal("20.00", s.buy(s.plain, model.ConditionGood, nil, 11).UnitPrice.StringFixed(2))
	s.Equal("24.00", s.buy(s.plain, model.ConditionGood, nil, 12).UnitPrice.StringFixed(2))
	s.Equal("24.00", s.buy(s.plain, model.ConditionGood, nil, 17).UnitPrice.StringFixed(2))
	s.Equal("20.00", s.buy(s.plain, model.ConditionGood, nil, 18).UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestAllFactorsCompose() {
	region := &model.Region{PriceModifier: decimal.NewNullDecimal(decimal.RequireFromString("1.1"))}
	// 20 * 0.7 * 1.5 * 1.1 * 1.2 = 27.72
	q := s.buy(s.jazz, model.ConditionFair, region, 15)
	s.Equal("27.72", q.UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestRoundsToCents() {
	odd := &model.Product{ID: "odd", BasePrice: decimal.RequireFromString("13.33")}
	q, err := s.engine.Quote(Input{Product: odd, Condition: model.ConditionFair, Store: s.plain, ClockHour: 9, Side: model.SideBuy})
	s.Require().NoError(err)
	// 13.33 * 0.7 = 9.331
	s.Equal("9.33", q.UnitPrice.String())
}

func (s *EngineSuite) TestQuoteIsDeterministic() {
	region := &model.Region{PriceModifier: decimal.NewNullDecimal(decimal.RequireFromString("0.9"))}
	for _, side := range []model.Side{model.SideBuy, model.SideSell} {
		for _, cond := range model.Conditions() {
			for hour := range 24 {
				in := Input{Product: s.product, Condition: cond, Store: s.jazz, Region: region, ClockHour: hour, Side: side,
					LastPurchase: &model.PurchaseRecord{StoreID: "jazz", UnitPrice: decimal.NewFromInt(30)}}
				a, errA := s.engine.Quote(in)
				b, errB := s.engine.Quote(in)
				s.Require().NoError(errA)
				s.Require().NoError(errB)
				s.True(a.UnitPrice.Equal(b.UnitPrice))
				s.Equal(a.Capped, b.Capped)
			}
		}
	}
}

func (s *EngineSuite) TestSellUsesPostedPriceMarginAndCondition() {
	q, err := s.engine.Quote(Input{
		Product: s.product, Condition: model.ConditionGood, Store: s.plain, ClockHour: 15, Side: model.SideSell,
		PostedPrice: decimal.NewNullDecimal(decimal.NewFromInt(40)),
	})
	s.Require().NoError(err)
	// 40 * 0.75 * 1.0; peak and specialty do not apply on the sell side
	s.Equal("30.00", q.UnitPrice.StringFixed(2))
	s.Equal("0.75", q.MarginFactor.String())
	s.False(q.CapPrice.Valid)
}

func (s *EngineSuite) TestSellFallsBackToBasePrice() {
	q, err := s.engine.Quote(Input{Product: s.product, Condition: model.ConditionPoor, Store: s.plain, ClockHour: 9, Side: model.SideSell})
	s.Require().NoError(err)
	// 20 * 0.75 * 0.5
	s.Equal("7.50", q.UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestSameStoreSellBackIsCapped() {
	q, err := s.engine.Quote(Input{
		Product: s.product, Condition: model.ConditionMint, Store: s.plain, ClockHour: 9, Side: model.SideSell,
		PostedPrice:  decimal.NewNullDecimal(decimal.NewFromInt(30)),
		LastPurchase: &model.PurchaseRecord{StoreID: "plain", UnitPrice: decimal.NewFromInt(30)},
	})
	s.Require().NoError(err)
	// Uncapped would be 30 * 0.75 * 1.5 = 33.75
	s.True(q.Capped)
	s.Equal("22.50", q.UnitPrice.StringFixed(2))
	s.Equal("22.50", q.CapPrice.Decimal.StringFixed(2))
	s.NoError(CheckCap(q))
}

func (s *EngineSuite) TestSameStoreCapOnlyLowers() {
	q, err := s.engine.Quote(Input{
		Product: s.product, Condition: model.ConditionPoor, Store: s.plain, ClockHour: 9, Side: model.SideSell,
		PostedPrice:  decimal.NewNullDecimal(decimal.NewFromInt(10)),
		LastPurchase: &model.PurchaseRecord{StoreID: "plain", UnitPrice: decimal.NewFromInt(30)},
	})
	s.Require().NoError(err)
	s.False(q.Capped)
	s.True(q.CapPrice.Valid)
	s.Equal("3.75", q.UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestPurchaseElsewhereIsNotCapped() {
	q, err := s.engine.Quote(Input{
		Product: s.product, Condition: model.ConditionMint, Store: s.plain, ClockHour: 9, Side: model.SideSell,
		PostedPrice:  decimal.NewNullDecimal(decimal.NewFromInt(30)),
		LastPurchase: &model.PurchaseRecord{StoreID: "jazz", UnitPrice: decimal.NewFromInt(30)},
	})
	s.Require().NoError(err)
	s.False(q.Capped)
	s.False(q.CapPrice.Valid)
	s.Equal("33.75", q.UnitPrice.StringFixed(2))
}

func (s *EngineSuite) TestSameStoreNeverAboveThreeQuartersOfPurchase() {
	paid := decimal.RequireFromString("17.99")
	limit := paid.Mul(decimal.RequireFromString("0.75"))
	for _, cond := range model.Conditions() {
		for _, posted := range []int64{1, 10, 50, 500} {
			q, err := s.engine.Quote(Input{
				Product: s.product, Condition: cond, Store: s.plain, ClockHour: 13, Side: model.SideSell,
				PostedPrice:  decimal.NewNullDecimal(decimal.NewFromInt(posted)),
				LastPurchase: &model.PurchaseRecord{StoreID: "plain", UnitPrice: paid},
			})
			s.Require().NoError(err)
			s.True(q.UnitPrice.LessThanOrEqual(limit.Round(2)), "%s posted %d gave %s", cond, posted, q.UnitPrice)
		}
	}
}

func (s *EngineSuite) TestCheckCapRejectsInflatedQuote() {
	q := model.PriceQuote{
		UnitPrice: decimal.NewFromInt(25),
		CapPrice:  decimal.NewNullDecimal(decimal.RequireFromString("22.50")),
	}
	s.ErrorIs(CheckCap(q), model.ErrPriceExceedsCap)
}

func (s *EngineSuite) TestInvalidInputs() {
	_, err := s.engine.Quote(Input{Product: s.product, Condition: "Scratched", Store: s.plain, Side: model.SideBuy})
	s.ErrorIs(err, model.ErrInvalidCondition)

	_, err = s.engine.Quote(Input{Product: s.product, Condition: model.ConditionGood, Store: s.plain, Side: "steal"})
	s.ErrorIs(err, model.ErrInvalidSide)

	_, err = s.engine.Quote(Input{Product: s.product, Condition: model.ConditionGood, Store: s.plain, Side: model.SideBuy, ClockHour: 24})
	s.ErrorIs(err, model.ErrInvalidRequest)

	_, err = s.engine.Quote(Input{Condition: model.ConditionGood, Store: s.plain, Side: model.SideBuy})
	s.Equal(model.KindValidation, model.KindOf(err))
}

func (s *EngineSuite) TestListingPriceIsConditionNeutral() {
	s.Equal("20.00", s.engine.ListingPrice(s.product).StringFixed(2))
}

func (s *EngineSuite) TestPostedPriceGetsConditionOnce() {
	posted := decimal.NewNullDecimal(s.engine.ListingPrice(s.product))
	cases := map[model.Condition]string{
		model.ConditionMint: "22.50",
		model.ConditionGood: "15.00",
		model.ConditionFair: "10.50",
		model.ConditionPoor: "7.50",
	}
	for cond, want := range cases {
		sell, err := s.engine.Quote(Input{Product: s.product, Condition: cond, Store: s.plain, ClockHour: 9, Side: model.SideSell, PostedPrice: posted})
		s.Require().NoError(err)
		s.Equal(want, sell.UnitPrice.StringFixed(2), cond)

		// Same store, same hour: selling never beats buying
		buy := s.buy(s.plain, cond, nil, 9)
		s.True(sell.UnitPrice.LessThan(buy.UnitPrice), cond)
	}
}
