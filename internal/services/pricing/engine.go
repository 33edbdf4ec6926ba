// Package pricing computes authoritative buy and sell prices. Quote is pure:
// identical inputs always produce identical quotes, so what a client is shown
// is exactly what settlement charges.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/model"
)

// Table is the fixed set of multipliers
type Table struct {
	Conditions     map[model.Condition]decimal.Decimal
	SpecialtyBonus decimal.Decimal
	PeakFactor     decimal.Decimal
	PeakStart      int // Inclusive clock hour
	PeakEnd        int // Exclusive clock hour
	SellMargin     decimal.Decimal
	SameStoreCap   decimal.Decimal // Fraction of the purchase price
}

// DefaultTable returns the canonical multipliers
func DefaultTable() Table {
	return Table{
		Conditions: map[model.Condition]decimal.Decimal{
			model.ConditionMint: decimal.RequireFromString("1.5"),
			model.ConditionGood: decimal.RequireFromString("1.0"),
			model.ConditionFair: decimal.RequireFromString("0.7"),
			model.ConditionPoor: decimal.RequireFromString("0.5"),
		},
		SpecialtyBonus: decimal.RequireFromString("1.5"),
		PeakFactor:     decimal.RequireFromString("1.2"),
		PeakStart:      12,
		PeakEnd:        18,
		SellMargin:     decimal.RequireFromString("0.75"),
		SameStoreCap:   decimal.RequireFromString("0.75"),
	}
}

// Input is everything a price depends on
type Input struct {
	Product   *model.Product
	Condition model.Condition
	Store     *model.Store
	Region    *model.Region // Optional; nil means no regional modifier
	ClockHour int
	Side      model.Side

	// Sell side: the store's posted price for this product and condition.
	// Posted prices are condition-neutral. Absent falls back to the
	// product's base price.
	PostedPrice decimal.NullDecimal

	// Sell side: where and for how much the copy being sold was bought
	LastPurchase *model.PurchaseRecord
}

// Engine quotes prices from a Table
type Engine struct {
	table Table
	one   decimal.Decimal
}

// New creates an Engine
func New(table Table) *Engine {
	return &Engine{table: table, one: decimal.NewFromInt(1)}
}

// ConditionFactor returns the multiplier for a grade
func (e *Engine) ConditionFactor(c model.Condition) (decimal.Decimal, error) {
	f, ok := e.table.Conditions[c]
	if !ok {
		return decimal.Decimal{}, model.ErrInvalidCondition
	}
	return f, nil
}

// IsPeak reports whether the clock hour is inside the peak window
func (e *Engine) IsPeak(clockHour int) bool {
	return clockHour >= e.table.PeakStart && clockHour < e.table.PeakEnd
}

// ListingPrice is the posted price a store opens with. Posted prices carry
// no condition factor; quotes apply it.
func (e *Engine) ListingPrice(product *model.Product) decimal.Decimal {
	return round(product.BasePrice)
}

// Quote computes the price for one unit
func (e *Engine) Quote(in Input) (model.PriceQuote, error) {
	if in.Product == nil || in.Store == nil {
		return model.PriceQuote{}, model.Invalid("product and store are required")
	}
	if !in.Side.Valid() {
		return model.PriceQuote{}, model.ErrInvalidSide
	}
	if in.ClockHour < 0 || in.ClockHour > 23 {
		return model.PriceQuote{}, model.Invalid("clock hour %d out of range", in.ClockHour)
	}
	condFactor, err := e.ConditionFactor(in.Condition)
	if err != nil {
		return model.PriceQuote{}, err
	}

	q := model.PriceQuote{
		ProductID:       in.Product.ID,
		StoreID:         in.Store.ID,
		Condition:       in.Condition,
		Side:            in.Side,
		ClockHour:       in.ClockHour,
		ConditionFactor: condFactor,
		SpecialtyFactor: e.one,
		RegionFactor:    e.one,
		PeakFactor:      e.one,
		MarginFactor:    e.one,
	}

	if in.Side == model.SideBuy {
		q.BasePrice = in.Product.BasePrice
		if in.Store.HasSpecialty(in.Product.Genre) {
			q.SpecialtyFactor = e.table.SpecialtyBonus
		}
		q.RegionFactor = in.Region.Modifier()
		if e.IsPeak(in.ClockHour) {
			q.PeakFactor = e.table.PeakFactor
		}
		q.UnitPrice = round(q.BasePrice.
			Mul(q.ConditionFactor).
			Mul(q.SpecialtyFactor).
			Mul(q.RegionFactor).
			Mul(q.PeakFactor))
		return q, nil
	}

	q.BasePrice = in.Product.BasePrice
	if in.PostedPrice.Valid {
		q.BasePrice = in.PostedPrice.Decimal
	}
	q.MarginFactor = e.table.SellMargin
	q.UnitPrice = round(q.BasePrice.Mul(q.MarginFactor).Mul(q.ConditionFactor))

	// Selling back where it was bought is capped below what was paid
	if in.LastPurchase != nil && in.LastPurchase.StoreID == in.Store.ID {
		limit := round(in.LastPurchase.UnitPrice.Mul(e.table.SameStoreCap))
		q.CapPrice = decimal.NewNullDecimal(limit)
		if q.UnitPrice.GreaterThan(limit) {
			q.UnitPrice = limit
			q.Capped = true
		}
	}
	return q, nil
}

// CheckCap returns ErrPriceExceedsCap if a quote is above its same-store cap
func CheckCap(q model.PriceQuote) error {
	if q.CapPrice.Valid && q.UnitPrice.GreaterThan(q.CapPrice.Decimal) {
		return model.ErrPriceExceedsCap
	}
	return nil
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
