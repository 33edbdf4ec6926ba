package game

import (
	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/travel"
)

// QuoteRequest asks for the price of one unit without changing anything
type QuoteRequest struct {
	PlayerID  model.PlayerID
	StoreID   model.StoreID
	ProductID model.ProductID
	Condition model.Condition
	Side      model.Side
}

// BuyRequest buys one unit of a listing. ExpectedPrice, when set, must equal
// the authoritative quote or the purchase is refused.
type BuyRequest struct {
	PlayerID      model.PlayerID
	StoreID       model.StoreID
	ProductID     model.ProductID
	Condition     model.Condition
	ExpectedPrice decimal.NullDecimal
	AllowOverflow bool
}

// SellRequest sells one unit of an inventory item
type SellRequest struct {
	PlayerID      model.PlayerID
	ItemID        model.ItemID
	StoreID       model.StoreID
	ExpectedPrice decimal.NullDecimal
	AllowOverflow bool
}

// TravelRequest moves a player to another borough
type TravelRequest struct {
	PlayerID      model.PlayerID
	RegionID      model.RegionID
	AllowOverflow bool
}

// OverflowConfirmation is the player's answer to an overflow decision
type OverflowConfirmation struct {
	Cost   int
	Accept bool
}

// Outcome is what an action did to the player's hour. When the action had
// to borrow from the next hour the player's turn ends with it and Turn
// reports the barrier check.
type Outcome struct {
	Decision  model.ActionDecision
	TurnEnded bool
	Turn      model.TurnResult
}

// BuyResult is a completed purchase
type BuyResult struct {
	Item  *model.InventoryItem
	Quote model.PriceQuote
	Outcome
}

// SellResult is a completed sale
type SellResult struct {
	Delta model.CashDelta
	Quote model.PriceQuote
	Outcome
}

// TravelResult is a completed trip
type TravelResult struct {
	Route  travel.Route
	Player *model.Player
	Outcome
}

// ConfirmResult answers an overflow confirmation
type ConfirmResult struct {
	Accepted bool
	Outcome
}

// PlayerState is everything a client shows about one player
type PlayerState struct {
	Player       *model.Player
	Game         *model.Game
	Inventory    []*model.InventoryItem
	Headroom     int
	Transactions []*model.TransactionRecord
}
