package response

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/game"
	"github.com/mcoot/vinyltrader/internal/services/roster"
)

// Money renders an amount in dollars with two decimals
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Player represents a player in API responses
type Player struct {
	ID                  string `json:"id"`
	GameID              string `json:"game_id"`
	DisplayName         string `json:"display_name"`
	Cash                string `json:"cash"`
	Loan                string `json:"loan"`
	InventoryCapacity   int    `json:"inventory_capacity"`
	Location            string `json:"location"`
	ActionsUsedThisHour int    `json:"actions_used_this_hour"`
	ActionsOverflow     int    `json:"actions_overflow"`
	TurnCompleted       bool   `json:"turn_completed"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:                  string(p.ID),
		GameID:              string(p.GameID),
		DisplayName:         p.DisplayName,
		Cash:                Money(p.Cash),
		Loan:                Money(p.LoanAmount),
		InventoryCapacity:   p.InventoryCapacity,
		Location:            string(p.Location),
		ActionsUsedThisHour: p.ActionsUsedThisHour,
		ActionsOverflow:     p.ActionsOverflow,
		TurnCompleted:       p.TurnCompleted,
	}
}

// Game represents a game in API responses
type Game struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id"`
	Status      string    `json:"status"`
	CurrentHour int       `json:"current_hour"`
	MaxHours    int       `json:"max_hours"`
	ClockHour   int       `json:"clock_hour"`
	CreatedAt   time.Time `json:"created_at"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	return Game{
		ID:          string(g.ID),
		HostID:      string(g.HostID),
		Status:      string(g.Status),
		CurrentHour: g.CurrentHour,
		MaxHours:    g.MaxHours,
		ClockHour:   g.ClockHour(),
		CreatedAt:   g.CreatedAt,
	}
}

// GameOverview is a game with its phase and roster
type GameOverview struct {
	Game    Game     `json:"game"`
	Phase   string   `json:"phase"`
	Players []Player `json:"players"`
}

// GameOverviewFromModel converts a roster.Overview
func GameOverviewFromModel(o *roster.Overview) GameOverview {
	players := make([]Player, len(o.Players))
	for i, p := range o.Players {
		players[i] = PlayerFromModel(p)
	}
	return GameOverview{
		Game:    GameFromModel(o.Game),
		Phase:   string(o.Phase),
		Players: players,
	}
}

// CreateGameResponse is the response for creating a game
type CreateGameResponse struct {
	Game   Game   `json:"game"`
	Player Player `json:"player"`
}

// InventoryItem represents a held record
type InventoryItem struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Condition     string `json:"condition"`
	Quantity      int    `json:"quantity"`
	PurchasePrice string `json:"purchase_price"`
	StoreID       string `json:"store_id"`
}

// InventoryItemFromModel converts a model.InventoryItem
func InventoryItemFromModel(it *model.InventoryItem) InventoryItem {
	return InventoryItem{
		ID:            string(it.ID),
		ProductID:     string(it.ProductID),
		Condition:     string(it.Condition),
		Quantity:      it.Quantity,
		PurchasePrice: Money(it.PurchasePrice),
		StoreID:       string(it.StoreID),
	}
}

// Listing represents market stock. Price is the store's posted price;
// BuyPrice is what one unit costs this hour.
type Listing struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Condition string `json:"condition"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	BuyPrice  string `json:"buy_price"`
}

// ListingsFromMarket converts market listings
func ListingsFromMarket(ls []game.MarketListing) []Listing {
	out := make([]Listing, len(ls))
	for i, l := range ls {
		out[i] = Listing{
			StoreID:   string(l.StoreID),
			ProductID: string(l.ProductID),
			Condition: string(l.Condition),
			Quantity:  l.Quantity,
			Price:     Money(l.CurrentPrice),
			BuyPrice:  Money(l.BuyPrice),
		}
	}
	return out
}

// Quote represents a price quote with its factors
type Quote struct {
	ProductID       string  `json:"product_id"`
	StoreID         string  `json:"store_id"`
	Condition       string  `json:"condition"`
	Side            string  `json:"side"`
	ClockHour       int     `json:"clock_hour"`
	BasePrice       string  `json:"base_price"`
	UnitPrice       string  `json:"unit_price"`
	ConditionFactor string  `json:"condition_factor"`
	SpecialtyFactor string  `json:"specialty_factor"`
	RegionFactor    string  `json:"region_factor"`
	PeakFactor      string  `json:"peak_factor"`
	MarginFactor    string  `json:"margin_factor"`
	Capped          bool    `json:"capped"`
	CapPrice        *string `json:"cap_price,omitempty"`
}

// QuoteFromModel converts a model.PriceQuote
func QuoteFromModel(q model.PriceQuote) Quote {
	out := Quote{
		ProductID:       string(q.ProductID),
		StoreID:         string(q.StoreID),
		Condition:       string(q.Condition),
		Side:            string(q.Side),
		ClockHour:       q.ClockHour,
		BasePrice:       Money(q.BasePrice),
		UnitPrice:       Money(q.UnitPrice),
		ConditionFactor: q.ConditionFactor.String(),
		SpecialtyFactor: q.SpecialtyFactor.String(),
		RegionFactor:    q.RegionFactor.String(),
		PeakFactor:      q.PeakFactor.String(),
		MarginFactor:    q.MarginFactor.String(),
		Capped:          q.Capped,
	}
	if q.CapPrice.Valid {
		c := Money(q.CapPrice.Decimal)
		out.CapPrice = &c
	}
	return out
}

// Decision represents an action budget decision
type Decision struct {
	Kind      string `json:"kind"`
	Cost      int    `json:"cost"`
	Remaining int    `json:"remaining"`
	Overflow  int    `json:"overflow"`
}

// DecisionFromModel converts a model.ActionDecision
func DecisionFromModel(d model.ActionDecision) Decision {
	return Decision{
		Kind:      string(d.Kind),
		Cost:      d.Cost,
		Remaining: d.Remaining,
		Overflow:  d.Overflow,
	}
}

// TurnResult represents the barrier check after a turn ends
type TurnResult struct {
	AllCompleted bool `json:"all_completed"`
	NewHour      int  `json:"new_hour"`
	GameOver     bool `json:"game_over"`
}

// TurnResultFromModel converts a model.TurnResult
func TurnResultFromModel(r model.TurnResult) TurnResult {
	return TurnResult{
		AllCompleted: r.AllCompleted,
		NewHour:      r.NewHour,
		GameOver:     r.GameOver,
	}
}

// Outcome is the effect of an action on the player's hour
type Outcome struct {
	Decision  Decision    `json:"decision"`
	TurnEnded bool        `json:"turn_ended"`
	Turn      *TurnResult `json:"turn,omitempty"`
}

func outcomeFromModel(o game.Outcome) Outcome {
	out := Outcome{Decision: DecisionFromModel(o.Decision), TurnEnded: o.TurnEnded}
	if o.TurnEnded {
		t := TurnResultFromModel(o.Turn)
		out.Turn = &t
	}
	return out
}

// BuyResponse is the response for a purchase
type BuyResponse struct {
	Item  InventoryItem `json:"item"`
	Quote Quote         `json:"quote"`
	Outcome
}

// BuyResponseFromResult converts a game.BuyResult
func BuyResponseFromResult(r *game.BuyResult) BuyResponse {
	return BuyResponse{
		Item:    InventoryItemFromModel(r.Item),
		Quote:   QuoteFromModel(r.Quote),
		Outcome: outcomeFromModel(r.Outcome),
	}
}

// SellResponse is the response for a sale
type SellResponse struct {
	Amount  string `json:"amount"`
	NewCash string `json:"new_cash"`
	Quote   Quote  `json:"quote"`
	Outcome
}

// SellResponseFromResult converts a game.SellResult
func SellResponseFromResult(r *game.SellResult) SellResponse {
	return SellResponse{
		Amount:  Money(r.Delta.Amount),
		NewCash: Money(r.Delta.NewCash),
		Quote:   QuoteFromModel(r.Quote),
		Outcome: outcomeFromModel(r.Outcome),
	}
}

// TravelResponse is the response for a trip
type TravelResponse struct {
	Path   []string `json:"path"`
	Cost   int      `json:"cost"`
	Player Player   `json:"player"`
	Outcome
}

// TravelResponseFromResult converts a game.TravelResult
func TravelResponseFromResult(r *game.TravelResult) TravelResponse {
	path := make([]string, len(r.Route.Path))
	for i, id := range r.Route.Path {
		path[i] = string(id)
	}
	return TravelResponse{
		Path:    path,
		Cost:    r.Route.Cost,
		Player:  PlayerFromModel(r.Player),
		Outcome: outcomeFromModel(r.Outcome),
	}
}

// ConfirmResponse is the response to an overflow confirmation
type ConfirmResponse struct {
	Accepted bool `json:"accepted"`
	Outcome
}

// ConfirmResponseFromResult converts a game.ConfirmResult
func ConfirmResponseFromResult(r *game.ConfirmResult) ConfirmResponse {
	return ConfirmResponse{Accepted: r.Accepted, Outcome: outcomeFromModel(r.Outcome)}
}

// Transaction represents a transaction log entry
type Transaction struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id,omitempty"`
	StoreID    string    `json:"store_id,omitempty"`
	Condition  string    `json:"condition,omitempty"`
	Quantity   int       `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Hour       int       `json:"hour"`
	FromRegion string    `json:"from_region,omitempty"`
	ToRegion   string    `json:"to_region,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlayerState is the full view of one player
type PlayerState struct {
	Player       Player          `json:"player"`
	Game         Game            `json:"game"`
	Headroom     int             `json:"headroom"`
	Inventory    []InventoryItem `json:"inventory"`
	Transactions []Transaction   `json:"transactions"`
}

// PlayerStateFromModel converts a game.PlayerState
func PlayerStateFromModel(s *game.PlayerState) PlayerState {
	items := make([]InventoryItem, len(s.Inventory))
	for i, it := range s.Inventory {
		items[i] = InventoryItemFromModel(it)
	}
	txs := make([]Transaction, len(s.Transactions))
	for i, rec := range s.Transactions {
		txs[i] = Transaction{
			ID:         rec.ID,
			Type:       string(rec.Type),
			ProductID:  string(rec.ProductID),
			StoreID:    string(rec.StoreID),
			Condition:  string(rec.Condition),
			Quantity:   rec.Quantity,
			UnitPrice:  Money(rec.UnitPrice),
			Hour:       rec.Hour,
			FromRegion: string(rec.FromRegion),
			ToRegion:   string(rec.ToRegion),
			CreatedAt:  rec.CreatedAt,
		}
	}
	return PlayerState{
		Player:       PlayerFromModel(s.Player),
		Game:         GameFromModel(s.Game),
		Headroom:     s.Headroom,
		Inventory:    items,
		Transactions: txs,
	}
}

// Standing is one row of the leaderboard
type Standing struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Cash        string `json:"cash"`
	Loan        string `json:"loan"`
	Holdings    string `json:"holdings"`
	NetWorth    string `json:"net_worth"`
}

// StandingsFromModel converts ranked standings
func StandingsFromModel(ss []model.Standing) []Standing {
	out := make([]Standing, len(ss))
	for i, s := range ss {
		out[i] = Standing{
			Rank:        i + 1,
			PlayerID:    string(s.PlayerID),
			DisplayName: s.DisplayName,
			Cash:        Money(s.Cash),
			Loan:        Money(s.Loan),
			Holdings:    Money(s.Holdings),
			NetWorth:    Money(s.NetWorth),
		}
	}
	return out
}
