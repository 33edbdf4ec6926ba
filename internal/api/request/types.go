package request

import "github.com/shopspring/decimal"

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	DisplayName string `json:"display_name"`
	MaxHours    int    `json:"max_hours,omitempty"`
}

// JoinGameRequest is the request body for joining a game
type JoinGameRequest struct {
	DisplayName string `json:"display_name"`
}

// StartGameRequest is the request body for starting a game
type StartGameRequest struct {
	PlayerID string `json:"player_id"`
}

// QuoteRequest is the request body for a price quote
type QuoteRequest struct {
	PlayerID  string `json:"player_id"`
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Condition string `json:"condition"`
	Side      string `json:"side"`
}

// BuyRequest is the request body for buying a record
type BuyRequest struct {
	StoreID       string              `json:"store_id"`
	ProductID     string              `json:"product_id"`
	Condition     string              `json:"condition"`
	ExpectedPrice decimal.NullDecimal `json:"expected_price"`
	AllowOverflow bool                `json:"allow_overflow,omitempty"`
}

// SellRequest is the request body for selling a record
type SellRequest struct {
	ItemID        string              `json:"item_id"`
	StoreID       string              `json:"store_id"`
	ExpectedPrice decimal.NullDecimal `json:"expected_price"`
	AllowOverflow bool                `json:"allow_overflow,omitempty"`
}

// TravelRequest is the request body for travelling to another borough
type TravelRequest struct {
	RegionID      string `json:"region_id"`
	AllowOverflow bool   `json:"allow_overflow,omitempty"`
}

// ActionRequest is the request body for spending actions
type ActionRequest struct {
	Cost int `json:"cost"`
}

// ConfirmOverflowRequest is the request body for answering an overflow decision
type ConfirmOverflowRequest struct {
	Cost   int  `json:"cost"`
	Accept bool `json:"accept"`
}

// LoanRequest is the request body for borrowing or repaying
type LoanRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
