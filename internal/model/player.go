package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is a participant in exactly one game
type Player struct {
	ID          PlayerID
	GameID      GameID
	DisplayName string

	// Money
	Cash       decimal.Decimal
	LoanAmount decimal.Decimal

	InventoryCapacity int      // Max total units held
	Location          RegionID // Current borough

	// Action economy for the current hour
	ActionsUsedThisHour int
	ActionsOverflow     int  // Actions borrowed from the next hour
	TurnCompleted       bool // Reset every hour

	Version  int64
	JoinedAt time.Time
}

// Clone returns a copy safe to mutate
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

// ActionDecisionKind is the outcome of asking to spend actions
type ActionDecisionKind string

const (
	DecisionConsumed              ActionDecisionKind = "consumed"
	DecisionNeedsOverflowDecision ActionDecisionKind = "needs_overflow_decision"
)

// ActionDecision is the answer to a request to spend actions. When Kind is
// DecisionNeedsOverflowDecision nothing was spent; Overflow is how many
// actions would be borrowed from the next hour.
type ActionDecision struct {
	Kind      ActionDecisionKind
	Cost      int
	Remaining int // Headroom left in the hour after the decision (may be negative)
	Overflow  int
}

// TurnResult reports the effect of a player ending their hour
type TurnResult struct {
	AllCompleted bool
	NewHour      int
	GameOver     bool
}
