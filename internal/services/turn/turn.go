// Package turn decides when an hour is over for everyone and advances the
// game clock.
package turn

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/services/budget"
	"github.com/mcoot/vinyltrader/internal/storage"
)

// Phase is where a game is in its hourly cycle
type Phase string

const (
	PhaseWaitingForPlayers Phase = "waiting_for_players"
	PhaseAllPlayersActing  Phase = "all_players_acting"
	PhaseBarrierReached    Phase = "barrier_reached"
	PhaseHourAdvanced      Phase = "hour_advanced" // Returned by AdvanceHour
	PhaseGameOver          Phase = "game_over"
)

// Coordinator runs the end-of-hour barrier
type Coordinator struct {
	budget       *budget.Budget
	interestRate decimal.Decimal
	clock        clock.Clock
}

// New creates a Coordinator. interestRate is charged on outstanding loans
// every time the hour advances.
func New(b *budget.Budget, interestRate decimal.Decimal, clk clock.Clock) *Coordinator {
	return &Coordinator{budget: b, interestRate: interestRate, clock: clk}
}

// Phase reports the current phase from the game and its live roster
func (c *Coordinator) Phase(g *model.Game, players []*model.Player) Phase {
	switch {
	case g.Status == model.GameStatusWaiting:
		return PhaseWaitingForPlayers
	case g.IsOver():
		return PhaseGameOver
	case CheckBarrier(players):
		return PhaseBarrierReached
	}
	return PhaseAllPlayersActing
}

// MarkPlayerDone ends the player's hour
func (c *Coordinator) MarkPlayerDone(p *model.Player) error {
	if p.TurnCompleted {
		return model.ErrTurnEnded
	}
	p.TurnCompleted = true
	return nil
}

// CheckBarrier is true when there is at least one player and all of them
// have ended their hour
func CheckBarrier(players []*model.Player) bool {
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if !p.TurnCompleted {
			return false
		}
	}
	return true
}

// AdvanceHour moves the clock on by one hour. Players are only reset when
// the game continues. Nothing is persisted.
func (c *Coordinator) AdvanceHour(g *model.Game, players []*model.Player) Phase {
	g.CurrentHour--
	if g.CurrentHour <= 0 {
		g.CurrentHour = 0
		g.Status = model.GameStatusCompleted
		return PhaseGameOver
	}
	for _, p := range players {
		p.TurnCompleted = false
		c.budget.ResetForNewHour(p)
		c.accrueInterest(p)
	}
	return PhaseHourAdvanced
}

func (c *Coordinator) accrueInterest(p *model.Player) {
	if !p.LoanAmount.IsPositive() || c.interestRate.IsZero() {
		return
	}
	p.LoanAmount = p.LoanAmount.Mul(decimal.NewFromInt(1).Add(c.interestRate)).Round(2)
}

// Settle re-reads the roster inside tx and advances the hour if everyone is
// done. The game row is always written so that two concurrent settles
// conflict instead of both missing the barrier.
func (c *Coordinator) Settle(ctx context.Context, tx storage.Tx, g *model.Game) (model.TurnResult, error) {
	players, err := tx.ListPlayers(ctx, g.ID)
	if err != nil {
		return model.TurnResult{}, err
	}

	res := model.TurnResult{NewHour: g.CurrentHour, GameOver: g.IsOver()}
	if g.Status == model.GameStatusActive && CheckBarrier(players) {
		phase := c.AdvanceHour(g, players)
		res.AllCompleted = true
		res.NewHour = g.CurrentHour
		res.GameOver = phase == PhaseGameOver
		if !res.GameOver {
			for _, p := range players {
				if err := tx.SavePlayer(ctx, p); err != nil {
					return model.TurnResult{}, err
				}
			}
		}
	}

	g.UpdatedAt = c.clock.Now()
	if err := tx.SaveGame(ctx, g); err != nil {
		return model.TurnResult{}, err
	}
	return res, nil
}
