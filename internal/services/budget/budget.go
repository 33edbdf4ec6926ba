// Package budget tracks the actions a player may spend in the current hour.
package budget

import (
	"github.com/mcoot/vinyltrader/internal/model"
)

// Budget applies the per-hour action allotment to players. It only mutates
// the player passed in; persisting it is the caller's job.
type Budget struct {
	perHour int
}

// New creates a Budget with the given per-hour allotment
func New(actionsPerHour int) *Budget {
	return &Budget{perHour: actionsPerHour}
}

// Headroom is how many actions remain this hour. Negative while the player
// is still paying off actions borrowed last hour.
func (b *Budget) Headroom(p *model.Player) int {
	return b.perHour - p.ActionsUsedThisHour
}

// Evaluate answers what spending cost would do without changing anything
func (b *Budget) Evaluate(p *model.Player, cost int) (model.ActionDecision, error) {
	if cost <= 0 {
		return model.ActionDecision{}, model.ErrInvalidCost
	}
	headroom := b.Headroom(p)
	if cost <= headroom {
		return model.ActionDecision{
			Kind:      model.DecisionConsumed,
			Cost:      cost,
			Remaining: headroom - cost,
		}, nil
	}
	return model.ActionDecision{
		Kind:      model.DecisionNeedsOverflowDecision,
		Cost:      cost,
		Remaining: headroom,
		Overflow:  cost - headroom,
	}, nil
}

// TryConsume spends cost if it fits in the hour. Otherwise the player is left
// untouched and the decision says how much would have to be borrowed.
func (b *Budget) TryConsume(p *model.Player, cost int) (model.ActionDecision, error) {
	d, err := b.Evaluate(p, cost)
	if err != nil {
		return d, err
	}
	if d.Kind == model.DecisionConsumed {
		p.ActionsUsedThisHour += cost
	}
	return d, nil
}

// ApplyOverflow is the confirmed path for an action that does not fit: the
// rest of the hour is spent and the shortfall is carried into the next hour.
// An action that fits is simply consumed.
func (b *Budget) ApplyOverflow(p *model.Player, cost int) (model.ActionDecision, error) {
	d, err := b.Evaluate(p, cost)
	if err != nil {
		return d, err
	}
	if d.Kind == model.DecisionConsumed {
		p.ActionsUsedThisHour += cost
		return d, nil
	}
	p.ActionsUsedThisHour = b.perHour
	p.ActionsOverflow += d.Overflow
	d.Remaining = 0
	return d, nil
}

// ResetForNewHour starts the next hour with the carried overflow already spent.
// Debt that was carried in but never worked off keeps carrying.
func (b *Budget) ResetForNewHour(p *model.Player) {
	unpaid := max(0, p.ActionsUsedThisHour-b.perHour)
	p.ActionsUsedThisHour = p.ActionsOverflow + unpaid
	p.ActionsOverflow = 0
}
