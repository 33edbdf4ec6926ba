package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/vinyltrader/internal/model"
)

func TestTryConsumeWithinHour(t *testing.T) {
	b := New(4)
	p := &model.Player{}

	for i := 1; i <= 4; i++ {
		d, err := b.TryConsume(p, 1)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionConsumed, d.Kind)
		assert.Equal(t, 4-i, d.Remaining)
	}
	assert.Equal(t, 4, p.ActionsUsedThisHour)
}

func TestTryConsumeNeverExceedsAllotment(t *testing.T) {
	b := New(4)
	p := &model.Player{ActionsUsedThisHour: 3}

	d, err := b.TryConsume(p, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionNeedsOverflowDecision, d.Kind)
	assert.Equal(t, 1, d.Overflow)
	assert.Equal(t, 1, d.Remaining)

	// Nothing was spent
	assert.Equal(t, 3, p.ActionsUsedThisHour)
	assert.Equal(t, 0, p.ActionsOverflow)
}

func TestInvalidCost(t *testing.T) {
	b := New(4)
	p := &model.Player{}
	for _, cost := range []int{0, -1} {
		_, err := b.TryConsume(p, cost)
		assert.ErrorIs(t, err, model.ErrInvalidCost)
		_, err = b.ApplyOverflow(p, cost)
		assert.ErrorIs(t, err, model.ErrInvalidCost)
	}
	assert.Equal(t, 0, p.ActionsUsedThisHour)
}

func TestApplyOverflowFillsHourAndCarries(t *testing.T) {
	b := New(4)
	p := &model.Player{ActionsUsedThisHour: 3}

	d, err := b.ApplyOverflow(p, 3)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionNeedsOverflowDecision, d.Kind)
	assert.Equal(t, 2, d.Overflow)
	assert.Equal(t, 4, p.ActionsUsedThisHour)
	assert.Equal(t, 2, p.ActionsOverflow)

	b.ResetForNewHour(p)
	assert.Equal(t, 2, p.ActionsUsedThisHour)
	assert.Equal(t, 0, p.ActionsOverflow)
	assert.Equal(t, 2, b.Headroom(p))
}

func TestApplyOverflowWhenItFitsJustConsumes(t *testing.T) {
	b := New(4)
	p := &model.Player{ActionsUsedThisHour: 1}
	d, err := b.ApplyOverflow(p, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionConsumed, d.Kind)
	assert.Equal(t, 3, p.ActionsUsedThisHour)
	assert.Equal(t, 0, p.ActionsOverflow)
}

func TestCarriedDebtReducesHeadroom(t *testing.T) {
	b := New(4)
	p := &model.Player{ActionsOverflow: 6, ActionsUsedThisHour: 4}
	b.ResetForNewHour(p)

	// Starts the hour two actions in debt
	assert.Equal(t, 6, p.ActionsUsedThisHour)
	assert.Equal(t, -2, b.Headroom(p))

	d, err := b.TryConsume(p, 1)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionNeedsOverflowDecision, d.Kind)
	assert.Equal(t, 3, d.Overflow)

	// Unpaid debt keeps carrying even without a new overflow
	b.ResetForNewHour(p)
	assert.Equal(t, 2, p.ActionsUsedThisHour)
}

func TestEvaluateIsPure(t *testing.T) {
	b := New(4)
	p := &model.Player{ActionsUsedThisHour: 2}
	d, err := b.Evaluate(p, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionConsumed, d.Kind)
	assert.Equal(t, 2, p.ActionsUsedThisHour)
}
