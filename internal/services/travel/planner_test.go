package travel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/vinyltrader/internal/model"
)

func boroughs() []*model.Region {
	return []*model.Region{
		{ID: "manhattan", Neighbors: map[model.RegionID]int{"brooklyn": 1, "queens": 1, "bronx": 1}},
		{ID: "brooklyn", Neighbors: map[model.RegionID]int{"manhattan": 1, "queens": 1, "staten-island": 3}},
		{ID: "queens", Neighbors: map[model.RegionID]int{"manhattan": 1, "brooklyn": 1}},
		{ID: "bronx", Neighbors: map[model.RegionID]int{"manhattan": 1}},
		{ID: "staten-island", Neighbors: map[model.RegionID]int{"brooklyn": 2}},
		{ID: "hoboken"},
	}
}

func TestRouteDirectNeighbour(t *testing.T) {
	p, err := New(boroughs())
	require.NoError(t, err)

	r, err := p.Route("manhattan", "brooklyn")
	require.NoError(t, err)
	assert.Equal(t, []model.RegionID{"manhattan", "brooklyn"}, r.Path)
	assert.Equal(t, 1, r.Cost)
}

func TestRouteMultiHopUsesCheaperDirection(t *testing.T) {
	p, err := New(boroughs())
	require.NoError(t, err)

	r, err := p.Route("bronx", "staten-island")
	require.NoError(t, err)
	assert.Equal(t, []model.RegionID{"bronx", "manhattan", "brooklyn", "staten-island"}, r.Path)
	assert.Equal(t, 4, r.Cost)
}

func TestRouteErrors(t *testing.T) {
	p, err := New(boroughs())
	require.NoError(t, err)

	_, err = p.Route("manhattan", "atlantis")
	assert.ErrorIs(t, err, model.ErrRegionNotFound)

	_, err = p.Route("queens", "queens")
	assert.ErrorIs(t, err, model.ErrAlreadyInRegion)

	_, err = p.Route("queens", "hoboken")
	assert.ErrorIs(t, err, model.ErrNoRoute)
}

func TestNewRejectsFreeTravel(t *testing.T) {
	_, err := New([]*model.Region{
		{ID: "a", Neighbors: map[model.RegionID]int{"b": 0}},
		{ID: "b"},
	})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestNewIgnoresUnknownNeighbour(t *testing.T) {
	p, err := New([]*model.Region{
		{ID: "a", Neighbors: map[model.RegionID]int{"b": 1, "nowhere": 1}},
		{ID: "b"},
	})
	require.NoError(t, err)

	r, err := p.Route("b", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Cost)
}
