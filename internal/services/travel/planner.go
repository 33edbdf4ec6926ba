// Package travel plans trips between boroughs.
package travel

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"

	"github.com/mcoot/vinyltrader/internal/model"
)

// Route is the cheapest way from one region to another
type Route struct {
	Path []model.RegionID // Includes both ends
	Cost int              // Actions
}

// Planner answers route queries over a fixed set of regions
type Planner struct {
	g graph.Graph[string, string]
}

// New builds an undirected weighted graph from the regions' neighbour maps.
// When two regions list each other with different costs the cheaper one wins.
func New(regions []*model.Region) (*Planner, error) {
	g := graph.New(graph.StringHash, graph.Weighted())

	ids := make([]string, 0, len(regions))
	for _, r := range regions {
		ids = append(ids, string(r.ID))
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := g.AddVertex(id); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("adding region %s: %w", id, err)
		}
	}

	type pair struct{ a, b string }
	costs := make(map[pair]int)
	for _, r := range regions {
		for n, cost := range r.Neighbors {
			if cost < 1 {
				return nil, model.Invalid("region %s has non-positive travel cost to %s", r.ID, n)
			}
			k := pair{string(r.ID), string(n)}
			if k.b < k.a {
				k.a, k.b = k.b, k.a
			}
			if prev, ok := costs[k]; !ok || cost < prev {
				costs[k] = cost
			}
		}
	}

	pairs := make([]pair, 0, len(costs))
	for k := range costs {
		pairs = append(pairs, k)
	}
	slices.SortFunc(pairs, func(x, y pair) int {
		if c := cmp.Compare(x.a, y.a); c != 0 {
			return c
		}
		return cmp.Compare(x.b, y.b)
	})
	for _, k := range pairs {
		err := g.AddEdge(k.a, k.b, graph.EdgeWeight(costs[k]))
		if errors.Is(err, graph.ErrVertexNotFound) {
			// Neighbour outside the known regions is unreachable
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("adding route %s-%s: %w", k.a, k.b, err)
		}
	}
	return &Planner{g: g}, nil
}

// Route returns the cheapest path between two regions
func (p *Planner) Route(from, to model.RegionID) (Route, error) {
	for _, id := range []model.RegionID{from, to} {
		if _, err := p.g.Vertex(string(id)); err != nil {
			return Route{}, model.ErrRegionNotFound
		}
	}
	if from == to {
		return Route{}, model.ErrAlreadyInRegion
	}

	path, err := graph.ShortestPath(p.g, string(from), string(to))
	if errors.Is(err, graph.ErrTargetNotReachable) {
		return Route{}, model.ErrNoRoute
	}
	if err != nil {
		return Route{}, fmt.Errorf("planning route: %w", err)
	}

	r := Route{Path: make([]model.RegionID, len(path))}
	for i, id := range path {
		r.Path[i] = model.RegionID(id)
		if i == 0 {
			continue
		}
		e, err := p.g.Edge(path[i-1], id)
		if err != nil {
			return Route{}, fmt.Errorf("reading route leg: %w", err)
		}
		r.Cost += e.Properties.Weight
	}
	return r, nil
}
