// Package pathing routes residents across the grid: out of their building
// onto the street, then along roads to the building they are headed for.
package pathing

import (
	"errors"
	"fmt"

	"github.com/talgya/tilecity/internal/world"
)

// ErrNoRoad is returned when a building has no road reachable through its own
// tiles.
var ErrNoRoad = errors.New("no road connected to building")

// NearestRoad walks depth-first from start through cells of start's tile
// type and returns the first Road cell it reaches. A start already on a Road
// is returned as is.
func NearestRoad(g *world.Grid, start world.Location) (world.Location, bool) {
	if !g.Contains(start) {
		return world.Location{}, false
	}
	own := g.At(start)
	if own == world.TileRoad {
		return start, true
	}

	visited := make(map[world.Location]bool)
	stack := []world.Location{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !g.Contains(cur) || visited[cur] {
			continue
		}
		switch g.At(cur) {
		case world.TileRoad:
			return cur, true
		case own:
		default:
			continue
		}
		visited[cur] = true

		// Push in reverse so neighbours pop in NeighborDirections order.
		ns := cur.Neighbors()
		for i := len(ns) - 1; i >= 0; i-- {
			stack = append(stack, ns[i])
		}
	}
	return world.Location{}, false
}

// Route resolves the on-road start for from and searches a path to dest.
// An empty path with a nil error means dest is unreachable.
func Route(g *world.Grid, regions *world.RegionMap, from, dest world.Location, opts Options) ([]world.Location, error) {
	start, ok := NearestRoad(g, from)
	if !ok {
		return nil, fmt.Errorf("resident at %s: %w", from, ErrNoRoad)
	}
	return FindPath(g, regions, start, dest, opts), nil
}
