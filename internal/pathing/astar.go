package pathing

import (
	"container/heap"
	"slices"

	"github.com/talgya/tilecity/internal/world"
)

// Options tunes a search.
type Options struct {
	// Blocked, when set, marks extra cells the search must not enter.
	Blocked func(world.Location) bool
}

// FindPath runs A* from start toward dest over Road cells and cells of dest's
// own tile type. Any cell with a 4-neighbour in dest's region is a goal, so
// the search stops at whichever street cell fronts the target building. The
// result runs start, ..., goal cell, dest, or is empty when dest cannot be
// reached. When dest is not part of a region the goal is dest itself.
//
// Open-set ties on f are broken by lower h, then row-major order, so results
// are reproducible.
func FindPath(g *world.Grid, regions *world.RegionMap, start, dest world.Location, opts Options) []world.Location {
	if !g.Contains(start) || !g.Contains(dest) {
		return nil
	}

	destTile := g.At(dest)
	destRegion := regions.ID(dest)

	passable := func(l world.Location) bool {
		if !g.Contains(l) {
			return false
		}
		if t := g.At(l); t != world.TileRoad && t != destTile {
			return false
		}
		if opts.Blocked != nil && l != dest && opts.Blocked(l) {
			return false
		}
		return true
	}

	isGoal := func(l world.Location) bool {
		if destRegion == world.Unassigned {
			return l == dest
		}
		for _, n := range l.Neighbors() {
			if g.Contains(n) && regions.ID(n) == destRegion {
				return true
			}
		}
		return false
	}

	cols := g.Cols
	index := func(l world.Location) int { return l.Row*cols + l.Col }

	n := g.Cols * g.Rows
	gScore := make([]int, n)
	for i := range gScore {
		gScore[i] = -1
	}
	cameFrom := make([]int, n)
	closed := make([]bool, n)

	open := &openSet{}
	gScore[index(start)] = 0
	cameFrom[index(start)] = -1
	heap.Push(open, node{loc: start, g: 0, h: world.Manhattan(start, dest)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		ci := index(cur.loc)
		if closed[ci] || cur.g != gScore[ci] {
			continue // stale entry
		}

		if isGoal(cur.loc) {
			return reconstruct(cameFrom, ci, cols, dest)
		}
		closed[ci] = true

		for _, nb := range cur.loc.Neighbors() {
			if !passable(nb) {
				continue
			}
			ni := index(nb)
			if closed[ni] {
				continue
			}
			tentative := cur.g + 1
			if gScore[ni] >= 0 && tentative >= gScore[ni] {
				continue
			}
			gScore[ni] = tentative
			cameFrom[ni] = ci
			heap.Push(open, node{loc: nb, g: tentative, h: world.Manhattan(nb, dest)})
		}
	}

	return nil
}

func reconstruct(cameFrom []int, goal, cols int, dest world.Location) []world.Location {
	var path []world.Location
	for i := goal; i >= 0; i = cameFrom[i] {
		path = append(path, world.Loc(i/cols, i%cols))
	}
	slices.Reverse(path)
	if path[len(path)-1] != dest {
		path = append(path, dest)
	}
	return path
}

type node struct {
	loc  world.Location
	g, h int
}

func (n node) f() int { return n.g + n.h }

// openSet is a min-heap of search nodes.
type openSet []node

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	a, b := o[i], o[j]
	if a.f() != b.f() {
		return a.f() < b.f()
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.loc.Less(b.loc)
}

func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openSet) Push(x any) { *o = append(*o, x.(node)) }

func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}
