package world

// Unassigned is the region id of Road and Empty cells.
const Unassigned = -1

// RegionMap assigns every cell of a grid a region id. Two cells share an id
// iff they are 4-connected through cells of the same building tile type.
type RegionMap struct {
	Cols  int
	Rows  int
	ids   []int
	sizes []int // cell count per region id
}

// Label flood-fills the grid into regions, scanning row-major so ids are
// assigned in order of each region's first cell.
func Label(g *Grid) *RegionMap {
	rm := &RegionMap{
		Cols: g.Cols,
		Rows: g.Rows,
		ids:  make([]int, g.Cols*g.Rows),
	}
	for i := range rm.ids {
		rm.ids[i] = Unassigned
	}

	var stack []Location
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			tile := g.Get(c, r)
			if !tile.IsBuilding() || rm.ids[r*g.Cols+c] != Unassigned {
				continue
			}

			id := len(rm.sizes)
			rm.sizes = append(rm.sizes, 0)
			rm.ids[r*g.Cols+c] = id
			stack = append(stack[:0], Loc(r, c))

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				rm.sizes[id]++

				for _, n := range cur.Neighbors() {
					if !g.Contains(n) || g.At(n) != tile {
						continue
					}
					idx := n.Row*g.Cols + n.Col
					if rm.ids[idx] != Unassigned {
						continue
					}
					rm.ids[idx] = id
					stack = append(stack, n)
				}
			}
		}
	}

	return rm
}

// ID returns the region id at a location, or Unassigned when out of bounds.
func (rm *RegionMap) ID(l Location) int {
	if l.Row < 0 || l.Row >= rm.Rows || l.Col < 0 || l.Col >= rm.Cols {
		return Unassigned
	}
	return rm.ids[l.Row*rm.Cols+l.Col]
}

// Labeled reports whether the location belongs to a region.
func (rm *RegionMap) Labeled(l Location) bool {
	return rm.ID(l) != Unassigned
}

// Count returns the number of regions.
func (rm *RegionMap) Count() int {
	return len(rm.sizes)
}

// Size returns the number of cells in a region (its capacity).
func (rm *RegionMap) Size(id int) int {
	if id < 0 || id >= len(rm.sizes) {
		return 0
	}
	return rm.sizes[id]
}
