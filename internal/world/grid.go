package world

import "fmt"

// Grid holds the zoned map as a fixed-size cols × rows array of tiles.
// x is the column and y the row throughout.
type Grid struct {
	Cols  int    `json:"cols"`
	Rows  int    `json:"rows"`
	tiles []Tile // row-major
}

// NewGrid creates an all-empty grid.
func NewGrid(cols, rows int) *Grid {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &Grid{
		Cols:  cols,
		Rows:  rows,
		tiles: make([]Tile, cols*rows),
	}
}

// InBounds returns true if (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return 0 <= x && x < g.Cols && 0 <= y && y < g.Rows
}

// Contains is InBounds for a Location.
func (g *Grid) Contains(l Location) bool {
	return g.InBounds(l.Col, l.Row)
}

// Get returns the tile at (x, y). Out-of-bounds reads return TileEmpty.
func (g *Grid) Get(x, y int) Tile {
	if !g.InBounds(x, y) {
		return TileEmpty
	}
	return g.tiles[y*g.Cols+x]
}

// At returns the tile at a Location.
func (g *Grid) At(l Location) Tile {
	return g.Get(l.Col, l.Row)
}

// Set places a tile at (x, y). Out-of-bounds writes are ignored.
func (g *Grid) Set(x, y int, t Tile) {
	if !g.InBounds(x, y) {
		return
	}
	g.tiles[y*g.Cols+x] = t
}

// Erase clears the cell at (x, y).
func (g *Grid) Erase(x, y int) {
	g.Set(x, y, TileEmpty)
}

// PaintRect paints every cell of the inclusive rectangle spanned by two
// corners given as (x, y) pairs. If either normalised corner is out of
// bounds nothing is painted at all.
func (g *Grid) PaintRect(x1, y1, x2, y2 int, t Tile) {
	x1, x2 = min(x1, x2), max(x1, x2)
	y1, y2 = min(y1, y2), max(y1, y2)

	if !g.InBounds(x1, y1) || !g.InBounds(x2, y2) {
		return
	}

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			g.tiles[y*g.Cols+x] = t
		}
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Cols: g.Cols, Rows: g.Rows, tiles: make([]Tile, len(g.tiles))}
	copy(c.tiles, g.tiles)
	return c
}

// Equal reports whether two grids have identical dimensions and tiles.
func (g *Grid) Equal(other *Grid) bool {
	if g.Cols != other.Cols || g.Rows != other.Rows {
		return false
	}
	for i := range g.tiles {
		if g.tiles[i] != other.tiles[i] {
			return false
		}
	}
	return true
}

// Counts returns the number of cells of each tile type.
func (g *Grid) Counts() map[Tile]int {
	counts := make(map[Tile]int)
	for _, t := range g.tiles {
		counts[t]++
	}
	return counts
}

// Row returns a copy of row y.
func (g *Grid) Row(y int) []Tile {
	row := make([]Tile, g.Cols)
	if y < 0 || y >= g.Rows {
		return row
	}
	copy(row, g.tiles[y*g.Cols:(y+1)*g.Cols])
	return row
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.Cols, g.Rows)
}
