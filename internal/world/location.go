package world

import "fmt"

// Location is a (row, column) position on the grid.
type Location struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Loc is a convenience constructor for Location.
func Loc(row, col int) Location { return Location{Row: row, Col: col} }

// NeighborDirections defines the four orthogonal offsets, in the order
// neighbours are visited everywhere in the engine.
var NeighborDirections = [4]Location{
	{Row: 0, Col: 1},
	{Row: 0, Col: -1},
	{Row: 1, Col: 0},
	{Row: -1, Col: 0},
}

// Neighbors returns the four adjacent locations. Some may be out of bounds.
func (l Location) Neighbors() [4]Location {
	var result [4]Location
	for i, dir := range NeighborDirections {
		result[i] = Location{Row: l.Row + dir.Row, Col: l.Col + dir.Col}
	}
	return result
}

// Less orders locations row-major.
func (l Location) Less(other Location) bool {
	if l.Row != other.Row {
		return l.Row < other.Row
	}
	return l.Col < other.Col
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Row, l.Col)
}

// Manhattan returns the grid distance between two locations.
func Manhattan(a, b Location) int {
	dr := a.Row - b.Row
	dc := a.Col - b.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}
