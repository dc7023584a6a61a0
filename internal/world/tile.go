// Package world provides the zoned tile grid, locations, and region labeling.
package world

import (
	"fmt"
	"strings"
)

// Tile is the zoning classification of one grid cell.
type Tile uint8

const (
	TileEmpty  Tile = iota // Unzoned
	TileRoad               // Traversable street
	TileOffice             // Workplace
	TileHouse              // One resident per cell
	TileMall               // Shopping
	TileSchool             // Education
	TilePark               // Leisure
)

// NumTiles is the total number of tile types.
const NumTiles = 7

// RGB is a display color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var tileNames = [NumTiles]string{
	TileEmpty:  "EMPTY",
	TileRoad:   "ROAD",
	TileOffice: "OFFICE",
	TileHouse:  "HOUSE",
	TileMall:   "MALL",
	TileSchool: "SCHOOL",
	TilePark:   "PARK",
}

var tileColors = [NumTiles]RGB{
	TileRoad:   {R: 90, G: 90, B: 90},
	TileOffice: {R: 70, G: 130, B: 180},
	TileHouse:  {R: 205, G: 133, B: 63},
	TileMall:   {R: 218, G: 112, B: 214},
	TileSchool: {R: 255, G: 215, B: 0},
	TilePark:   {R: 60, G: 179, B: 113},
}

// String returns the canonical upper-case tile name used by the grid text format.
func (t Tile) String() string {
	if int(t) < NumTiles {
		return tileNames[t]
	}
	return fmt.Sprintf("Tile(%d)", uint8(t))
}

// Color returns the display color. Empty has none and reports ok=false.
func (t Tile) Color() (RGB, bool) {
	if t == TileEmpty || int(t) >= NumTiles {
		return RGB{}, false
	}
	return tileColors[t], true
}

// IsBuilding reports whether the tile can belong to a region.
func (t Tile) IsBuilding() bool {
	return t != TileEmpty && t != TileRoad && int(t) < NumTiles
}

// IsActivity reports whether residents can be scheduled to spend time here.
func (t Tile) IsActivity() bool {
	switch t {
	case TileOffice, TileMall, TileSchool, TilePark:
		return true
	}
	return false
}

// ParseTile maps a tile name (case-insensitive) back to its Tile.
func ParseTile(name string) (Tile, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range tileNames {
		if n == name {
			return Tile(i), nil
		}
	}
	return TileEmpty, fmt.Errorf("unknown tile %q", name)
}
