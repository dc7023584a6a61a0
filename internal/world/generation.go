// City generation using layered simplex noise.
// Lays a road lattice over the grid, then zones each block from two noise
// fields: residential density and commercial pull.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds city generation parameters.
type GenConfig struct {
	Cols      int     // Grid width
	Rows      int     // Grid height
	BlockSize int     // Cells between parallel roads
	Seed      int64   // Random seed (0 = random)
	Vacancy   float64 // Fraction of blocks left unzoned (0.0–1.0)
}

// DefaultGenConfig returns the editor's default 100×100 canvas.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Cols:      100,
		Rows:      100,
		BlockSize: 4,
		Seed:      0,
		Vacancy:   0.1,
	}
}

// SmallTestConfig returns a tiny city for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Cols:      21,
		Rows:      21,
		BlockSize: 4,
		Seed:      42,
		Vacancy:   0,
	}
}

// GenerateCity creates a zoned grid. Every block is bounded by road on all
// sides that exist, so each generated building has a street to walk out on.
func GenerateCity(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.BlockSize < 1 {
		cfg.BlockSize = 1
	}
	rng := rand.New(rand.NewSource(seed + 100))

	densityNoise := opensimplex.NewNormalized(seed)
	commerceNoise := opensimplex.NewNormalized(seed + 1)

	g := NewGrid(cfg.Cols, cfg.Rows)
	pitch := cfg.BlockSize + 1

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if x%pitch == 0 || y%pitch == 0 {
				g.Set(x, y, TileRoad)
			}
		}
	}

	for by := 1; by < g.Rows; by += pitch {
		for bx := 1; bx < g.Cols; bx += pitch {
			if rng.Float64() < cfg.Vacancy {
				continue
			}

			cx := float64(bx) + float64(cfg.BlockSize)/2
			cy := float64(by) + float64(cfg.BlockSize)/2
			density := octaveNoise(densityNoise, cx, cy, 3, 0.05, 0.5)
			commerce := octaveNoise(commerceNoise, cx, cy, 2, 0.08, 0.5)

			zone := zoneFor(density, commerce)
			x2 := min(bx+cfg.BlockSize-1, g.Cols-1)
			y2 := min(by+cfg.BlockSize-1, g.Rows-1)
			g.PaintRect(bx, by, x2, y2, zone)
		}
	}

	return g
}

// zoneFor derives a block's zoning from its noise samples.
func zoneFor(density, commerce float64) Tile {
	if density < 0.35 {
		return TilePark
	}
	if commerce > 0.62 {
		if density > 0.6 {
			return TileMall
		}
		return TileOffice
	}
	if commerce < 0.3 && density > 0.5 {
		return TileSchool
	}
	return TileHouse
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
