package pathing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tilecity/internal/world"
)

var glyphs = map[rune]world.Tile{
	'.': world.TileEmpty,
	'R': world.TileRoad,
	'O': world.TileOffice,
	'H': world.TileHouse,
	'M': world.TileMall,
	'P': world.TilePark,
}

func sketch(t *testing.T, rows ...string) (*world.Grid, *world.RegionMap) {
	t.Helper()
	g := world.NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, ch := range row {
			tile, ok := glyphs[ch]
			require.True(t, ok, "glyph %q", ch)
			g.Set(x, y, tile)
		}
	}
	return g, world.Label(g)
}

func assertConnected(t *testing.T, path []world.Location) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, world.Manhattan(path[i-1], path[i]), "step %d: %s -> %s", i, path[i-1], path[i])
	}
}

func TestNearestRoad(t *testing.T) {
	g, _ := sketch(t,
		"HHH.",
		"H.HR",
		"O..R",
		"HOR.",
	)

	for _, tc := range []struct {
		name  string
		start world.Location
		want  world.Location
		ok    bool
	}{
		{"walks through own building", world.Loc(0, 0), world.Loc(1, 3), true},
		{"already on road", world.Loc(2, 3), world.Loc(2, 3), true},
		{"adjacent road", world.Loc(3, 1), world.Loc(3, 2), true},
		{"other types do not conduct", world.Loc(3, 0), world.Location{}, false},
		{"no road at all", world.Loc(2, 0), world.Location{}, false},
		{"out of bounds", world.Loc(-1, 0), world.Location{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NearestRoad(g, tc.start)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNearestRoad_depthFirstOrder(t *testing.T) {
	// Three exits; the walk keeps heading right through the house first.
	g, _ := sketch(t,
		".R..",
		"RHHR",
	)
	got, ok := NearestRoad(g, world.Loc(1, 1))
	require.True(t, ok)
	assert.Equal(t, world.Loc(1, 3), got)
}

func TestRoute_commute(t *testing.T) {
	g, regions := sketch(t,
		"RRRRR",
		"H...O",
	)
	path, err := Route(g, regions, world.Loc(1, 0), world.Loc(1, 4), Options{})
	require.NoError(t, err)
	assert.Equal(t, []world.Location{
		world.Loc(0, 0), world.Loc(0, 1), world.Loc(0, 2), world.Loc(0, 3), world.Loc(0, 4),
		world.Loc(1, 4),
	}, path)
}

func TestRoute_noRoad(t *testing.T) {
	g, regions := sketch(t,
		"H.O",
		"..R",
	)
	path, err := Route(g, regions, world.Loc(0, 0), world.Loc(0, 2), Options{})
	assert.Nil(t, path)
	assert.True(t, errors.Is(err, ErrNoRoad))
}

func TestFindPath_unreachable(t *testing.T) {
	g, regions := sketch(t,
		"RR.RR",
		"H...O",
	)
	path, err := Route(g, regions, world.Loc(1, 0), world.Loc(1, 4), Options{})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFindPath_throughDestinationType(t *testing.T) {
	// The lone office at (0,2) is a different region but the same type as the
	// destination, so it may be crossed.
	g, regions := sketch(t,
		"RRORR",
		"H...O",
	)
	path := FindPath(g, regions, world.Loc(0, 0), world.Loc(1, 4), Options{})
	assert.Equal(t, []world.Location{
		world.Loc(0, 0), world.Loc(0, 1), world.Loc(0, 2), world.Loc(0, 3), world.Loc(0, 4),
		world.Loc(1, 4),
	}, path)

	// A house-bound trip cannot use it.
	g.Set(0, 1, world.TileHouse)
	regions = world.Label(g)
	assert.Empty(t, FindPath(g, regions, world.Loc(0, 4), world.Loc(1, 0), Options{}))
}

func TestFindPath_stopsAtBuildingFront(t *testing.T) {
	g, regions := sketch(t,
		"RRRRRR",
		"R.MMM.",
		"R.MMM.",
	)
	// Deep inside the mall; any street cell next to it is a goal.
	dest := world.Loc(2, 4)
	path := FindPath(g, regions, world.Loc(2, 0), dest, Options{})
	require.NotEmpty(t, path)
	assertConnected(t, path[:len(path)-1])

	goal := path[len(path)-2]
	assert.Equal(t, world.Loc(0, 2), goal)
	assert.Equal(t, dest, path[len(path)-1])
}

func TestFindPath_roadDestination(t *testing.T) {
	g, regions := sketch(t, "RRRR")
	path := FindPath(g, regions, world.Loc(0, 0), world.Loc(0, 3), Options{})
	assert.Equal(t, []world.Location{
		world.Loc(0, 0), world.Loc(0, 1), world.Loc(0, 2), world.Loc(0, 3),
	}, path)
}

func TestFindPath_blocked(t *testing.T) {
	g, regions := sketch(t,
		"RRRRR",
		"R...R",
		"RRRRR",
		"H...O",
	)
	start, dest := world.Loc(2, 0), world.Loc(3, 4)

	direct := FindPath(g, regions, start, dest, Options{})
	assert.Len(t, direct, 6)

	jam := world.Loc(2, 2)
	around := FindPath(g, regions, start, dest, Options{
		Blocked: func(l world.Location) bool { return l == jam },
	})
	assert.Equal(t, []world.Location{
		world.Loc(2, 0), world.Loc(1, 0), world.Loc(0, 0), world.Loc(0, 1), world.Loc(0, 2),
		world.Loc(0, 3), world.Loc(0, 4), world.Loc(1, 4), world.Loc(2, 4), world.Loc(3, 4),
	}, around)
	assert.NotContains(t, around, jam)
}

func TestFindPath_deterministicOnCity(t *testing.T) {
	g := world.GenerateCity(world.GenConfig{Cols: 31, Rows: 31, BlockSize: 4, Seed: 5})
	regions := world.Label(g)

	start := world.Loc(0, 0)
	dest := world.Loc(28, 28)
	require.True(t, g.At(dest).IsBuilding())

	a := FindPath(g, regions, start, dest, Options{})
	b := FindPath(g, regions, start, dest, Options{})
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assertConnected(t, a[:len(a)-1])
	assert.Equal(t, dest, a[len(a)-1])

	goal := a[len(a)-2]
	fronts := false
	for _, n := range goal.Neighbors() {
		if regions.ID(n) == regions.ID(dest) {
			fronts = true
		}
	}
	assert.True(t, fronts)
}

func TestFindPath_outOfBounds(t *testing.T) {
	g, regions := sketch(t, "RR")
	assert.Nil(t, FindPath(g, regions, world.Loc(0, 0), world.Loc(4, 4), Options{}))
	assert.Nil(t, FindPath(g, regions, world.Loc(-1, 0), world.Loc(0, 1), Options{}))
}
