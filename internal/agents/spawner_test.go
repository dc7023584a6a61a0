package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/world"
)

func TestEligible(t *testing.T) {
	g := world.NewGrid(5, 3)
	g.PaintRect(0, 1, 4, 1, world.TileRoad)
	g.Set(3, 0, world.TileHouse)
	g.Set(1, 0, world.TileHouse)
	g.Set(0, 2, world.TilePark)
	g.Set(2, 2, world.TileOffice)

	blocks, houses := Eligible(g, world.Label(g))
	assert.Equal(t, []world.Location{world.Loc(0, 1), world.Loc(0, 3)}, houses)
	assert.Equal(t, []world.Location{world.Loc(2, 0), world.Loc(2, 2)}, blocks)
}

// 5x5: a house and an office on the top row, a street along row 1.
func scenarioGrid() *world.Grid {
	g := world.NewGrid(5, 5)
	g.Set(0, 0, world.TileHouse)
	g.PaintRect(0, 1, 4, 1, world.TileRoad)
	g.Set(4, 0, world.TileOffice)
	return g
}

func TestGenerate_singleCommuter(t *testing.T) {
	g := scenarioGrid()

	// Every draw takes the top of its range.
	sp := NewSpawner(&entropy.Fixed{Fallback: -1}, DefaultZoneRules())
	residents := sp.Generate(g, world.Label(g))
	require.Len(t, residents, 1)

	r := residents[0]
	assert.Equal(t, ResidentID(1), r.ID)
	assert.Equal(t, world.Loc(0, 0), r.Home)
	assert.Equal(t, r.Home, r.Loc)
	assert.Equal(t, Staying, r.State)

	want := DaySchedule{
		{Loc: world.Loc(0, 0), Dwell: 8},
		{Loc: world.Loc(0, 4), Dwell: 8},
		{Loc: world.Loc(0, 0), Dwell: Infinite},
	}
	for d := 0; d < DaysPerWeek; d++ {
		assert.Equal(t, want, r.Timetable[d], Day(d).String())
	}
}

func TestGenerate_singleCommuterRanges(t *testing.T) {
	g := scenarioGrid()
	regions := world.Label(g)

	seen := 0
	for seed := int64(1); seed <= 40; seed++ {
		residents := NewSpawner(entropy.NewSeeded(seed), DefaultZoneRules()).Generate(g, regions)
		require.LessOrEqual(t, len(residents), 1)
		if len(residents) == 0 {
			continue
		}
		seen++

		monday := residents[0].Timetable[Monday]
		require.Len(t, monday, 3)
		assert.Equal(t, world.Loc(0, 0), monday[0].Loc)
		assert.True(t, monday[0].Dwell >= 4 && monday[0].Dwell <= 8)
		assert.Equal(t, world.Loc(0, 4), monday[1].Loc)
		assert.True(t, monday[1].Dwell >= 4 && monday[1].Dwell <= 8)
		assert.Equal(t, Stop{Loc: world.Loc(0, 0), Dwell: Infinite}, monday[2])
	}
	assert.Positive(t, seen)
}

func TestGenerate_noHouses(t *testing.T) {
	g := world.NewGrid(3, 3)
	g.Set(0, 0, world.TileOffice)

	sp := NewSpawner(entropy.NewSeeded(1), DefaultZoneRules())
	assert.Empty(t, sp.Generate(g, world.Label(g)))
}

func TestGenerate_invariants(t *testing.T) {
	g := world.GenerateCity(world.GenConfig{Cols: 36, Rows: 36, BlockSize: 2, Seed: 11, Vacancy: 0})
	rules := DefaultZoneRules()
	regions := world.Label(g)
	blocks, houses := Eligible(g, regions)
	require.NotEmpty(t, houses)
	require.NotEmpty(t, blocks)

	for seed := int64(1); seed <= 5; seed++ {
		residents := NewSpawner(entropy.NewSeeded(seed), rules).Generate(g, regions)
		assert.LessOrEqual(t, len(residents), len(houses))

		homes := make(map[world.Location]bool)
		ids := make(map[ResidentID]bool)
		for _, r := range residents {
			assert.Equal(t, world.TileHouse, g.At(r.Home))
			assert.False(t, homes[r.Home], "house %s shared", r.Home)
			homes[r.Home] = true
			assert.False(t, ids[r.ID])
			ids[r.ID] = true
		}

		for d := 0; d < DaysPerWeek; d++ {
			used := make(map[world.Location]bool)
			for _, r := range residents {
				sched := r.Timetable[d]
				require.GreaterOrEqual(t, len(sched), 2)

				first, last := sched[0], sched[len(sched)-1]
				assert.Equal(t, r.Home, first.Loc)
				assert.GreaterOrEqual(t, first.Dwell, rules.Departure.Min)
				assert.LessOrEqual(t, first.Dwell, rules.Departure.Max)
				assert.Equal(t, Stop{Loc: r.Home, Dwell: Infinite}, last)

				for _, stop := range sched[1 : len(sched)-1] {
					tile := g.At(stop.Loc)
					require.True(t, tile.IsActivity())
					bounds := rules.DwellFor(tile)
					assert.GreaterOrEqual(t, stop.Dwell, bounds.Min)
					assert.LessOrEqual(t, stop.Dwell, bounds.Max)
					assert.False(t, used[stop.Loc], "block %s double-booked on %s", stop.Loc, Day(d))
					used[stop.Loc] = true
				}
			}
		}
	}
}

func TestGenerate_blocksExhausted(t *testing.T) {
	g := world.NewGrid(5, 1)
	g.Set(0, 0, world.TileHouse)
	g.Set(2, 0, world.TileHouse)
	g.Set(4, 0, world.TileHouse)
	g.Set(1, 0, world.TileRoad)
	g.Set(3, 0, world.TilePark)

	residents := NewSpawner(&entropy.Fixed{Fallback: -1}, DefaultZoneRules()).Generate(g, world.Label(g))
	require.Len(t, residents, 3)

	for d := 0; d < DaysPerWeek; d++ {
		assert.Len(t, residents[0].Timetable[d], 3)
		assert.Len(t, residents[1].Timetable[d], 2)
		assert.Len(t, residents[2].Timetable[d], 2)
	}
}

func TestSpawner_setNextID(t *testing.T) {
	g := world.NewGrid(1, 1)
	g.Set(0, 0, world.TileHouse)

	sp := NewSpawner(&entropy.Fixed{Fallback: -1}, DefaultZoneRules())
	sp.SetNextID(40)
	residents := sp.Generate(g, world.Label(g))
	require.Len(t, residents, 1)
	assert.Equal(t, ResidentID(40), residents[0].ID)
}
