// Population spawning: places residents in houses and builds their weekly
// timetables.
package agents

import (
	"log/slog"
	"slices"

	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/world"
)

// Spawner creates residents for the simulation.
type Spawner struct {
	rng    entropy.Source
	rules  ZoneRules
	nextID ResidentID
}

// NewSpawner creates a spawner drawing from rng with the given zone rules.
func NewSpawner(rng entropy.Source, rules ZoneRules) *Spawner {
	return &Spawner{
		rng:    rng,
		rules:  rules,
		nextID: 1,
	}
}

// SetNextID sets the next resident ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id ResidentID) {
	s.nextID = id
}

// Rules returns the spawner's zone rules.
func (s *Spawner) Rules() ZoneRules {
	return s.rules
}

// Eligible partitions the labelled cells of a grid into activity blocks and
// houses, both in row-major order.
func Eligible(g *world.Grid, regions *world.RegionMap) (blocks, houses []world.Location) {
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			loc := world.Loc(r, c)
			if !regions.Labeled(loc) {
				continue
			}
			switch t := g.At(loc); {
			case t == world.TileHouse:
				houses = append(houses, loc)
			case t.IsActivity():
				blocks = append(blocks, loc)
			}
		}
	}
	return blocks, houses
}

// Generate creates a population sized uniformly in [0, houses], one resident
// per house, and fills in each day's activity stop.
func (s *Spawner) Generate(g *world.Grid, regions *world.RegionMap) []*Resident {
	blocks, houses := Eligible(g, regions)
	population := entropy.IntRange(s.rng, 0, len(houses))

	slog.Info("generating population",
		"capacity", len(houses),
		"blocks", len(blocks),
		"population", population,
	)

	residents := make([]*Resident, 0, population)
	for i := 0; i < population; i++ {
		j := entropy.Pick(s.rng, len(houses))
		home := houses[j]
		houses = slices.Delete(houses, j, j+1)
		residents = append(residents, s.spawnOne(home))
	}

	for d := 0; d < DaysPerWeek; d++ {
		pool := slices.Clone(blocks)
		for _, r := range residents {
			if len(pool) == 0 {
				slog.Warn("activity blocks exhausted", "day", Day(d), "resident", r.ID)
				break
			}
			j := entropy.Pick(s.rng, len(pool))
			loc := pool[j]
			pool = slices.Delete(pool, j, j+1)

			bounds := s.rules.DwellFor(g.At(loc))
			dwell := Hours(entropy.IntRange(s.rng, int(bounds.Min), int(bounds.Max)))

			r.Timetable[d] = slices.Insert(r.Timetable[d], 1, Stop{Loc: loc, Dwell: dwell})
		}
	}

	return residents
}

func (s *Spawner) spawnOne(home world.Location) *Resident {
	id := s.nextID
	s.nextID++

	r := &Resident{
		ID:    id,
		Home:  home,
		Loc:   home,
		State: Staying,
	}
	for d := 0; d < DaysPerWeek; d++ {
		leave := Hours(entropy.IntRange(s.rng, int(s.rules.Departure.Min), int(s.rules.Departure.Max)))
		r.Timetable[d] = DaySchedule{
			{Loc: home, Dwell: leave},
			{Loc: home, Dwell: Infinite},
		}
	}
	return r
}
