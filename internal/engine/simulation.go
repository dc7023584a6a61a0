// Simulation ties together the grid, the population, routing, and the clock.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/pathing"
	"github.com/talgya/tilecity/internal/world"
)

// MovePolicy controls how residents share street cells.
type MovePolicy struct {
	// CollisionAvoidance keeps a resident from stepping onto a cell another
	// resident stands on.
	CollisionAvoidance bool
	// RepathAfter is the number of consecutive blocked ticks after which a
	// waiting resident routes around occupied cells. Zero waits forever.
	RepathAfter int
}

// DefaultMovePolicy advances residents unconditionally.
func DefaultMovePolicy() MovePolicy {
	return MovePolicy{CollisionAvoidance: false, RepathAfter: 30}
}

// Simulation holds the complete engine state. Every exported method takes the
// state lock, so a Tick never overlaps a read.
type Simulation struct {
	mu sync.Mutex

	Session   uuid.UUID
	Grid      *world.Grid
	Regions   *world.RegionMap
	Residents []*agents.Resident
	Paths     *pathing.Cache[agents.ResidentID]
	Clock     Clock
	Policy    MovePolicy
	Spawner   *agents.Spawner
	LastTick  uint64  // Ticks processed since the simulation was created
	Events    []Event // Recent events, trimmed to maxEvents
	EventSeq  uint64  // Sequence number of the newest event

	// Per-move bookkeeping, cleared whenever a move ends.
	waits   map[agents.ResidentID]int
	replan  map[agents.ResidentID]bool
	faulted map[agents.ResidentID]bool

	subs    map[int]chan Event
	nextSub int
}

const maxEvents = 1000

// NewSimulation creates a simulation over grid. The population is empty until
// GeneratePopulation runs.
func NewSimulation(grid *world.Grid, spawner *agents.Spawner, policy MovePolicy) *Simulation {
	return &Simulation{
		Session: uuid.New(),
		Grid:    grid,
		Regions: world.Label(grid),
		Paths:   pathing.NewCache[agents.ResidentID](),
		Policy:  policy,
		Spawner: spawner,
		waits:   make(map[agents.ResidentID]int),
		replan:  make(map[agents.ResidentID]bool),
		faulted: make(map[agents.ResidentID]bool),
		subs:    make(map[int]chan Event),
	}
}

// GeneratePopulation discards any previous residents, regions, and cached
// paths and rebuilds them from the current grid. It returns the population size.
func (s *Simulation) GeneratePopulation() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Regions = world.Label(s.Grid)
	s.Residents = s.Spawner.Generate(s.Grid, s.Regions)
	s.resetMoves()
	s.Session = uuid.New()

	slog.Info("population generated",
		"session", s.Session,
		"residents", humanize.Comma(int64(len(s.Residents))),
		"regions", s.Regions.Count(),
		"clock", s.Clock,
	)
	s.emit(Event{
		Category:    CategoryPopulation,
		Description: fmt.Sprintf("%d residents moved in", len(s.Residents)),
	})
	return len(s.Residents)
}

// Restore replaces the population and clock with previously saved state.
func (s *Simulation) Restore(session uuid.UUID, residents []*agents.Resident, clock Clock, lastTick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Session = session
	s.Regions = world.Label(s.Grid)
	s.Residents = residents
	s.Clock = clock
	s.LastTick = lastTick
	s.resetMoves()

	var maxID agents.ResidentID
	for _, r := range residents {
		maxID = max(maxID, r.ID)
	}
	if s.Spawner != nil {
		s.Spawner.SetNextID(maxID + 1)
	}
}

// Tick advances the simulation one second: clock, hourly updates, daily
// rollover, then one movement step for every moving resident.
func (s *Simulation) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick++
	day := s.Clock.Day
	hourPassed, dayPassed := s.Clock.Advance()
	if hourPassed {
		s.updateHour(day)
	}
	if dayPassed {
		s.rollDay()
	}
	s.moveResidents()
}

// TickMinute adapts Tick to the engine's per-tick callback.
func (s *Simulation) TickMinute(uint64) {
	s.Tick()
}

// updateHour runs the hourly transition of every resident, in order.
func (s *Simulation) updateHour(day agents.Day) {
	for _, r := range s.Residents {
		was := r.State
		r.Update(day)
		if was != r.State {
			s.endMove(r.ID)
		}
	}
}

// rollDay starts every resident on the first stop of the new day.
func (s *Simulation) rollDay() {
	for _, r := range s.Residents {
		r.StartDay()
	}
	s.resetMoves()
	slog.Debug("day rolled over", "day", s.Clock.Day, "residents", len(s.Residents))
}

func (s *Simulation) resetMoves() {
	s.Paths.Reset()
	clear(s.waits)
	clear(s.replan)
	clear(s.faulted)
}

func (s *Simulation) endMove(id agents.ResidentID) {
	s.Paths.Drop(id)
	delete(s.waits, id)
	delete(s.replan, id)
	delete(s.faulted, id)
}

// Paint paints a rectangle of the grid. Regions are relabelled on the next
// population generation.
func (s *Simulation) Paint(x1, y1, x2, y2 int, t world.Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Grid.PaintRect(x1, y1, x2, y2, t)
}

// Erase clears one cell.
func (s *Simulation) Erase(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Grid.Erase(x, y)
}

// GridCopy returns a copy of the grid and its current region labelling.
func (s *Simulation) GridCopy() (*world.Grid, *world.RegionMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Grid.Clone(), s.Regions
}

// ResidentView is one entry of the render query surface.
type ResidentView struct {
	ID    agents.ResidentID `json:"id"`
	Loc   world.Location    `json:"loc"`
	State string            `json:"state"`
}

// View is a point-in-time copy of everything a renderer needs.
type View struct {
	Session   uuid.UUID      `json:"session"`
	Tick      uint64         `json:"tick"`
	Day       agents.Day     `json:"day"`
	DayName   string         `json:"day_name"`
	Hour      int            `json:"hour"`
	Second    int            `json:"second"`
	Residents []ResidentView `json:"residents"`
}

// Snapshot returns resident positions and the clock.
func (s *Simulation) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Session:   s.Session,
		Tick:      s.LastTick,
		Day:       s.Clock.Day,
		DayName:   s.Clock.Day.String(),
		Hour:      s.Clock.Hour,
		Second:    s.Clock.Second,
		Residents: make([]ResidentView, len(s.Residents)),
	}
	for i, r := range s.Residents {
		v.Residents[i] = ResidentView{ID: r.ID, Loc: r.Loc, State: r.State.String()}
	}
	return v
}

// Resident returns a copy of one resident.
func (s *Simulation) Resident(id agents.ResidentID) (agents.Resident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Residents {
		if r.ID == id {
			return *r, true
		}
	}
	return agents.Resident{}, false
}

// Stats summarises the population.
type Stats struct {
	Residents int `json:"residents"`
	Staying   int `json:"staying"`
	Moving    int `json:"moving"`
	Routing   int `json:"routing"` // Residents with a cached path
	Faulted   int `json:"faulted"` // Residents whose building has no road
	Regions   int `json:"regions"`
}

// Stats returns population counters.
func (s *Simulation) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Residents: len(s.Residents),
		Routing:   s.Paths.Len(),
		Faulted:   len(s.faulted),
		Regions:   s.Regions.Count(),
	}
	for _, r := range s.Residents {
		if r.State == agents.Moving {
			st.Moving++
		} else {
			st.Staying++
		}
	}
	return st
}

// State returns copies of the residents and clock for persistence.
func (s *Simulation) State() (uuid.UUID, []agents.Resident, Clock, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	residents := make([]agents.Resident, len(s.Residents))
	for i, r := range s.Residents {
		residents[i] = *r
	}
	return s.Session, residents, s.Clock, s.LastTick
}
