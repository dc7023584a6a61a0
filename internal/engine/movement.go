package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/pathing"
	"github.com/talgya/tilecity/internal/world"
)

// moveResidents takes one step for every moving resident, in collection order.
func (s *Simulation) moveResidents() {
	day := s.Clock.Day

	var occupied map[world.Location]int
	if s.Policy.CollisionAvoidance {
		occupied = make(map[world.Location]int, len(s.Residents))
		for _, r := range s.Residents {
			occupied[r.Loc]++
		}
	}

	for _, r := range s.Residents {
		if r.State != agents.Moving {
			continue
		}
		if _, ok := s.Paths.Get(r.ID); !ok {
			if !s.planMove(r, day, occupied) {
				continue
			}
		}

		next, ok := s.Paths.Peek(r.ID)
		if !ok {
			continue
		}
		if occupied != nil && next != r.Loc && occupied[next] > 0 {
			s.wait(r)
			continue
		}

		step, done, _ := s.Paths.Pop(r.ID)
		if occupied != nil {
			occupied[r.Loc]--
			occupied[step]++
		}
		r.Loc = step
		delete(s.waits, r.ID)

		if done && r.Loc == r.NextDestination(day) {
			r.Arrive(day)
			s.endMove(r.ID)
		}
	}
}

// planMove computes and caches the route for a resident that has just
// started moving. It reports whether the resident has a path to follow.
func (s *Simulation) planMove(r *agents.Resident, day agents.Day, occupied map[world.Location]int) bool {
	dest := r.NextDestination(day)
	if r.Loc == dest {
		r.Arrive(day)
		s.endMove(r.ID)
		return false
	}

	var opts pathing.Options
	if s.replan[r.ID] && occupied != nil {
		self := r.Loc
		opts.Blocked = func(l world.Location) bool {
			return l != self && occupied[l] > 0
		}
	}

	path, err := pathing.Route(s.Grid, s.Regions, r.Loc, dest, opts)
	if err != nil {
		if errors.Is(err, pathing.ErrNoRoad) && !s.faulted[r.ID] {
			s.faulted[r.ID] = true
			slog.Warn("resident cannot leave building", "resident", r.ID, "loc", r.Loc, "error", err)
			s.emit(Event{
				Category:    CategoryFault,
				Resident:    r.ID,
				Description: err.Error(),
			})
		}
		return false
	}
	if len(path) == 0 && opts.Blocked != nil {
		// Nothing around the crowd; fall back to the plain route and keep waiting.
		path, _ = pathing.Route(s.Grid, s.Regions, r.Loc, dest, pathing.Options{})
	}
	delete(s.replan, r.ID)
	delete(s.faulted, r.ID)

	if len(path) == 0 {
		s.emit(Event{
			Category:    CategoryUnreachable,
			Resident:    r.ID,
			Description: fmt.Sprintf("resident %d cannot reach %s from %s", r.ID, dest, r.Loc),
		})
		r.Arrive(day)
		s.endMove(r.ID)
		return false
	}

	s.Paths.Put(r.ID, path)
	return true
}

// wait records a blocked step and schedules a re-route once the resident has
// waited long enough.
func (s *Simulation) wait(r *agents.Resident) {
	s.waits[r.ID]++
	if s.Policy.RepathAfter > 0 && s.waits[r.ID] >= s.Policy.RepathAfter {
		slog.Debug("resident re-routing around crowd", "resident", r.ID, "loc", r.Loc, "waited", s.waits[r.ID])
		s.Paths.Drop(r.ID)
		s.waits[r.ID] = 0
		s.replan[r.ID] = true
	}
}
