package agents

import "github.com/talgya/tilecity/internal/world"

// Update runs the hourly transition for the given day.
//
// A Staying resident accumulates an hour and departs once the current stop's
// dwell is used up. A Moving resident arrives when it stands on its next stop.
func (r *Resident) Update(day Day) {
	switch r.State {
	case Staying:
		r.Elapsed++
		sched := r.Timetable.Day(day)
		if r.Index >= len(sched) {
			return
		}
		dwell := sched[r.Index].Dwell
		if dwell != Infinite && r.Elapsed >= dwell {
			r.State = Moving
			r.Elapsed = 0
		}
	case Moving:
		if r.Loc == r.NextDestination(day) {
			r.Arrive(day)
		}
	}
}

// NextDestination returns where the resident is headed. At the last stop of
// the day it is the resident's own location.
func (r *Resident) NextDestination(day Day) world.Location {
	sched := r.Timetable.Day(day)
	if r.Index+1 >= len(sched) {
		return r.Loc
	}
	return sched[r.Index+1].Loc
}

// Arrive completes the current move: the resident stays at the next stop.
func (r *Resident) Arrive(day Day) {
	r.State = Staying
	r.Elapsed = 0
	if n := len(r.Timetable.Day(day)); n > 0 {
		r.Index = (r.Index + 1) % n
	} else {
		r.Index = 0
	}
}

// StartDay resets the resident to the first stop of a fresh day.
func (r *Resident) StartDay() {
	r.State = Staying
	r.Index = 0
	r.Elapsed = 0
}

// CurrentStop returns today's current stop, if any.
func (r *Resident) CurrentStop(day Day) (Stop, bool) {
	sched := r.Timetable.Day(day)
	if r.Index < 0 || r.Index >= len(sched) {
		return Stop{}, false
	}
	return sched[r.Index], true
}
