// Package agents provides the resident data model, its hourly state machine,
// and population and schedule generation.
package agents

import (
	"fmt"

	"github.com/talgya/tilecity/internal/world"
)

// ResidentID is a unique identifier for a resident.
type ResidentID uint64

// Day is a day of the simulated week. The week has six days, Monday through
// Saturday, and wraps back to Monday.
type Day uint8

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DaysPerWeek is the length of the simulated week.
const DaysPerWeek = 6

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func (d Day) String() string {
	if int(d) < DaysPerWeek {
		return dayNames[d]
	}
	return fmt.Sprintf("Day(%d)", uint8(d))
}

// Next returns the following day, wrapping Saturday to Monday.
func (d Day) Next() Day {
	return Day((int(d) + 1) % DaysPerWeek)
}

// Hours is a dwell duration in simulated hours.
type Hours int

// Infinite marks a stop held until the day rolls over.
const Infinite Hours = -1

func (h Hours) String() string {
	if h == Infinite {
		return "inf"
	}
	return fmt.Sprintf("%dh", int(h))
}

// Stop is one scheduled (location, dwell) entry.
type Stop struct {
	Loc   world.Location `json:"loc"`
	Dwell Hours          `json:"dwell"`
}

// DaySchedule is the ordered sequence of stops for one day.
type DaySchedule []Stop

// Timetable holds one DaySchedule per day of the week.
type Timetable [DaysPerWeek]DaySchedule

// Day returns the schedule for d. An out-of-range day is an invariant violation.
func (tt *Timetable) Day(d Day) DaySchedule {
	if int(d) >= DaysPerWeek {
		panic(fmt.Sprintf("agents: day %d out of range", d))
	}
	return tt[d]
}

// State is a resident's activity state.
type State uint8

const (
	Staying State = iota // Dwelling at the current stop
	Moving               // Travelling to the next stop
)

func (s State) String() string {
	switch s {
	case Staying:
		return "staying"
	case Moving:
		return "moving"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Resident is a simulated person with a weekly timetable and a location.
type Resident struct {
	ID        ResidentID     `json:"id"`
	Home      world.Location `json:"home"`
	Timetable Timetable      `json:"timetable"`

	Loc     world.Location `json:"loc"`
	Index   int            `json:"index"`   // Current stop in today's schedule
	Elapsed Hours          `json:"elapsed"` // Hours spent in the current state
	State   State          `json:"state"`
}
