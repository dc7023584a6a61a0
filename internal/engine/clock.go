package engine

import (
	"fmt"

	"github.com/talgya/tilecity/internal/agents"
)

// Clock is the simulated wall clock. One tick is one simulated second; a
// simulated hour is sixty of them.
type Clock struct {
	Second int        `json:"second"`
	Hour   int        `json:"hour"` // 0–23
	Day    agents.Day `json:"day"`
}

// SecondsPerHour is the number of ticks in a simulated hour.
const SecondsPerHour = 60

// HoursPerDay is the number of simulated hours in a day.
const HoursPerDay = 24

// Advance moves the clock forward one second and reports whether an hour
// boundary and a day boundary were crossed. On a day boundary the hour has
// already wrapped to 0 and Day is the new day.
func (c *Clock) Advance() (hourPassed, dayPassed bool) {
	c.Second++
	if c.Second < SecondsPerHour {
		return false, false
	}
	c.Second = 0
	c.Hour++
	if c.Hour < HoursPerDay {
		return true, false
	}
	c.Hour = 0
	c.Day = c.Day.Next()
	return true, true
}

// Elapsed returns the number of ticks since Monday 00:00:00 of the current week.
func (c Clock) Elapsed() uint64 {
	return uint64(c.Second) + uint64(c.Hour)*SecondsPerHour + uint64(c.Day)*TicksPerSimDay
}

// String renders the clock as "Day HH:00:SS"; a simulated hour has no minutes.
func (c Clock) String() string {
	return fmt.Sprintf("%s %02d:00:%02d", c.Day, c.Hour, c.Second)
}
