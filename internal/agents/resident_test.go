package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/tilecity/internal/world"
)

var (
	home   = world.Loc(1, 1)
	office = world.Loc(1, 3)
)

func commuter() *Resident {
	r := &Resident{ID: 1, Home: home, Loc: home}
	for d := range r.Timetable {
		r.Timetable[d] = DaySchedule{
			{Loc: home, Dwell: 2},
			{Loc: office, Dwell: 3},
			{Loc: home, Dwell: Infinite},
		}
	}
	return r
}

func TestResident_update(t *testing.T) {
	r := commuter()

	r.Update(Monday)
	assert.Equal(t, Staying, r.State)
	assert.Equal(t, Hours(1), r.Elapsed)

	r.Update(Monday)
	assert.Equal(t, Moving, r.State)
	assert.Equal(t, Hours(0), r.Elapsed, "elapsed resets on departure")
	assert.Equal(t, office, r.NextDestination(Monday))

	// Still on the way.
	r.Update(Monday)
	assert.Equal(t, Moving, r.State)

	r.Loc = office
	r.Update(Monday)
	assert.Equal(t, Staying, r.State)
	assert.Equal(t, 1, r.Index)
	assert.Equal(t, Hours(0), r.Elapsed)

	for i := 0; i < 3; i++ {
		r.Update(Monday)
	}
	assert.Equal(t, Moving, r.State)
	assert.Equal(t, home, r.NextDestination(Monday))

	r.Loc = home
	r.Update(Monday)
	assert.Equal(t, 2, r.Index)

	// The last stop holds until the day rolls over.
	for i := 0; i < 48; i++ {
		r.Update(Monday)
	}
	assert.Equal(t, Staying, r.State)
	assert.Equal(t, 2, r.Index)
	assert.Equal(t, home, r.NextDestination(Monday))
}

func TestResident_arriveWraps(t *testing.T) {
	r := commuter()
	r.Index = 2
	r.State = Moving
	r.Elapsed = 5
	r.Arrive(Tuesday)

	assert.Equal(t, 0, r.Index)
	assert.Equal(t, Staying, r.State)
	assert.Equal(t, Hours(0), r.Elapsed)
}

func TestResident_startDay(t *testing.T) {
	r := commuter()
	r.Index, r.State, r.Elapsed = 1, Moving, 4
	r.StartDay()

	stop, ok := r.CurrentStop(Wednesday)
	assert.True(t, ok)
	assert.Equal(t, Stop{Loc: home, Dwell: 2}, stop)
	assert.Equal(t, Staying, r.State)
	assert.Equal(t, Hours(0), r.Elapsed)
}

func TestResident_emptyDay(t *testing.T) {
	r := &Resident{Loc: home}
	r.Update(Friday)
	assert.Equal(t, Staying, r.State)
	assert.Equal(t, home, r.NextDestination(Friday))

	_, ok := r.CurrentStop(Friday)
	assert.False(t, ok)
}

func TestTimetable_dayOutOfRange(t *testing.T) {
	var tt Timetable
	assert.Panics(t, func() { tt.Day(Day(DaysPerWeek)) })
}

func TestDay_next(t *testing.T) {
	assert.Equal(t, Tuesday, Monday.Next())
	assert.Equal(t, Monday, Saturday.Next())
	assert.Equal(t, "Saturday", Saturday.String())
	assert.Equal(t, "inf", Infinite.String())
}
