package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// TickDay logs the daily report.
func (s *Simulation) TickDay(tick uint64) {
	st := s.Stats()

	eventCounts := make(map[string]int)
	for _, e := range s.RecentEvents(0) {
		eventCounts[e.Category]++
	}

	slog.Info("daily report",
		"tick", humanize.Comma(int64(tick)),
		"time", SimTime(tick),
		"residents", st.Residents,
		"moving", st.Moving,
		"routing", st.Routing,
		"faulted", st.Faulted,
		"events_fault", eventCounts[CategoryFault],
		"events_unreachable", eventCounts[CategoryUnreachable],
	)
}

// TickWeek logs the weekly summary and trims the event log.
func (s *Simulation) TickWeek(tick uint64) {
	var since uint64
	if tick > TicksPerSimWeek {
		since = tick - TicksPerSimWeek
	}

	s.mu.Lock()
	n := s.countSince(since)
	if len(s.Events) > maxEvents/2 {
		s.Events = s.Events[len(s.Events)-maxEvents/2:]
	}
	s.mu.Unlock()

	slog.Info("weekly summary",
		"tick", humanize.Comma(int64(tick)),
		"time", SimTime(tick),
		"events_this_week", n,
	)
}

// countSince counts retained events stamped after tick. Caller holds s.mu.
func (s *Simulation) countSince(tick uint64) int {
	n := 0
	for _, e := range s.Events {
		if e.Tick > tick {
			n++
		}
	}
	return n
}
