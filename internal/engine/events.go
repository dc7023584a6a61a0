package engine

import "github.com/talgya/tilecity/internal/agents"

// Event categories.
const (
	CategoryPopulation  = "population"
	CategoryFault       = "fault"       // Resident's building has no road
	CategoryUnreachable = "unreachable" // Search exhausted, move completed in place
)

// Event is a notable occurrence in the simulation.
type Event struct {
	Seq         uint64            `json:"seq"`
	Tick        uint64            `json:"tick"`
	Time        string            `json:"time"`
	Category    string            `json:"category"`
	Resident    agents.ResidentID `json:"resident,omitempty"`
	Description string            `json:"description"`
}

// emit stamps, records, and fans out an event. Caller holds s.mu.
func (s *Simulation) emit(e Event) {
	s.EventSeq++
	e.Seq = s.EventSeq
	e.Tick = s.LastTick
	e.Time = s.Clock.String()

	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- e:
		default: // slow subscriber, drop
		}
	}
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if limit > 0 && len(s.Events) > limit {
		start = len(s.Events) - limit
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

// EventsAfter returns the retained events with a sequence number above seq,
// oldest first, along with the newest sequence number issued so far.
func (s *Simulation) EventsAfter(seq uint64) ([]Event, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.Events)
	for i > 0 && s.Events[i-1].Seq > seq {
		i--
	}
	out := make([]Event, len(s.Events)-i)
	copy(out, s.Events[i:])
	return out, s.EventSeq
}

// ResumeEvents continues event numbering after seq. It never rewinds.
func (s *Simulation) ResumeEvents(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EventSeq = max(s.EventSeq, seq)
}

// Subscribe registers a buffered channel receiving every future event.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 64)
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscription.
func (s *Simulation) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}
