package events

// Outbound is an event addressed to one connection.
type Outbound struct {
	ConnID string
	Event  Event
}

// Sink accumulates the events produced while a tick runs. It is owned by the
// tick goroutine and drained once at the end of each tick, so it needs no
// locking.
type Sink struct {
	pending []Outbound
}

func NewSink() *Sink {
	return &Sink{}
}

// Push queues an event for the given connection.
func (s *Sink) Push(connID string, ev Event) {
	if connID == "" {
		return
	}
	s.pending = append(s.pending, Outbound{ConnID: connID, Event: ev})
}

// Drain returns the accumulated events in push order and clears the sink.
func (s *Sink) Drain() []Outbound {
	out := s.pending
	s.pending = nil
	return out
}

// Len reports the number of pending events.
func (s *Sink) Len() int {
	return len(s.pending)
}
