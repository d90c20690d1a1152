package worker

// Sequencer restores frame order. Engines finish out of order (engine 2
// might finish before engine 1); results are held until every earlier
// index has been released.
type Sequencer struct {
	next    int
	pending map[int]FrameResult
}

// NewSequencer starts releasing at index first.
func NewSequencer(first int) *Sequencer {
	return &Sequencer{next: first, pending: make(map[int]FrameResult)}
}

// Push buffers res and returns every result that is now in order.
func (s *Sequencer) Push(res FrameResult) []FrameResult {
	s.pending[res.Index] = res
	var ready []FrameResult
	for {
		r, ok := s.pending[s.next]
		if !ok {
			return ready
		}
		delete(s.pending, s.next)
		ready = append(ready, r)
		s.next++
	}
}

// Pending reports how many results are waiting on an earlier index.
func (s *Sequencer) Pending() int {
	return len(s.pending)
}

// Next is the index the sequencer is waiting for.
func (s *Sequencer) Next() int {
	return s.next
}
