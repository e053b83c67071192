package template

import "sync"

// sequences holds the named counters behind {{sequence("name")}}.
type sequences struct {
	mu     sync.Mutex
	values map[string]int64
}

func newSequences() *sequences {
	return &sequences{values: make(map[string]int64)}
}

// next returns the current value of name and advances it.
// A sequence seen for the first time starts at start.
func (s *sequences) next(name string, start int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.values[name]
	if !ok {
		val = start
	}
	s.values[name] = val + 1
	return val
}

// ResetSequences restarts every {{sequence}} counter.
func (e *Engine) ResetSequences() {
	e.sequences.mu.Lock()
	defer e.sequences.mu.Unlock()
	e.sequences.values = make(map[string]int64)
}
