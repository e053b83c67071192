package variables

import (
	"maps"
	"sort"
	"sync"
)

// Store is a mutable name to value mapping.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty Store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// NewFrom creates a Store seeded with a copy of initial.
func NewFrom(initial map[string]any) *Store {
	s := New()
	s.SetAll(initial)
	return s
}

// Get returns the value stored under name.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set stores value under name, replacing any previous value.
func (s *Store) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// SetAll stores every entry of values.
func (s *Store) SetAll(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.values, values)
}

// Delete removes name. Returns true if it was present.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[name]; !ok {
		return false
	}
	delete(s.values, name)
	return true
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Names returns the stored names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a shallow copy of the stored values.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Reset removes every value.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
}
