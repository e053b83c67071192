package matching

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wildcard is the set element meaning "any value that is present".
const Wildcard = "*"

// Set is an unordered collection used as a subset predicate.
// Elements are compared with Equal, so 5 and 5.0 are the same element.
// Values keeps insertion order for stable output.
type Set struct {
	items []any
}

// NewSet creates a Set from the given values, dropping duplicates.
func NewSet(values ...any) Set {
	s := Set{items: make([]any, 0, len(values))}
	for _, v := range values {
		if !s.Has(v) {
			s.items = append(s.items, v)
		}
	}
	return s
}

// Has reports whether v is an element of the set.
func (s Set) Has(v any) bool {
	for _, item := range s.items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// Len returns the number of elements.
func (s Set) Len() int {
	return len(s.items)
}

// Values returns a copy of the elements in insertion order.
func (s Set) Values() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// IsWildcard reports whether the set is exactly {"*"}.
func (s Set) IsWildcard() bool {
	return len(s.items) == 1 && s.items[0] == Wildcard
}

// String renders the set as {a, b, c}.
func (s Set) String() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = fmt.Sprintf("%v", item)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the set in the fixture document form {"$set": [...]}.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]any{"$set": s.Values()})
}
