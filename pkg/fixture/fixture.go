package fixture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/restmock/internal/matching"
	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/template"
)

// Fixtures is an ordered list of entries. Order is document order and is
// never re-sorted.
type Fixtures []Entry

// Entry maps one URL spec to its candidates.
type Entry struct {
	URL        string
	Candidates []Candidate
}

// IsPath reports whether the URL spec is compared to the request path only.
func (e *Entry) IsPath() bool {
	return strings.HasPrefix(e.URL, "/")
}

// Candidate is one possible response for an entry.
type Candidate struct {
	// Name is an optional label used in logs and CLI output.
	Name string

	// Filter is a list of predicates; the candidate applies when any of them
	// is structurally contained in the request parameters. A nil Filter
	// matches every request.
	Filter []any

	// JSONPath conditions checked against the request parameters.
	JSONPath map[string]any

	// When is an optional boolean expression over params, url, method and vars.
	When string

	// Data is the response payload: nil, a mapping or a sequence.
	Data any

	// StatusCode overrides the response status. Zero means absent.
	StatusCode int

	// Capture maps variable names to JSONPath expressions evaluated against
	// the served body. Captured values are written to the variable store.
	Capture map[string]string
}

// Predicates returns the filter predicates, defaulting to a single empty
// mapping that matches everything.
func (c *Candidate) Predicates() []any {
	if len(c.Filter) == 0 {
		return []any{map[string]any{}}
	}
	return c.Filter
}

// Matches reports whether any predicate is contained in params.
func (c *Candidate) Matches(params map[string]any) bool {
	return matching.ContainsAny(c.Predicates(), params)
}

// Response builds the tagged response for the candidate.
func (c *Candidate) Response() (*interceptor.Response, error) {
	switch data := c.Data.(type) {
	case nil:
		if c.StatusCode == 0 {
			return interceptor.EmptyResponse(), nil
		}
		return interceptor.StatusResponse(c.StatusCode), nil
	case map[string]any, []any:
		return interceptor.BodyResponse(data, c.StatusCode), nil
	default:
		// Typed maps and slices from Go code, e.g. []map[string]any.
		if matching.IsMapping(data) || matching.IsSequence(data) {
			return interceptor.BodyResponse(data, c.StatusCode), nil
		}
		return nil, fmt.Errorf("data must be a mapping, a sequence or absent, got %T", c.Data)
	}
}

// validate checks the candidate shape. Checks that depend on placeholder
// values are skipped when deferred is true; they run again after resolution.
func (c *Candidate) validate(deferred bool) error {
	if c.StatusCode != 0 && (c.StatusCode < 100 || c.StatusCode > 599) {
		return fmt.Errorf("status_code %d out of range", c.StatusCode)
	}
	if !(deferred && template.HasPlaceholders(c.Data)) {
		if _, err := c.Response(); err != nil {
			return err
		}
	}
	for path := range c.JSONPath {
		if err := matching.ValidateJSONPathExpression(path); err != nil {
			return err
		}
	}
	for name, path := range c.Capture {
		if name == "" {
			return errors.New("capture with empty variable name")
		}
		if err := matching.ValidateJSONPathExpression(path); err != nil {
			return fmt.Errorf("capture %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks every candidate eagerly. Candidates whose data is still a
// placeholder are checked again once resolved.
func (f Fixtures) Validate() error {
	seen := make(map[string]bool, len(f))
	for _, e := range f {
		if e.URL == "" {
			return &ConfigError{URL: e.URL, Index: -1, Reason: "empty URL spec"}
		}
		if seen[e.URL] {
			return fmt.Errorf("%w: %q", ErrDuplicateURL, e.URL)
		}
		seen[e.URL] = true
		for i := range e.Candidates {
			if err := e.Candidates[i].validate(true); err != nil {
				return &ConfigError{URL: e.URL, Index: i, Err: err}
			}
		}
	}
	return nil
}

// New builds validated Fixtures from entries, keeping their order.
func New(entries ...Entry) (Fixtures, error) {
	f := Fixtures(entries)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Lookup returns the entry with the given URL spec.
func (f Fixtures) Lookup(url string) (*Entry, bool) {
	for i := range f {
		if f[i].URL == url {
			return &f[i], true
		}
	}
	return nil, false
}

// URLs returns the URL specs in order.
func (f Fixtures) URLs() []string {
	urls := make([]string, len(f))
	for i, e := range f {
		urls[i] = e.URL
	}
	return urls
}

// Merge concatenates fixtures in argument order. A URL spec defined more
// than once is an error.
func Merge(all ...Fixtures) (Fixtures, error) {
	var out Fixtures
	seen := make(map[string]bool)
	for _, f := range all {
		for _, e := range f {
			if seen[e.URL] {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateURL, e.URL)
			}
			seen[e.URL] = true
			out = append(out, e)
		}
	}
	return out, nil
}
