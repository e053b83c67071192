package fixture

import (
	"fmt"
	"strings"

	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/template"
	"github.com/getmockd/restmock/pkg/variables"
)

// Resolver matches requests to entries and resolves candidate placeholders
// against the current contents of a variable store. Nothing is cached: each
// call sees the store as it is at that moment.
type Resolver struct {
	fixtures Fixtures
	vars     *variables.Store
	engine   *template.Engine
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEngine sets the template engine. The default is template.New().
func WithEngine(e *template.Engine) ResolverOption {
	return func(r *Resolver) {
		if e != nil {
			r.engine = e
		}
	}
}

// NewResolver creates a resolver over fixtures. vars may be nil when the
// fixtures have no placeholders.
func NewResolver(fixtures Fixtures, vars *variables.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{fixtures: fixtures, vars: vars, engine: template.New()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fixtures returns the unresolved fixtures.
func (r *Resolver) Fixtures() Fixtures {
	return r.fixtures
}

// Vars returns the variable store, which may be nil.
func (r *Resolver) Vars() *variables.Store {
	return r.vars
}

// Match returns the first entry whose URL spec matches req, or nil.
// URL specs may contain placeholders; an undefined variable is an error.
func (r *Resolver) Match(req *interceptor.Request) (*Entry, error) {
	path := req.Path()
	for i := range r.fixtures {
		entry := &r.fixtures[i]
		spec := entry.URL
		if template.HasPlaceholders(spec) {
			resolved, err := r.engine.ResolveString(spec, r.vars)
			if err != nil {
				return nil, &ConfigError{URL: entry.URL, Index: -1, Err: err}
			}
			spec = resolved
		}
		if strings.HasPrefix(spec, "/") {
			if path == spec {
				return entry, nil
			}
			continue
		}
		if req.BaseURL+spec == req.URL {
			return entry, nil
		}
	}
	return nil, nil
}

// Resolve returns candidate index of entry with every placeholder
// substituted, validated again in its resolved form.
func (r *Resolver) Resolve(entry *Entry, index int) (Candidate, error) {
	c, err := r.ResolveMatch(entry, index)
	if err != nil {
		return Candidate{}, err
	}
	return r.ResolveData(entry, index, c)
}

// ResolveMatch substitutes the placeholders of the fields used for matching,
// Filter and JSONPath. Data is left untouched so that candidates which are
// never served do not evaluate their payload.
func (r *Resolver) ResolveMatch(entry *Entry, index int) (Candidate, error) {
	if index < 0 || index >= len(entry.Candidates) {
		return Candidate{}, fmt.Errorf("candidate index %d out of range for %q", index, entry.URL)
	}
	c := entry.Candidates[index]

	if c.Filter != nil {
		filter, err := r.engine.Resolve(c.Filter, r.vars)
		if err != nil {
			return Candidate{}, &ConfigError{URL: entry.URL, Index: index, Err: err}
		}
		c.Filter = filter.([]any)
	}
	if c.JSONPath != nil {
		jsonPath, err := r.engine.Resolve(c.JSONPath, r.vars)
		if err != nil {
			return Candidate{}, &ConfigError{URL: entry.URL, Index: index, Err: err}
		}
		c.JSONPath = jsonPath.(map[string]any)
	}
	return c, nil
}

// ResolveData substitutes the placeholders of c.Data, where c was returned
// by ResolveMatch for the same entry and index, and validates the result.
// Builtins with side effects, such as sequences, run here only.
func (r *Resolver) ResolveData(entry *Entry, index int, c Candidate) (Candidate, error) {
	data, err := r.engine.Resolve(c.Data, r.vars)
	if err != nil {
		return Candidate{}, &ConfigError{URL: entry.URL, Index: index, Err: err}
	}
	c.Data = data

	if err := c.validate(false); err != nil {
		return Candidate{}, &ConfigError{URL: entry.URL, Index: index, Err: err}
	}
	return c, nil
}

// Candidates resolves every candidate of entry in order.
func (r *Resolver) Candidates(entry *Entry) ([]Candidate, error) {
	out := make([]Candidate, 0, len(entry.Candidates))
	for i := range entry.Candidates {
		c, err := r.Resolve(entry, i)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
