// Package responder provides the mock responder interceptor.
//
// A Responder answers requests from fixture data. It resolves the request
// URL to a fixture entry, picks the first candidate whose filter matches the
// request parameters, and synthesizes the candidate's response. Requests it
// cannot answer are handed to a not-found policy chosen at construction.
package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/getmockd/restmock/internal/matching"
	"github.com/getmockd/restmock/pkg/fixture"
	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/logging"
	"github.com/getmockd/restmock/pkg/metrics"
	"github.com/getmockd/restmock/pkg/template"
	"github.com/getmockd/restmock/pkg/variables"
)

// NotFoundFunc decides what happens to a request the responder cannot
// answer. url is the relative request URL when no fixture URL matched, or
// the fixture URL spec when the URL matched but no candidate did.
type NotFoundFunc func(url string, r *Responder) (*interceptor.Response, error)

// NotFoundError is returned by RaiseOnMiss.
type NotFoundError struct {
	URL string

	// NearMisses lists the closest candidates when the URL matched but no
	// candidate filter did, best first.
	NearMisses []matching.NearMiss
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no mocked data provided for %q", e.URL)
	if len(e.NearMisses) > 0 {
		nm := e.NearMisses[0]
		msg += fmt.Sprintf(" (closest: candidate %d, %s)", nm.Candidate, nm.Reason)
	}
	return msg
}

// RaiseOnMiss fails the request with a *NotFoundError.
func RaiseOnMiss(url string, _ *Responder) (*interceptor.Response, error) {
	return nil, &NotFoundError{URL: url}
}

// ContinueOnMiss lets the request continue down the chain.
func ContinueOnMiss(string, *Responder) (*interceptor.Response, error) {
	return nil, nil
}

// Responder is a RequestHandler serving fixture data.
type Responder struct {
	fixtures  fixture.Fixtures
	vars      *variables.Store
	engine    *template.Engine
	notFound  NotFoundFunc
	log       *slog.Logger
	metrics   *metrics.Metrics
	evaluator *matching.Evaluator
	resolver  *fixture.Resolver

	mu   sync.Mutex
	hits map[string]int
}

// Option configures a Responder.
type Option func(*Responder)

// WithVariables sets the variable store used for placeholders and captures.
func WithVariables(vars *variables.Store) Option {
	return func(r *Responder) {
		r.vars = vars
	}
}

// WithNotFound sets the not-found policy. The default is RaiseOnMiss.
func WithNotFound(fn NotFoundFunc) Option {
	return func(r *Responder) {
		if fn != nil {
			r.notFound = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Responder) {
		r.log = logging.Component(log, "responder")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Responder) {
		r.metrics = m
	}
}

// WithTemplate sets the template engine used to resolve placeholders.
func WithTemplate(e *template.Engine) Option {
	return func(r *Responder) {
		if e != nil {
			r.engine = e
		}
	}
}

// New creates a Responder over fixtures.
func New(fixtures fixture.Fixtures, opts ...Option) *Responder {
	r := &Responder{
		fixtures:  fixtures,
		notFound:  RaiseOnMiss,
		log:       logging.Nop(),
		engine:    template.New(),
		evaluator: matching.NewEvaluator(),
		hits:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resolver = fixture.NewResolver(fixtures, r.vars, fixture.WithEngine(r.engine))
	return r
}

// Fixtures returns the fixtures the responder serves.
func (r *Responder) Fixtures() fixture.Fixtures {
	return r.fixtures
}

// Vars returns the variable store, which may be nil.
func (r *Responder) Vars() *variables.Store {
	return r.vars
}

// Hits returns how many responses were served per fixture URL spec.
func (r *Responder) Hits() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.hits)
}

// HandleRequest implements interceptor.RequestHandler.
func (r *Responder) HandleRequest(_ context.Context, req *interceptor.Request) (*interceptor.Response, error) {
	entry, err := r.resolver.Match(req)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		url := req.RelativeURL()
		r.log.Debug("no fixture for url", "url", req.URL, "id", req.ID)
		r.metrics.Responder(url, metrics.ResultURLMiss)
		return r.notFound(url, r)
	}

	tried := make([]fixture.Candidate, 0, len(entry.Candidates))
	for i := range entry.Candidates {
		cand, err := r.resolver.ResolveMatch(entry, i)
		if err != nil {
			return nil, err
		}
		ok, err := r.candidateMatches(&cand, req)
		if err != nil {
			return nil, &fixture.ConfigError{URL: entry.URL, Index: i, Err: err}
		}
		if !ok {
			tried = append(tried, cand)
			continue
		}
		return r.serve(entry, i, cand)
	}

	r.log.Debug("no candidate matched", "fixture", entry.URL, "url", req.URL, "id", req.ID)
	r.metrics.Responder(entry.URL, metrics.ResultFilterMiss)
	resp, err := r.notFound(entry.URL, r)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		nf.NearMisses = nearMisses(tried, req.Params)
	}
	return resp, err
}

// nearMisses ranks the candidates that were tried by how much of their best
// filter predicate held.
func nearMisses(tried []fixture.Candidate, params map[string]any) []matching.NearMiss {
	misses := make([]matching.NearMiss, 0, len(tried))
	for i := range tried {
		nm := matching.BestBreakdown(tried[i].Predicates(), params)
		if nm == nil {
			continue
		}
		if nm.Score == nm.MaxPossibleScore {
			nm.Reason = "filter matched, but jsonpath or when conditions did not hold"
		}
		nm.Candidate = i
		nm.Name = tried[i].Name
		misses = append(misses, *nm)
	}
	return matching.SortNearMisses(misses, 3)
}

func (r *Responder) candidateMatches(c *fixture.Candidate, req *interceptor.Request) (bool, error) {
	if !c.Matches(req.Params) {
		return false, nil
	}
	if len(c.JSONPath) > 0 && !matching.MatchJSONPath(c.JSONPath, req.Params).Matched {
		return false, nil
	}
	if c.When == "" {
		return true, nil
	}
	return r.evaluator.Eval(c.When, r.exprEnv(req))
}

func (r *Responder) exprEnv(req *interceptor.Request) map[string]any {
	vars := map[string]any{}
	if r.vars != nil {
		vars = r.vars.Snapshot()
	}
	return map[string]any{
		"params": req.Params,
		"url":    req.URL,
		"method": req.Method,
		"vars":   vars,
	}
}

// serve resolves the payload of the matched candidate and builds its
// response. Only the served candidate's data is ever resolved.
func (r *Responder) serve(entry *fixture.Entry, index int, matched fixture.Candidate) (*interceptor.Response, error) {
	c, err := r.resolver.ResolveData(entry, index, matched)
	if err != nil {
		return nil, err
	}
	resp, err := c.Response()
	if err != nil {
		return nil, &fixture.ConfigError{URL: entry.URL, Index: index, Err: err}
	}
	resp.Source = entry.URL
	if c.Name != "" {
		resp.Source += "#" + c.Name
	}

	if err := r.capture(&c, resp); err != nil {
		return nil, &fixture.ConfigError{URL: entry.URL, Index: index, Err: err}
	}

	r.mu.Lock()
	r.hits[entry.URL]++
	r.mu.Unlock()

	r.log.Debug("serving fixture", "fixture", entry.URL, "candidate", index, "status", resp.StatusCode)
	r.metrics.Responder(entry.URL, metrics.ResultServed)
	return resp, nil
}

// capture writes the values selected by the candidate's capture paths to
// the variable store.
func (r *Responder) capture(c *fixture.Candidate, resp *interceptor.Response) error {
	if len(c.Capture) == 0 {
		return nil
	}
	if r.vars == nil {
		return errors.New("capture requires a variable store")
	}
	values := make(map[string]any, len(c.Capture))
	for name, path := range c.Capture {
		v, ok, err := matching.Extract(path, resp.Body)
		if err != nil {
			return fmt.Errorf("capture %q: %w", name, err)
		}
		if !ok {
			return fmt.Errorf("capture %q: %s selected nothing", name, path)
		}
		values[name] = v
	}
	r.vars.SetAll(values)
	return nil
}
