package tracker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/logging"
)

// TrackedQuery is one recorded request and, once observed, its response.
type TrackedQuery struct {
	// ID is the request id.
	ID string `json:"id"`

	// URL is the absolute request URL.
	URL string `json:"url"`

	// Method is the request method.
	Method string `json:"method"`

	// Params is the request parameter set. It is shared with the request,
	// not copied.
	Params map[string]any `json:"params"`

	// Response is nil until the response phase runs.
	Response *interceptor.Response `json:"response,omitempty"`

	// Timestamp is when the request reached the tracker.
	Timestamp time.Time `json:"timestamp"`
}

// StatusCode returns the response status, or 0 before a response is seen.
func (q TrackedQuery) StatusCode() int {
	if q.Response == nil {
		return 0
	}
	return q.Response.StatusCode
}

// Filter defines criteria for listing tracked queries.
type Filter struct {
	// URLSuffix keeps queries whose URL ends with the suffix.
	URLSuffix string

	// Method keeps queries with this method (case-insensitive).
	Method string

	// StatusCode keeps queries whose response has this status.
	StatusCode int

	// Responded keeps queries with (true) or without (false) a response.
	Responded *bool

	// Limit is the maximum number of queries to return.
	Limit int

	// Offset is the number of matching queries to skip.
	Offset int
}

func (f *Filter) matches(q *TrackedQuery) bool {
	if f == nil {
		return true
	}
	if f.URLSuffix != "" && !strings.HasSuffix(q.URL, f.URLSuffix) {
		return false
	}
	if f.Method != "" && !strings.EqualFold(f.Method, q.Method) {
		return false
	}
	if f.StatusCode != 0 && q.StatusCode() != f.StatusCode {
		return false
	}
	if f.Responded != nil && (q.Response != nil) != *f.Responded {
		return false
	}
	return true
}

// Tracker is a RequestHandler and ResponseObserver that records requests.
type Tracker struct {
	mu      sync.RWMutex
	order   []string
	queries map[string]*TrackedQuery
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Tracker) {
		t.log = logging.Component(log, "tracker")
	}
}

// New creates an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		queries: make(map[string]*TrackedQuery),
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HandleRequest records req and always lets it continue.
func (t *Tracker) HandleRequest(_ context.Context, req *interceptor.Request) (*interceptor.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(req)
	t.log.Debug("tracked request", "id", req.ID, "url", req.URL)
	return nil, nil
}

// ObserveResponse attaches resp to the record for req. A request the tracker
// has not seen, because it was pushed mid-request, is recorded now.
func (t *Tracker) ObserveResponse(_ context.Context, req *interceptor.Request, resp *interceptor.Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.queries[req.ID]
	if !ok {
		q = t.record(req)
	}
	q.Response = resp
}

// record must be called with mu held.
func (t *Tracker) record(req *interceptor.Request) *TrackedQuery {
	q, ok := t.queries[req.ID]
	if !ok {
		t.order = append(t.order, req.ID)
		q = &TrackedQuery{}
		t.queries[req.ID] = q
	}
	ts := req.Timestamp
	if ts.IsZero() {
		ts = t.now()
	}
	*q = TrackedQuery{
		ID:        req.ID,
		URL:       req.URL,
		Method:    req.Method,
		Params:    req.Params,
		Timestamp: ts,
	}
	return q
}

// QueriesFor returns the queries whose URL ends with suffix, in arrival order.
// An empty suffix returns every query.
func (t *Tracker) QueriesFor(suffix string) []TrackedQuery {
	return t.Filter(&Filter{URLSuffix: suffix})
}

// All returns every query in arrival order.
func (t *Tracker) All() []TrackedQuery {
	return t.Filter(nil)
}

// Filter returns the queries matching f in arrival order.
func (t *Tracker) Filter(f *Filter) []TrackedQuery {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []TrackedQuery
	skipped := 0
	for _, id := range t.order {
		q := t.queries[id]
		if !f.matches(q) {
			continue
		}
		if f != nil && skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, *q)
		if f != nil && f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Get returns the query recorded for a request id.
func (t *Tracker) Get(id string) (TrackedQuery, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	q, ok := t.queries[id]
	if !ok {
		return TrackedQuery{}, false
	}
	return *q, true
}

// Count returns the number of recorded queries.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// CountFor returns the number of queries whose URL ends with suffix.
func (t *Tracker) CountFor(suffix string) int {
	return len(t.QueriesFor(suffix))
}
