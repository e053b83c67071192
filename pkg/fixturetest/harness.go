// Package fixturetest wires fixtures, ad-hoc mocks and request tracking into
// connections for the duration of a test.
//
// Interceptors are pushed at fixed priorities so their order is predictable:
// a tracker (PriorityTracker) sees every request first, a MockAPI override
// (PriorityMockAPI) answers before the test's fixtures (PriorityFixtures).
// Everything pushed is popped in t.Cleanup; a failed pop fails the test.
//
//	func TestOrders(t *testing.T) {
//		conn := connection.New("api", "http://api.test/v1/")
//		h := fixturetest.SetupDefault(t, conn, fixtures)
//		tr := fixturetest.TrackQueries(t, conn)
//
//		// ... exercise code using conn ...
//
//		fixturetest.AssertQueryCount(t, tr, "orders/", 1)
//		_ = h.Vars()
//	}
package fixturetest

import (
	"log/slog"
	"sort"
	"testing"

	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/fixture"
	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/metrics"
	"github.com/getmockd/restmock/pkg/responder"
	"github.com/getmockd/restmock/pkg/template"
	"github.com/getmockd/restmock/pkg/tracker"
	"github.com/getmockd/restmock/pkg/variables"
)

// Chain priorities. Lower runs first.
const (
	PriorityTracker  = 6
	PriorityMockAPI  = 7
	PriorityFixtures = 9
)

// Harness holds the fixture responders attached for one test.
type Harness struct {
	vars        *variables.Store
	engine      *template.Engine
	responders  map[string]*responder.Responder
	defaultName string
}

type options struct {
	vars    map[string]any
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures Setup.
type Option func(*options)

// WithVariables seeds the shared variable store.
func WithVariables(vars map[string]any) Option {
	return func(o *options) {
		o.vars = vars
	}
}

// WithLogger sets the logger handed to each responder.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics sets the metrics handed to each responder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Setup attaches a raise-on-miss responder for each connection named in
// fixtures. An empty name means the registry's default connection. All
// responders share one variable store.
func Setup(t testing.TB, reg *connection.Registry, fixtures map[string]fixture.Fixtures, opts ...Option) *Harness {
	t.Helper()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	h := &Harness{
		vars:        variables.NewFrom(o.vars),
		engine:      template.New(),
		responders:  make(map[string]*responder.Responder, len(fixtures)),
		defaultName: reg.DefaultName(),
	}

	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		conn, ok := reg.Get(name)
		if !ok {
			t.Fatalf("fixtures given for unknown connection %q", name)
		}
		h.attach(t, conn, fixtures[name], o)
	}
	return h
}

// SetupDefault attaches fixtures to a single connection.
func SetupDefault(t testing.TB, conn *connection.Connection, fixtures fixture.Fixtures, opts ...Option) *Harness {
	t.Helper()

	reg, err := connection.NewRegistry(conn)
	if err != nil {
		t.Fatalf("registering connection: %v", err)
	}
	reg.SetDefault(conn.Name())
	return Setup(t, reg, map[string]fixture.Fixtures{conn.Name(): fixtures}, opts...)
}

func (h *Harness) attach(t testing.TB, conn *connection.Connection, fixtures fixture.Fixtures, o *options) {
	t.Helper()

	r := responder.New(fixtures,
		responder.WithVariables(h.vars),
		responder.WithNotFound(responder.RaiseOnMiss),
		responder.WithTemplate(h.engine),
		responder.WithLogger(o.log),
		responder.WithMetrics(o.metrics),
	)
	if err := conn.PushMiddleware(r, PriorityFixtures); err != nil {
		t.Fatalf("pushing fixtures on connection %q: %v", conn.Name(), err)
	}
	h.responders[conn.Name()] = r
	t.Cleanup(func() { pop(t, conn, r, "fixtures") })
}

// Vars returns the variable store shared by the harness responders.
func (h *Harness) Vars() *variables.Store {
	return h.vars
}

// Responder returns the fixture responder attached to the named connection.
// An empty name means the default connection.
func (h *Harness) Responder(name string) *responder.Responder {
	if name == "" {
		name = h.defaultName
	}
	return h.responders[name]
}

// TrackQueries attaches a tracker to conn until the test ends.
func TrackQueries(t testing.TB, conn *connection.Connection) *tracker.Tracker {
	t.Helper()

	tr := tracker.New()
	if err := conn.PushMiddleware(tr, PriorityTracker); err != nil {
		t.Fatalf("pushing tracker on connection %q: %v", conn.Name(), err)
	}
	t.Cleanup(func() { pop(t, conn, tr, "tracker") })
	return tr
}

func pop(t testing.TB, conn *connection.Connection, ic interceptor.Interceptor, what string) {
	t.Helper()
	if err := conn.PopMiddleware(ic); err != nil {
		t.Errorf("popping %s from connection %q: %v", what, conn.Name(), err)
	}
}
