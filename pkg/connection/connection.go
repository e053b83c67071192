// Package connection provides the outbound request channel interceptors
// attach to.
//
// A Connection owns one interceptor chain and a Transport. Do builds a
// request, runs the chain's request phase, falls back to the transport when
// no interceptor answered, then runs the response phase. The default
// transport is Unreachable, so an unmocked request fails instead of reaching
// the network.
//
// A Connection processes one request at a time. Interceptors must not issue
// requests on the connection they are attached to from inside a phase
// callback; the chain rejects that with interceptor.ErrReentrant.
package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/logging"
	"github.com/getmockd/restmock/pkg/metrics"
)

// ErrNoTransport is returned by Unreachable.
var ErrNoTransport = errors.New("request was not handled by any interceptor and the connection has no transport")

// Transport performs a request that no interceptor answered.
type Transport interface {
	RoundTrip(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error)

// RoundTrip calls f.
func (f TransportFunc) RoundTrip(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
	return f(ctx, req)
}

// Unreachable is a Transport that always fails with ErrNoTransport.
var Unreachable Transport = TransportFunc(func(context.Context, *interceptor.Request) (*interceptor.Response, error) {
	return nil, ErrNoTransport
})

// Call describes one outbound request.
type Call struct {
	// Method defaults to GET.
	Method string

	// URL is absolute, an absolute path resolved against the base URL's
	// origin, or a fragment appended to the base URL.
	URL string

	// Params is the query or filter mapping.
	Params map[string]any

	// JSON is the request body.
	JSON any

	// Headers are request headers.
	Headers map[string]string
}

// Connection is a named outbound request channel with an interceptor chain.
type Connection struct {
	name      string
	baseURL   string
	chain     *interceptor.Chain
	transport Transport
	log       *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Connection.
type Option func(*Connection)

// WithTransport sets the transport used for unhandled requests.
func WithTransport(t Transport) Option {
	return func(c *Connection) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithLogger sets the logger for the connection and its chain.
func WithLogger(log *slog.Logger) Option {
	return func(c *Connection) {
		c.log = logging.Component(log, "connection").With("connection", c.name)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Connection) {
		c.metrics = m
	}
}

// New creates a Connection. baseURL is used to resolve relative call URLs
// and is reported to interceptors on every request.
func New(name, baseURL string, opts ...Option) *Connection {
	c := &Connection{
		name:      name,
		baseURL:   baseURL,
		transport: Unreachable,
		log:       logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.chain = interceptor.NewChain(interceptor.WithLogger(c.log))
	return c
}

// Name returns the connection name.
func (c *Connection) Name() string { return c.name }

// BaseURL returns the base URL.
func (c *Connection) BaseURL() string { return c.baseURL }

// Chain returns the connection's interceptor chain.
func (c *Connection) Chain() *interceptor.Chain { return c.chain }

// PushMiddleware adds an interceptor to the chain.
func (c *Connection) PushMiddleware(ic interceptor.Interceptor, priority int) error {
	return c.chain.Push(ic, priority)
}

// PopMiddleware removes an interceptor from the chain.
func (c *Connection) PopMiddleware(ic interceptor.Interceptor) error {
	return c.chain.Pop(ic)
}

// Do issues call through the chain.
func (c *Connection) Do(ctx context.Context, call Call) (*interceptor.Response, error) {
	return c.dispatch(ctx, c.NewRequest(call), c.transport)
}

// NewRequest builds the request for call without dispatching it.
func (c *Connection) NewRequest(call Call) *interceptor.Request {
	method := strings.ToUpper(call.Method)
	if method == "" {
		method = "GET"
	}
	target := c.resolveURL(call.URL)

	params := map[string]any{
		interceptor.ParamURL:    target,
		interceptor.ParamMethod: method,
	}
	if call.Params != nil {
		params[interceptor.ParamQuery] = call.Params
	}
	if call.JSON != nil {
		params[interceptor.ParamJSON] = call.JSON
	}
	if len(call.Headers) > 0 {
		headers := make(map[string]any, len(call.Headers))
		for k, v := range call.Headers {
			headers[k] = v
		}
		params[interceptor.ParamHeaders] = headers
	}

	return &interceptor.Request{
		ID:         newRequestID(),
		Method:     method,
		URL:        target,
		Params:     params,
		BaseURL:    c.baseURL,
		Connection: c.name,
		Timestamp:  c.now(),
	}
}

func (c *Connection) dispatch(ctx context.Context, req *interceptor.Request, transport Transport) (*interceptor.Response, error) {
	start := c.now()

	resp, err := c.chain.DispatchRequest(ctx, req)
	if err != nil {
		c.log.Debug("request failed in chain", "id", req.ID, "url", req.URL, "error", err)
		c.metrics.Request(c.name, metrics.OutcomeError, c.now().Sub(start))
		return nil, err
	}

	outcome := metrics.OutcomeMocked
	if resp == nil {
		outcome = metrics.OutcomeTransport
		resp, err = transport.RoundTrip(ctx, req)
		if err != nil {
			c.log.Debug("transport failed", "id", req.ID, "url", req.URL, "error", err)
			c.metrics.Request(c.name, metrics.OutcomeError, c.now().Sub(start))
			return nil, err
		}
	}

	if err := c.chain.DispatchResponse(ctx, req, resp); err != nil {
		c.metrics.Request(c.name, metrics.OutcomeError, c.now().Sub(start))
		return nil, err
	}

	c.metrics.Request(c.name, outcome, c.now().Sub(start))
	return resp, nil
}

func (c *Connection) resolveURL(u string) string {
	if strings.Contains(u, "://") {
		return u
	}
	if strings.HasPrefix(u, "/") {
		base, err := url.Parse(c.baseURL)
		if err == nil && base.Scheme != "" {
			return base.Scheme + "://" + base.Host + u
		}
		return strings.TrimSuffix(c.baseURL, "/") + u
	}
	return c.baseURL + u
}

// newRequestID returns a time-ordered UUIDv7, falling back to a random UUID.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
