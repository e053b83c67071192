package interceptor

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/getmockd/restmock/pkg/logging"
)

type entry struct {
	ic       Interceptor
	priority int
}

// Chain is an ordered collection of interceptors attached to one connection.
// Entries are kept sorted by ascending priority; equal priorities keep
// insertion order.
type Chain struct {
	mu      sync.Mutex
	entries []entry
	log     *slog.Logger
}

// dispatchKey marks a context as being inside a walk of chain.
type dispatchKey struct{ chain *Chain }

// enter returns ctx marked as dispatching on c, or ErrReentrant when ctx
// already carries that mark. Separate goroutines with their own contexts
// dispatch concurrently.
func (c *Chain) enter(ctx context.Context) (context.Context, error) {
	if ctx.Value(dispatchKey{c}) != nil {
		return ctx, ErrReentrant
	}
	return context.WithValue(ctx, dispatchKey{c}, true), nil
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger used for dispatch debugging.
func WithLogger(log *slog.Logger) ChainOption {
	return func(c *Chain) {
		if log != nil {
			c.log = log
		}
	}
}

// NewChain creates an empty chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{log: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push inserts ic at the position given by priority.
func (c *Chain) Push(ic Interceptor, priority int) error {
	if ic == nil {
		return ErrNoCapability
	}
	_, handles := ic.(RequestHandler)
	_, observes := ic.(ResponseObserver)
	if !handles && !observes {
		return fmt.Errorf("%w: %T", ErrNoCapability, ic)
	}
	if !reflect.TypeOf(ic).Comparable() {
		return fmt.Errorf("%w: %T", ErrNotComparable, ic)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Insert after the last entry with priority <= p.
	pos := len(c.entries)
	for i, e := range c.entries {
		if e.priority > priority {
			pos = i
			break
		}
	}
	c.entries = append(c.entries, entry{})
	copy(c.entries[pos+1:], c.entries[pos:])
	c.entries[pos] = entry{ic: ic, priority: priority}

	c.log.Debug("interceptor pushed", "type", fmt.Sprintf("%T", ic), "priority", priority, "position", pos)
	return nil
}

// Pop removes the first entry holding exactly ic.
// It returns ErrNotInChain when ic is absent.
func (c *Chain) Pop(ic Interceptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if sameInterceptor(e.ic, ic) {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			c.log.Debug("interceptor popped", "type", fmt.Sprintf("%T", ic), "priority", e.priority)
			return nil
		}
	}
	return fmt.Errorf("%w: %T", ErrNotInChain, ic)
}

// MustPop is Pop that panics when ic is absent.
func (c *Chain) MustPop(ic Interceptor) {
	if err := c.Pop(ic); err != nil {
		panic(err)
	}
}

// DispatchRequest walks the request handlers in priority order.
// The first non-nil response ends the walk and is returned. An error ends
// the walk too. (nil, nil) means no interceptor handled the request.
func (c *Chain) DispatchRequest(ctx context.Context, req *Request) (*Response, error) {
	ctx, err := c.enter(ctx)
	if err != nil {
		return nil, err
	}

	for i, e := range c.snapshot() {
		h, ok := e.ic.(RequestHandler)
		if !ok {
			continue
		}
		resp, err := h.HandleRequest(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("interceptor %d (%T, priority %d): %w", i, e.ic, e.priority, err)
		}
		if resp != nil {
			c.log.Debug("request handled",
				"id", req.ID, "url", req.URL,
				"by", fmt.Sprintf("%T", e.ic), "priority", e.priority,
				"kind", resp.Kind.String(), "status", resp.StatusCode)
			return resp, nil
		}
	}

	c.log.Debug("request unhandled", "id", req.ID, "url", req.URL)
	return nil, nil
}

// DispatchResponse hands resp to every response observer in priority order.
func (c *Chain) DispatchResponse(ctx context.Context, req *Request, resp *Response) error {
	ctx, err := c.enter(ctx)
	if err != nil {
		return err
	}

	for _, e := range c.snapshot() {
		if o, ok := e.ic.(ResponseObserver); ok {
			o.ObserveResponse(ctx, req, resp)
		}
	}
	return nil
}

// Len returns the number of interceptors in the chain.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Interceptors returns the interceptors in dispatch order.
func (c *Chain) Interceptors() []Interceptor {
	entries := c.snapshot()
	out := make([]Interceptor, len(entries))
	for i, e := range entries {
		out[i] = e.ic
	}
	return out
}

// Priorities returns the priorities in dispatch order.
func (c *Chain) Priorities() []int {
	entries := c.snapshot()
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.priority
	}
	return out
}

func (c *Chain) snapshot() []entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// sameInterceptor compares identities without panicking on uncomparable types.
func sameInterceptor(a, b Interceptor) bool {
	if b == nil || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
