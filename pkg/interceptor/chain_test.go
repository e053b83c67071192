package interceptor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a test interceptor that logs its calls into a shared journal.
type recorder struct {
	name    string
	journal *[]string
	resp    *Response
	err     error
}

func (r *recorder) HandleRequest(_ context.Context, _ *Request) (*Response, error) {
	*r.journal = append(*r.journal, "req:"+r.name)
	return r.resp, r.err
}

func (r *recorder) ObserveResponse(_ context.Context, _ *Request, _ *Response) {
	*r.journal = append(*r.journal, "resp:"+r.name)
}

// observerOnly implements only the response phase.
type observerOnly struct {
	seen []*Response
}

func (o *observerOnly) ObserveResponse(_ context.Context, _ *Request, resp *Response) {
	o.seen = append(o.seen, resp)
}

// sliceHandler has an uncomparable dynamic type.
type sliceHandler []int

func (sliceHandler) HandleRequest(context.Context, *Request) (*Response, error) { return nil, nil }

func newReq() *Request {
	return &Request{ID: "1", URL: "http://api.local/a/"}
}

func TestChain_PriorityOrder(t *testing.T) {
	orders := [][]int{{1, 2}, {2, 1}}
	for _, order := range orders {
		var journal []string
		c := NewChain()
		for _, p := range order {
			name := map[int]string{1: "low", 2: "high"}[p]
			require.NoError(t, c.Push(&recorder{name: name, journal: &journal}, p))
		}

		_, err := c.DispatchRequest(context.Background(), newReq())
		require.NoError(t, err)
		assert.Equal(t, []string{"req:low", "req:high"}, journal, "push order %v", order)
	}
}

func TestChain_EqualPrioritiesKeepInsertionOrder(t *testing.T) {
	var journal []string
	c := NewChain()
	require.NoError(t, c.Push(&recorder{name: "a", journal: &journal}, 5))
	require.NoError(t, c.Push(&recorder{name: "b", journal: &journal}, 5))
	require.NoError(t, c.Push(&recorder{name: "first", journal: &journal}, 1))
	require.NoError(t, c.Push(&recorder{name: "c", journal: &journal}, 5))

	_, err := c.DispatchRequest(context.Background(), newReq())
	require.NoError(t, err)
	assert.Equal(t, []string{"req:first", "req:a", "req:b", "req:c"}, journal)
	assert.Equal(t, []int{1, 5, 5, 5}, c.Priorities())
}

func TestChain_ShortCircuit(t *testing.T) {
	var journal []string
	c := NewChain()
	tracker := &recorder{name: "tracker", journal: &journal}
	mocked := &recorder{name: "mock", journal: &journal, resp: BodyResponse(map[string]any{"id": 1}, 0)}
	later := &recorder{name: "later", journal: &journal, resp: StatusResponse(500)}
	require.NoError(t, c.Push(later, 9))
	require.NoError(t, c.Push(tracker, 6))
	require.NoError(t, c.Push(mocked, 7))

	req := newReq()
	resp, err := c.DispatchRequest(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"req:tracker", "req:mock"}, journal)

	require.NoError(t, c.DispatchResponse(context.Background(), req, resp))
	assert.Equal(t, []string{"req:tracker", "req:mock", "resp:tracker", "resp:mock", "resp:later"}, journal)
}

func TestChain_Unhandled(t *testing.T) {
	var journal []string
	c := NewChain()
	require.NoError(t, c.Push(&recorder{name: "a", journal: &journal}, 1))
	require.NoError(t, c.Push(&observerOnly{}, 2))

	resp, err := c.DispatchRequest(context.Background(), newReq())
	assert.NoError(t, err)
	assert.Nil(t, resp)
}

func TestChain_EmptyChainIsUnhandled(t *testing.T) {
	resp, err := NewChain().DispatchRequest(context.Background(), newReq())
	assert.NoError(t, err)
	assert.Nil(t, resp)
}

func TestChain_ErrorStopsWalk(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	c := NewChain()
	require.NoError(t, c.Push(&recorder{name: "bad", journal: &journal, err: boom}, 1))
	require.NoError(t, c.Push(&recorder{name: "next", journal: &journal}, 2))

	resp, err := c.DispatchRequest(context.Background(), newReq())
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "priority 1")
	assert.Equal(t, []string{"req:bad"}, journal)
}

func TestChain_ObserverSeesResponse(t *testing.T) {
	c := NewChain()
	obs := &observerOnly{}
	require.NoError(t, c.Push(obs, 3))

	resp := StatusResponse(404)
	require.NoError(t, c.DispatchResponse(context.Background(), newReq(), resp))
	require.Len(t, obs.seen, 1)
	assert.Same(t, resp, obs.seen[0])
}

func TestChain_PushPopRoundTrip(t *testing.T) {
	var journal []string
	c := NewChain()
	a := &recorder{name: "a", journal: &journal}
	b := &recorder{name: "b", journal: &journal}
	require.NoError(t, c.Push(a, 1))
	require.NoError(t, c.Push(b, 5))
	before := c.Interceptors()

	extra := &recorder{name: "extra", journal: &journal}
	require.NoError(t, c.Push(extra, 3))
	assert.Equal(t, 3, c.Len())
	require.NoError(t, c.Pop(extra))

	after := c.Interceptors()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
	assert.Equal(t, []int{1, 5}, c.Priorities())
}

func TestChain_PopByIdentity(t *testing.T) {
	var journal []string
	c := NewChain()
	a1 := &recorder{name: "a", journal: &journal}
	a2 := &recorder{name: "a", journal: &journal}
	require.NoError(t, c.Push(a1, 1))
	require.NoError(t, c.Push(a2, 1))

	require.NoError(t, c.Pop(a2))
	require.Len(t, c.Interceptors(), 1)
	assert.Same(t, a1, c.Interceptors()[0])
}

func TestChain_PopAbsent(t *testing.T) {
	c := NewChain()
	err := c.Pop(&observerOnly{})
	assert.ErrorIs(t, err, ErrNotInChain)
	assert.Panics(t, func() { c.MustPop(&observerOnly{}) })
}

func TestChain_PushValidation(t *testing.T) {
	c := NewChain()
	assert.ErrorIs(t, c.Push(nil, 1), ErrNoCapability)
	assert.ErrorIs(t, c.Push(struct{}{}, 1), ErrNoCapability)
	assert.ErrorIs(t, c.Push(sliceHandler{1}, 1), ErrNotComparable)
	assert.ErrorIs(t, c.Pop(sliceHandler{1}), ErrNotInChain)
	assert.Equal(t, 0, c.Len())
}

func TestChain_Reentrant(t *testing.T) {
	c := NewChain()
	var inner error
	ic := Func(func(ctx context.Context, req *Request) (*Response, error) {
		_, inner = c.DispatchRequest(ctx, req)
		return nil, nil
	}, func(ctx context.Context, req *Request, resp *Response) {
		inner = errors.Join(inner, c.DispatchResponse(ctx, req, resp))
	})
	require.NoError(t, c.Push(ic, 1))

	_, err := c.DispatchRequest(context.Background(), newReq())
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrReentrant)

	inner = nil
	require.NoError(t, c.DispatchResponse(context.Background(), newReq(), EmptyResponse()))
	assert.ErrorIs(t, inner, ErrReentrant)

	// The guard is released after each walk.
	_, err = c.DispatchRequest(context.Background(), newReq())
	assert.NoError(t, err)
}

func TestChain_ConcurrentDispatch(t *testing.T) {
	const walkers = 8
	c := NewChain()

	// Every handler waits until all walkers are inside the chain at once.
	var inside atomic.Int32
	release := make(chan struct{})
	ic := Func(func(context.Context, *Request) (*Response, error) {
		if inside.Add(1) == walkers {
			close(release)
		}
		select {
		case <-release:
			return EmptyResponse(), nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("walkers did not overlap")
		}
	}, nil)
	require.NoError(t, c.Push(ic, 1))

	var wg sync.WaitGroup
	errs := make([]error, walkers)
	for i := 0; i < walkers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.DispatchRequest(context.Background(), newReq())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestFuncInterceptor_NilFuncs(t *testing.T) {
	ic := Func(nil, nil)
	resp, err := ic.HandleRequest(context.Background(), newReq())
	assert.NoError(t, err)
	assert.Nil(t, resp)
	assert.NotPanics(t, func() { ic.ObserveResponse(context.Background(), newReq(), nil) })
}
