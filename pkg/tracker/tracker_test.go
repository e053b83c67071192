package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/logging"
)

func req(id, method, url string) *interceptor.Request {
	return &interceptor.Request{
		ID:     id,
		Method: method,
		URL:    url,
		Params: map[string]any{interceptor.ParamURL: url},
	}
}

func track(t *testing.T, tr *Tracker, r *interceptor.Request, resp *interceptor.Response) {
	t.Helper()
	out, err := tr.HandleRequest(context.Background(), r)
	require.NoError(t, err)
	require.Nil(t, out)
	if resp != nil {
		tr.ObserveResponse(context.Background(), r, resp)
	}
}

func TestQueriesFor_PairsParamsAndResponse(t *testing.T) {
	tr := New(WithLogger(logging.ForTest(t)))
	a := req("1", "GET", "http://api.test/a/")
	b := req("2", "GET", "http://api.test/b/")
	respA := interceptor.BodyResponse(map[string]any{"a": 1}, 0)
	respB := interceptor.StatusResponse(404)

	track(t, tr, a, respA)
	track(t, tr, b, respB)

	got := tr.QueriesFor("/a/")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, a.Params, got[0].Params)
	assert.Same(t, respA, got[0].Response)

	// Restartable.
	assert.Equal(t, got, tr.QueriesFor("/a/"))
	assert.Len(t, tr.QueriesFor(""), 2)
}

func TestArrivalOrder(t *testing.T) {
	tr := New()
	for _, id := range []string{"c", "a", "b"} {
		track(t, tr, req(id, "GET", "http://api.test/x/"), nil)
	}

	var ids []string
	for _, q := range tr.All() {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, 3, tr.Count())
	assert.Equal(t, 3, tr.CountFor("/x/"))
	assert.Equal(t, 0, tr.CountFor("/y/"))
}

func TestRequestWithoutResponse(t *testing.T) {
	tr := New()
	track(t, tr, req("1", "GET", "http://api.test/a/"), nil)

	q, ok := tr.Get("1")
	require.True(t, ok)
	assert.Nil(t, q.Response)
	assert.Equal(t, 0, q.StatusCode())
	assert.False(t, q.Timestamp.IsZero())

	_, ok = tr.Get("missing")
	assert.False(t, ok)
}

func TestObserveUnseenRequest(t *testing.T) {
	tr := New()
	r := req("late", "POST", "http://api.test/a/")
	r.Timestamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tr.ObserveResponse(context.Background(), r, interceptor.EmptyResponse())

	q, ok := tr.Get("late")
	require.True(t, ok)
	assert.Equal(t, 204, q.StatusCode())
	assert.Equal(t, r.Timestamp, q.Timestamp)
}

func TestFilter(t *testing.T) {
	tr := New()
	track(t, tr, req("1", "GET", "http://api.test/a/"), interceptor.BodyResponse([]any{}, 0))
	track(t, tr, req("2", "POST", "http://api.test/a/"), interceptor.StatusResponse(201))
	track(t, tr, req("3", "GET", "http://api.test/b/"), interceptor.StatusResponse(404))
	track(t, tr, req("4", "GET", "http://api.test/a/"), nil)

	yes, no := true, false
	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{name: "nil", filter: nil, want: []string{"1", "2", "3", "4"}},
		{name: "method", filter: &Filter{Method: "post"}, want: []string{"2"}},
		{name: "status", filter: &Filter{StatusCode: 404}, want: []string{"3"}},
		{name: "suffix and method", filter: &Filter{URLSuffix: "/a/", Method: "GET"}, want: []string{"1", "4"}},
		{name: "responded", filter: &Filter{Responded: &yes}, want: []string{"1", "2", "3"}},
		{name: "not responded", filter: &Filter{Responded: &no}, want: []string{"4"}},
		{name: "limit", filter: &Filter{Limit: 2}, want: []string{"1", "2"}},
		{name: "offset", filter: &Filter{Offset: 1, Limit: 2}, want: []string{"2", "3"}},
		{name: "offset past end", filter: &Filter{Offset: 10}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, q := range tr.Filter(tt.filter) {
				ids = append(ids, q.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTracker_Capabilities(t *testing.T) {
	var ic interceptor.Interceptor = New()
	_, isHandler := ic.(interceptor.RequestHandler)
	_, isObserver := ic.(interceptor.ResponseObserver)
	assert.True(t, isHandler)
	assert.True(t, isObserver)
}
