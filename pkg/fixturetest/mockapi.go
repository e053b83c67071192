package fixturetest

import (
	"net/http"
	"sync"
	"testing"

	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/fixture"
	"github.com/getmockd/restmock/pkg/responder"
)

// MockAPI answers requests to url with result until the returned undo
// function runs or the test ends, whichever comes first. params is the
// filter predicate (nil matches any request to url); status 0 means 200.
// Requests it does not match continue down the chain.
func MockAPI(t testing.TB, conn *connection.Connection, url string, result any, params map[string]any, status int) func() {
	t.Helper()

	if status == 0 {
		status = http.StatusOK
	}
	var filter any = map[string]any{}
	if params != nil {
		filter = params
	}

	fixtures, err := fixture.New(fixture.Entry{
		URL: url,
		Candidates: []fixture.Candidate{{
			Filter:     []any{filter},
			Data:       result,
			StatusCode: status,
		}},
	})
	if err != nil {
		t.Fatalf("mocking %q: %v", url, err)
	}

	r := responder.New(fixtures, responder.WithNotFound(responder.ContinueOnMiss))
	if err := conn.PushMiddleware(r, PriorityMockAPI); err != nil {
		t.Fatalf("pushing mock for %q on connection %q: %v", url, conn.Name(), err)
	}

	var once sync.Once
	undo := func() {
		once.Do(func() { pop(t, conn, r, "mock for "+url) })
	}
	t.Cleanup(undo)
	return undo
}
