package fixturetest

import (
	"encoding/json"
	"testing"

	"github.com/getmockd/restmock/internal/matching"
	"github.com/getmockd/restmock/pkg/tracker"
)

// AssertQueryCount asserts that exactly n tracked queries have a URL ending
// with suffix.
func AssertQueryCount(t testing.TB, tr *tracker.Tracker, suffix string, n int) bool {
	t.Helper()

	count := tr.CountFor(suffix)
	if count != n {
		t.Errorf("expected %d queries to %q, got %d", n, suffix, count)
		return false
	}
	return true
}

// AssertQueried asserts that at least one tracked query has a URL ending
// with suffix.
func AssertQueried(t testing.TB, tr *tracker.Tracker, suffix string) bool {
	t.Helper()

	if tr.CountFor(suffix) == 0 {
		t.Errorf("expected a query to %q, but none was made", suffix)
		return false
	}
	return true
}

// AssertNotQueried asserts that no tracked query has a URL ending with
// suffix.
func AssertNotQueried(t testing.TB, tr *tracker.Tracker, suffix string) bool {
	t.Helper()

	if count := tr.CountFor(suffix); count > 0 {
		t.Errorf("expected no query to %q, but %d were made", suffix, count)
		return false
	}
	return true
}

// AssertParams asserts that the parameter set of q structurally contains
// predicate, using the same matching as fixture filters.
func AssertParams(t testing.TB, q tracker.TrackedQuery, predicate any) bool {
	t.Helper()

	if !matching.Contains(predicate, q.Params) {
		t.Errorf("query %s to %q: params do not contain the expected values\nexpected: %s\nactual:   %s",
			q.ID, q.URL, render(predicate), render(q.Params))
		return false
	}
	return true
}

func render(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	return string(data)
}
