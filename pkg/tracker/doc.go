// Package tracker records the requests that pass through an interceptor
// chain, for assertions in tests.
//
// A Tracker never short-circuits a request. It records each request when the
// request phase reaches it and attaches the response when the response phase
// does. Records are kept in arrival order and are never removed, so queries
// can be repeated against a stable log.
//
//	tr := tracker.New()
//	_ = conn.PushMiddleware(tr, fixturetest.PriorityTracker)
//	// ... exercise code under test ...
//	queries := tr.QueriesFor("/users/")
package tracker
