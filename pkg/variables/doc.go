// Package variables provides the Variable Store shared by the fixtures of one
// test case.
//
// A Store maps names to values. Test code writes it directly, and fixture
// candidates write it through captures when they are served. Fixture
// placeholders such as {{vars.user_id}} read it each time a request is
// resolved, so a value produced by an earlier mocked response is visible to
// the filters and payloads of later requests in the same test.
//
// A Store is owned by one test case and passed explicitly to whatever reads
// it. There is no package-level store, so nothing leaks between tests.
//
// Each method is safe for concurrent use, but a sequence of calls is not
// atomic. Tests running in parallel on different connections that share one
// Store must serialize their compound reads and writes themselves.
package variables
