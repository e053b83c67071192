// Package metrics exposes Prometheus metrics for connections and responders.
//
// Metrics are registered on a caller-supplied prometheus.Registerer so each
// test, or the CLI, can own an isolated registry. A nil *Metrics is valid and
// records nothing.
//
// # Metrics
//
//   - restmock_requests_total: requests leaving a connection chain
//     (labels: connection, outcome)
//   - restmock_responder_total: responder decisions (labels: url, result)
//   - restmock_dispatch_duration_seconds: time spent dispatching a request
//     through the chain and transport (labels: connection)
//
// # Label Conventions
//
//   - outcome: mocked, transport, error
//   - result: served, url_miss, filter_miss
//   - url: the fixture URL spec for served and filter_miss, the relative
//     request URL for url_miss
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	conn := connection.New("api", baseURL, connection.WithMetrics(m))
package metrics
