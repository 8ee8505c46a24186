// Package http implements the HTTP handlers of the liquidity web service.
// Handlers only parse requests, call a service and render the result; every
// failure goes through the shared ErrorHandler and is answered as RFC 7807
// problem details.
//
// # Routes
//
//	POST /api/v1/liquidity/score        score chart data sent in the body
//	GET  /api/v1/liquidity/items        ranked stats (min_liquidity, limit)
//	GET  /api/v1/liquidity/items/{key}  stats of one item, key URL-encoded
//	GET  /healthz /readyz /livez        probes
//	GET  /metrics                       Prometheus exposition
//
// # Testing
//
// Handlers depend on the small ScoreServiceInterface and
// StatsServiceInterface so tests can serve them from testify mocks through
// httptest.
package http
