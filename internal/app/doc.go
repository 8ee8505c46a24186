// Package app wires the liquidity API together: configuration, logging,
// OpenTelemetry, the scoring and stats services, and the chi router.
//
// Routes:
//
//	GET  /healthz, /readyz, /livez, /version
//	GET  /metrics
//	GET  /api/v1/health
//	POST /api/v1/liquidity/score
//	GET  /api/v1/liquidity/items
//	GET  /api/v1/liquidity/items/{key}
//
// Typical use:
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
