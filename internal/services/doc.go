// Package services implements the business logic layer between the HTTP
// handlers, the command line tools and the scoring core.
//
// # Available Services
//
//	- ScanService: loads the catalog, fetches every item chart, scores it and
//	  publishes the stats document
//	- ScoreService: scores chart data submitted through the API
//	- StatsService: serves the latest stats document written by a scan
//	- HealthService: liveness, readiness and version information
//
// Services receive their collaborators and a *slog.Logger through their
// constructors and never read configuration themselves.
//
// # Scan Pipeline
//
// For each scannable catalog item, with a bounded number of workers:
//
//	fetch page script -> extract series -> parse -> prefilter (optional)
//	-> score -> trailing averages -> ItemStats
//
// An item page without a chart is skipped. Any other per-item failure is
// recorded in the ScanReport and the scan carries on. A lost browser session
// or a cancelled context aborts the run; whatever was scored is still
// published.
//
// # Testing
//
// Collaborators are mocked with testify:
//
//	fetcher := &MockFetcher{}
//	fetcher.On("FetchItemScript", mock.Anything, "5021;6").Return(script, nil)
package services
