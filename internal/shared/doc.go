// Package shared holds helpers used across packages that belong to no single
// layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output, and synthetic item charts (DailyChart, RawChart, ChartScript,
// ChartPage) in the exact shape the marketplace serves them, so parser,
// scoring, and service tests can share fixtures.
package shared
