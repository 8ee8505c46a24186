// Package exporter writes liquidity stats reports to files.
//
// CSVWriter is the low level CSV writer: relative paths land in the reports
// directory and files start with a UTF-8 BOM so spreadsheet applications read
// item names correctly. StatsExporter builds on it to produce ranked reports
// as CSV or as an Excel workbook.
//
// Example usage:
//
//	exp := exporter.NewStatsExporter(paths, logger)
//	path, err := exp.ExportCSV(stats, "liquidity_report.csv", exporter.ReportOptions{Limit: 50})
package exporter
