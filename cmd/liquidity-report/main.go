package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"itemliquidity/internal/config"
	"itemliquidity/internal/exporter"
	"itemliquidity/internal/files"
	"itemliquidity/internal/infrastructure"
	"itemliquidity/internal/liquidity"
	"itemliquidity/pkg/contracts/domain"
)

func main() {
	input := flag.String("in", "", "stats JSON to report on, or \"latest\" for the newest snapshot (defaults to the configured stats file)")
	format := flag.String("format", "csv", "report format: csv | xlsx | both")
	top := flag.Int("top", 0, "only report the N most liquid items, 0 for all")
	minLiquidity := flag.Float64("min", 0, "minimum liquidity score to include")
	show := flag.Int("show", 10, "items printed to the console")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
	}

	formats, err := parseFormats(*format)
	if err != nil {
		logger.Error("Invalid report format", slog.String("error", err.Error()))
		os.Exit(1)
	}

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	statsPath, err := resolveInput(*input, paths, logger)
	if err != nil {
		logger.Error("Failed to resolve stats input", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stats, err := liquidity.LoadStatsJSON(statsPath)
	if err != nil {
		logger.Error("Failed to load stats",
			slog.String("path", statsPath),
			slog.String("error", err.Error()),
			slog.String("hint", "Run the scraper first to generate the stats file"))
		os.Exit(1)
	}
	if len(stats) == 0 {
		logger.Error("Stats file has no items", slog.String("path", statsPath))
		os.Exit(1)
	}
	logger.Info("Loaded stats", slog.String("path", statsPath), slog.Int("items", len(stats)))

	opts := exporter.ReportOptions{MinLiquidity: *minLiquidity, Limit: *top}
	statsExporter := exporter.NewStatsExporter(paths, logger)
	base := reportName(time.Now())

	for _, f := range formats {
		var path string
		switch f {
		case "csv":
			path, err = statsExporter.ExportCSV(stats, base+".csv", opts)
		case "xlsx":
			path, err = statsExporter.ExportXLSX(stats, base+".xlsx", opts)
		}
		if err != nil {
			logger.Error("Failed to write report", slog.String("format", f), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Liquidity report generated", slog.String("format", f), slog.String("path", path))
	}

	printTop(os.Stdout, stats, *minLiquidity, *show)
}

// resolveInput maps the -in flag to a stats file path
func resolveInput(input string, paths *config.Paths, logger *slog.Logger) (string, error) {
	switch input {
	case "":
		return paths.StatsFile, nil
	case "latest":
		snapshots, err := files.NewDiscovery(paths.BaseDir, logger).FindSnapshots(paths.ReportsDir)
		if err != nil {
			return "", err
		}
		latest, ok := files.GetLatestFile(snapshots)
		if !ok {
			return "", fmt.Errorf("no snapshots in %s", paths.ReportsDir)
		}
		return latest.Path, nil
	default:
		return input, nil
	}
}

// parseFormats expands the -format flag
func parseFormats(format string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return []string{"csv"}, nil
	case "xlsx":
		return []string{"xlsx"}, nil
	case "both":
		return []string{"csv", "xlsx"}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// reportName is the dated base name of a report, without extension
func reportName(t time.Time) string {
	return "liquidity_report_" + t.Format("20060102")
}

func printTop(w io.Writer, stats domain.StatsSet, minLiquidity float64, n int) {
	entries := exporter.SelectEntries(stats, exporter.ReportOptions{MinLiquidity: minLiquidity, Limit: n})
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(w, "\n=== TOP %d MOST LIQUID ITEMS ===\n", len(entries))
	fmt.Fprintln(w, "Liquidity | 7D Avg Price | 7D Avg Volume | 7D Vol/Day | Item")
	fmt.Fprintln(w, "----------|--------------|---------------|------------|-----")
	for _, e := range entries {
		fmt.Fprintf(w, "%9.1f | %12.2f | %13.2f | %10.2f | %s\n",
			e.Liquidity, e.AvgPrice7D, e.AvgVolume7D, e.VolPerDay7D, e.Key)
	}
}
