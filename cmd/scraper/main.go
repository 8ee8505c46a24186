package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"itemliquidity/internal/catalog"
	"itemliquidity/internal/config"
	"itemliquidity/internal/files"
	"itemliquidity/internal/infrastructure"
	"itemliquidity/internal/liquidity"
	"itemliquidity/internal/marketplace"
	"itemliquidity/internal/publish"
	"itemliquidity/internal/services"
	"itemliquidity/pkg/contracts"
)

const startPrompt = "Enter 1 to start the scraping function: "

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("Scraper panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	configFile := flag.String("config", "", "path to a YAML config file (defaults to LIQ_CONFIG_FILE or ./config.yaml)")
	yes := flag.Bool("yes", false, "start without the confirmation prompt")
	retries := flag.Int("retries", config.DefaultSessionRetries, "attempts when the browser session cannot be created")
	workers := flag.Int("workers", 0, "concurrent item fetches (overrides config)")
	noPublish := flag.Bool("no-publish", false, "only write the local stats file")
	monitor := flag.Duration("monitor", 30*time.Second, "resource usage log interval, 0 disables")
	keep := flag.Int("keep", config.DefaultSnapshotKeep, "dated stats snapshots kept in the reports directory, 0 keeps all")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Marketplace.Workers = *workers
	}

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.ValidateScan(); err != nil {
		logger.Error("Invalid scan configuration", slog.String("error", err.Error()))
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if !*yes && !confirmStart(os.Stdin, os.Stdout) {
		fmt.Println("Nothing to do.")
		return
	}

	start := time.Now()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *monitor > 0 {
		go infrastructure.MonitorResources(ctx, logger, *monitor)
	}

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}
	paths.LogPathResolution(logger)

	logger.Info("Item liquidity scraper starting",
		slog.String("version", contracts.GetVersionString()),
		slog.String("domain", cfg.Marketplace.Domain),
		slog.Int("workers", cfg.Marketplace.Workers),
		slog.String("stats_file", paths.StatsFile))

	report, err := runWithRetries(ctx, *retries, config.SessionRetryDelay, logger, func(ctx context.Context) (*services.ScanReport, error) {
		return scan(ctx, cfg, paths, !*noPublish, logger)
	})
	if report != nil {
		printSummary(os.Stdout, report)
	}

	if report != nil && !*noPublish {
		if _, err := files.NewDiscovery(paths.BaseDir, logger).Prune(paths.ReportsDir, *keep); err != nil {
			logger.Warn("Failed to prune snapshots", slog.String("error", err.Error()))
		}
	}

	fmt.Println(formatElapsed(time.Since(start)))

	if err != nil {
		logger.Error("Scan failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig loads the explicit config file when one is given
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// confirmStart asks on w and reads one answer from r. Only "1" starts the scan.
func confirmStart(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, startPrompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "1"
}

// runWithRetries calls run until it succeeds, fails for a reason other than
// a lost browser session, or attempts are used up.
func runWithRetries(ctx context.Context, attempts int, delay time.Duration, logger *slog.Logger, run func(context.Context) (*services.ScanReport, error)) (*services.ScanReport, error) {
	if attempts < 1 {
		attempts = 1
	}

	var report *services.ScanReport
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		report, err = run(ctx)
		if err == nil || !errors.Is(err, marketplace.ErrSessionNotCreated) || attempt == attempts {
			return report, err
		}

		logger.WarnContext(ctx, "Browser session failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-time.After(delay):
		}
	}
	return report, err
}

// scan runs one complete scan with a fresh browser session
func scan(ctx context.Context, cfg *config.Config, paths *config.Paths, publishing bool, logger *slog.Logger) (*services.ScanReport, error) {
	otelCfg := infrastructure.NewOTelConfig(cfg.Telemetry)
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, err
	}
	defer providers.Shutdown(context.WithoutCancel(ctx))

	metrics, err := infrastructure.NewScoringMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	calculator, err := liquidity.NewCalculator(cfg.Scoring.Params(), logger)
	if err != nil {
		return nil, err
	}

	var store catalog.BlobReader
	if cfg.GitHub.Owner != "" && cfg.GitHub.CatalogRepo != "" {
		repo, err := catalog.NewGitHubStore(catalog.NewGitHubClient(cfg.GitHub.Token), cfg.GitHub.Owner, cfg.GitHub.CatalogRepo, logger)
		if err != nil {
			return nil, err
		}
		store = repo
	}

	fetcher, err := marketplace.NewChromeFetcher(ctx, cfg.Marketplace.FetcherOptions(), logger)
	if err != nil {
		return nil, err
	}
	defer fetcher.Close()

	svc, err := services.NewScanService(buildSource(cfg, paths, store), fetcher, calculator, services.ScanOptions{
		Workers:      cfg.Marketplace.Workers,
		Prefilter:    cfg.Scoring.Prefilter,
		ZThreshold:   cfg.Scoring.ZThreshold,
		TrailingDays: cfg.Scoring.TrailingDays,
		StatsPath:    paths.StatsFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	svc.WithMetrics(metrics)

	if publishing {
		publishers, err := buildPublishers(ctx, cfg, paths, logger)
		if err != nil {
			return nil, err
		}
		svc.WithPublishers(publishers...)
	}

	return svc.Run(ctx)
}

// buildSource prefers a local catalog file over the catalog repository
func buildSource(cfg *config.Config, paths *config.Paths, store catalog.BlobReader) catalog.Source {
	if paths.CatalogFile != "" {
		return catalog.FileSource{Path: paths.CatalogFile}
	}
	return catalog.RepoSource{
		Store:  store,
		Branch: cfg.GitHub.CatalogBranch,
		Path:   cfg.GitHub.CatalogPath,
	}
}

// buildPublishers returns a dated snapshot in the reports directory plus the
// configured remote targets
func buildPublishers(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) ([]publish.Publisher, error) {
	publishers := []publish.Publisher{
		publish.FilePublisher{Path: paths.GetReportPath(files.SnapshotName(time.Now()))},
	}

	if cfg.PublishesToGitHub() {
		client := catalog.NewGitHubClient(cfg.GitHub.Token)
		store, err := catalog.NewGitHubStore(client, cfg.GitHub.Owner, cfg.GitHub.OutputRepo, logger)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, publish.GitHubPublisher{
			Store:   store,
			Branch:  cfg.GitHub.OutputBranch,
			Path:    cfg.GitHub.OutputPath,
			Message: cfg.GitHub.CommitMessage,
		})
	}

	if cfg.Sheets.Enabled {
		service, err := publish.NewSheetsService(ctx, paths.CredentialsFile)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, publish.SheetsPublisher{
			Service:       service,
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			Range:         cfg.Sheets.Range,
		})
	}

	return publishers, nil
}

func printSummary(w io.Writer, report *services.ScanReport) {
	fmt.Fprintf(w, "Scanned %d items: %d scored, %d skipped, %d failed, %d filtered out\n",
		report.Catalog-report.Filtered, report.Scored, report.Skipped, report.Failed, report.Filtered)
	for _, r := range report.Published {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "  published to %s: %s\n", r.Target, status)
	}
	if report.PersistErr != nil {
		fmt.Fprintf(w, "  stats file not saved: %v\n", report.PersistErr)
	}
}

// formatElapsed renders d in whole hours, minutes and seconds
func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("Program took %d hours, %d minutes, and %d seconds to run.", hours, minutes, seconds)
}
