package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"itemliquidity/internal/catalog"
	"itemliquidity/internal/dataprocessing"
	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/infrastructure"
	"itemliquidity/internal/liquidity"
	"itemliquidity/internal/marketplace"
	"itemliquidity/internal/publish"
	"itemliquidity/pkg/contracts/domain"
)

// ScanOptions tunes a catalog scan
type ScanOptions struct {
	Workers      int     // Concurrent item fetches
	Prefilter    bool    // Population z-filter over the whole chart before scoring
	ZThreshold   float64 // Prefilter threshold
	TrailingDays int     // Window of the published averages
	StatsPath    string  // Rewritten after every scored item when set
}

// ItemOutcome classifies what happened to one catalog item
type ItemOutcome string

const (
	OutcomeScored  ItemOutcome = "scored"
	OutcomeSkipped ItemOutcome = "skipped"
	OutcomeFailed  ItemOutcome = "failed"
)

// ScanReport summarizes one scan run
type ScanReport struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Catalog    int               `json:"catalog"`
	Filtered   int               `json:"filtered"`
	Scored     int               `json:"scored"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Outliers   int               `json:"outliers"`
	Failures   map[string]string `json:"failures,omitempty"`
	Published  []publish.Result  `json:"-"`
	Stats      domain.StatsSet   `json:"-"`
	PersistErr error             `json:"-"` // Last failed rewrite of the stats file
}

// Duration returns the wall time of the run
func (r *ScanReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ScanService runs the scrape, score and publish pipeline over the catalog
type ScanService struct {
	source     catalog.Source
	fetcher    marketplace.Fetcher
	calculator *liquidity.Calculator
	publishers []publish.Publisher
	metrics    *infrastructure.ScoringMetrics
	tracer     trace.Tracer
	opts       ScanOptions
	logger     *slog.Logger

	running atomic.Bool
}

// NewScanService creates a scan service with injected dependencies
func NewScanService(source catalog.Source, fetcher marketplace.Fetcher, calculator *liquidity.Calculator, opts ScanOptions, logger *slog.Logger) (*ScanService, error) {
	if source == nil || fetcher == nil || calculator == nil {
		return nil, fmt.Errorf("%w: source, fetcher and calculator are required", ErrInvalidInput)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.TrailingDays <= 0 {
		opts.TrailingDays = liquidity.Window7.Days()
	}
	if opts.ZThreshold <= 0 {
		opts.ZThreshold = liquidity.DefaultZThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ScanService{
		source:     source,
		fetcher:    fetcher,
		calculator: calculator,
		tracer:     otel.Tracer(infrastructure.MeterName),
		opts:       opts,
		logger:     logger.With(slog.String("component", "scan_service")),
	}, nil
}

// WithPublishers sets the targets the stats are delivered to after a run
func (s *ScanService) WithPublishers(publishers ...publish.Publisher) *ScanService {
	s.publishers = publishers
	return s
}

// WithMetrics records scan instruments on m
func (s *ScanService) WithMetrics(m *infrastructure.ScoringMetrics) *ScanService {
	s.metrics = m
	return s
}

// Run scans the whole catalog. Items without a chart are skipped and other
// per-item failures are counted; neither stops the run. A lost browser
// session or a cancelled context aborts it. The stats scored so far are
// still published when the run is aborted.
func (s *ScanService) Run(ctx context.Context) (*ScanReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanRunning
	}
	defer s.running.Store(false)

	ctx = infrastructure.EnsureTraceID(ctx)
	report := &ScanReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Failures:  make(map[string]string),
		Stats:     domain.StatsSet{},
	}
	logger := s.logger.With(
		slog.String("run_id", report.RunID),
		slog.String("trace_id", infrastructure.GetTraceID(ctx)),
	)

	ctx, span := s.tracer.Start(ctx, "scan.run",
		trace.WithAttributes(attribute.String("run_id", report.RunID)))
	defer span.End()

	items, err := s.source.Items(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog")
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	scannable := catalog.Scannable(items)
	report.Catalog = len(items)
	report.Filtered = len(items) - len(scannable)
	if len(scannable) == 0 {
		return nil, ErrEmptyCatalog
	}

	logger.InfoContext(ctx, "Scan started",
		slog.Int("catalog", report.Catalog),
		slog.Int("scannable", len(scannable)),
		slog.Int("workers", s.opts.Workers),
		slog.Bool("prefilter", s.opts.Prefilter),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, item := range scannable {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			stats, result, outcome, err := s.scanItem(gctx, item)

			mu.Lock()
			defer mu.Unlock()

			switch outcome {
			case OutcomeScored:
				report.Scored++
				report.Outliers += result.Outliers
				report.Stats[item.Key] = stats
				if s.opts.StatsPath != "" {
					if err := liquidity.SaveStatsJSON(report.Stats, s.opts.StatsPath); err != nil {
						report.PersistErr = apierrors.NewStorageError("save stats", err).WithContext("path", s.opts.StatsPath)
						logItemError(gctx, logger, "persist", "Failed to save stats",
							slog.String("path", s.opts.StatsPath),
							slog.String("error", report.PersistErr.Error()))
					}
				}
			case OutcomeSkipped:
				report.Skipped++
			case OutcomeFailed:
				if isFatal(gctx, err) {
					return err
				}
				report.Failed++
				report.Failures[item.Key] = err.Error()
			}
			return nil
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "scan aborted")
		logger.ErrorContext(ctx, "Scan aborted",
			slog.Int("scored", report.Scored),
			slog.String("error", runErr.Error()))
	}

	// A cancelled run still publishes what it scored
	pubCtx := context.WithoutCancel(ctx)
	results, pubErr := publish.PublishAll(pubCtx, logger, report.Stats, s.publishers...)
	report.Published = results
	for _, r := range results {
		s.metrics.RecordPublish(pubCtx, r.Target, r.Err)
	}

	report.FinishedAt = time.Now()
	if s.metrics != nil {
		s.metrics.ScanDuration.Record(pubCtx, report.Duration().Seconds())
	}
	span.SetAttributes(
		attribute.Int("scored", report.Scored),
		attribute.Int("skipped", report.Skipped),
		attribute.Int("failed", report.Failed),
	)

	logger.InfoContext(ctx, "Scan finished",
		slog.Int("scored", report.Scored),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int("filtered", report.Filtered),
		slog.Int("outliers", report.Outliers),
		slog.Duration("duration", report.Duration()),
	)

	return report, errors.Join(runErr, pubErr)
}

// scanItem fetches, extracts and scores one item
func (s *ScanService) scanItem(ctx context.Context, item catalog.Item) (domain.ItemStats, liquidity.Result, ItemOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "scan.item", trace.WithAttributes(
		attribute.String("item", item.Key),
		attribute.String("sku", item.SKU),
	))
	defer span.End()

	fail := func(action string, err error) (domain.ItemStats, liquidity.Result, ItemOutcome, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, action)
		if s.metrics != nil {
			s.metrics.ItemsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", action)))
		}
		if ctx.Err() == nil {
			logItemError(ctx, s.logger, action, "Item failed",
				slog.String("item", item.Key),
				slog.String("sku", item.SKU),
				slog.String("error", err.Error()))
		}
		return domain.ItemStats{}, liquidity.Result{}, OutcomeFailed, err
	}

	start := time.Now()
	script, err := s.fetcher.FetchItemScript(ctx, item.SKU)
	if s.metrics != nil {
		s.metrics.FetchDuration.Record(ctx, time.Since(start).Seconds())
	}
	if errors.Is(err, marketplace.ErrChartNotFound) {
		s.logger.InfoContext(ctx, "No chart, skipping item",
			slog.String("item", item.Key),
			slog.String("sku", item.SKU))
		if s.metrics != nil {
			s.metrics.ItemsSkipped.Add(ctx, 1)
		}
		return domain.ItemStats{}, liquidity.Result{}, OutcomeSkipped, nil
	}
	if err != nil {
		return fail("fetch", apierrors.NewMarketplaceError(item.Key, err))
	}

	raw, err := dataprocessing.ExtractSeries(script)
	if err != nil {
		return fail("extract", apierrors.NewParsingError("extract chart of "+item.Key, err))
	}

	series, err := liquidity.ParseSeries(raw)
	if err != nil {
		return fail("parse", apierrors.NewParsingError("parse chart of "+item.Key, err))
	}

	prefiltered := 0
	if s.opts.Prefilter {
		series, prefiltered = liquidity.PrefilterOutliers(series, s.opts.ZThreshold)
	}

	result, err := s.calculator.Calculate(ctx, item.Key, series)
	if err != nil {
		return fail("score", err)
	}
	result.Outliers += prefiltered

	trailing := s.calculator.Trailing(series, liquidity.Window(s.opts.TrailingDays))
	stats := liquidity.NewItemStats(item.SKU, result, trailing)
	s.metrics.RecordScore(ctx, "scan", result.Liquidity, result.Outliers)

	s.logger.InfoContext(ctx, "Item scored",
		slog.String("item", item.Key),
		slog.String("sku", item.SKU),
		slog.Float64("liquidity", result.Liquidity),
		slog.Int("selling_frequency", result.SellingFrequency),
		slog.Int("outliers", result.Outliers),
		slog.Float64("avg_price_7d", stats.AvgPrice7D),
	)
	span.SetAttributes(attribute.Float64("liquidity", result.Liquidity))

	return stats, result, OutcomeScored, nil
}

// isFatal reports whether an item failure must abort the whole run
func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, marketplace.ErrSessionNotCreated)
}
