package liquidity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Calculator scores item series with a fixed parameter set
type Calculator struct {
	params Params
	logger *slog.Logger
	now    func() time.Time
}

// NewCalculator creates a new liquidity calculator with the specified parameters
func NewCalculator(params Params, logger *slog.Logger) (*Calculator, error) {
	if err := ValidateParams(params); err != nil {
		return nil, fmt.Errorf("invalid scoring parameters: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Calculator{
		params: params,
		logger: logger.With(slog.String("component", "liquidity_calculator")),
		now:    time.Now,
	}, nil
}

// SetClock replaces the wall clock used as the reference day
func (c *Calculator) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Params returns the scoring parameters in use
func (c *Calculator) Params() Params {
	return c.params
}

// Now returns the calculator's current reference time
func (c *Calculator) Now() time.Time {
	return c.now()
}

// Calculate scores an already parsed series
func (c *Calculator) Calculate(ctx context.Context, item string, series Series) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("calculate %s: %w", item, err)
	}

	start := time.Now()
	result := ScoreWithParams(series, c.now(), c.params)

	c.logger.DebugContext(ctx, "liquidity calculated",
		slog.String("item", item),
		slog.Int("observations", series.Len()),
		slog.Int("window_size", result.WindowSize),
		slog.Int("outliers", result.Outliers),
		slog.Int("selling_frequency", result.SellingFrequency),
		slog.Float64("liquidity", result.Liquidity),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// CalculateRaw parses the scraped sequences and scores them
func (c *Calculator) CalculateRaw(ctx context.Context, item string, raw RawSeries) (Result, error) {
	series, err := ParseSeries(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "rejecting malformed series",
			slog.String("item", item),
			slog.String("error", err.Error()),
		)
		return Result{}, fmt.Errorf("parse series for %s: %w", item, err)
	}
	return c.Calculate(ctx, item, series)
}

// Trailing computes the trailing averages relative to the calculator's clock
func (c *Calculator) Trailing(series Series, window Window) TrailingStats {
	return Trailing(series, window, c.now())
}
