package services

import (
	"context"
	"log/slog"
	"time"

	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/infrastructure"
	"itemliquidity/internal/liquidity"
	api "itemliquidity/pkg/contracts/api/v1"
)

// ScoreService scores chart data submitted through the API
type ScoreService struct {
	calculator   *liquidity.Calculator
	trailingDays int
	metrics      *infrastructure.ScoringMetrics
	logger       *slog.Logger
}

// NewScoreService creates a new score service
func NewScoreService(calculator *liquidity.Calculator, trailingDays int, logger *slog.Logger) *ScoreService {
	if logger == nil {
		logger = slog.Default()
	}
	if trailingDays <= 0 {
		trailingDays = liquidity.Window7.Days()
	}
	return &ScoreService{
		calculator:   calculator,
		trailingDays: trailingDays,
		logger:       logger.With(slog.String("component", "score_service")),
	}
}

// WithMetrics records scored requests on m
func (s *ScoreService) WithMetrics(m *infrastructure.ScoringMetrics) *ScoreService {
	s.metrics = m
	return s
}

// ScoreRaw parses and scores one series relative to now
func (s *ScoreService) ScoreRaw(ctx context.Context, item string, raw liquidity.RawSeries, now time.Time) (liquidity.Result, liquidity.TrailingStats, error) {
	if err := ctx.Err(); err != nil {
		return liquidity.Result{}, liquidity.TrailingStats{}, err
	}

	series, err := liquidity.ParseSeries(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected series",
			slog.String("item", item),
			slog.Int("length", raw.Len()),
			slog.String("error", err.Error()))
		return liquidity.Result{}, liquidity.TrailingStats{}, err
	}

	result := liquidity.ScoreWithParams(series, now, s.calculator.Params())
	trailing := liquidity.Trailing(series, liquidity.Window(s.trailingDays), now)
	s.metrics.RecordScore(ctx, "api", result.Liquidity, result.Outliers)

	s.logger.DebugContext(ctx, "Series scored",
		slog.String("item", item),
		slog.Int("observations", series.Len()),
		slog.Float64("liquidity", result.Liquidity),
		slog.Time("reference_day", liquidity.ReferenceDay(now)))

	return result, trailing, nil
}

// Score handles a score request. An empty AsOf scores against the calculator clock.
func (s *ScoreService) Score(ctx context.Context, req api.ScoreRequest) (*api.ScoreResponse, error) {
	now := s.calculator.Now()
	if req.AsOf != "" {
		asOf, err := liquidity.ParseDate(req.AsOf)
		if err != nil {
			return nil, apierrors.NewAppError(apierrors.ErrTypeValidation, "as_of must be a chart date", err).
				WithContext("field", "as_of")
		}
		now = asOf
	}

	raw := liquidity.RawSeries{Dates: req.Dates, Prices: req.Prices, Volumes: req.Volumes}
	result, trailing, err := s.ScoreRaw(ctx, req.Item, raw, now)
	if err != nil {
		return nil, err
	}

	return &api.ScoreResponse{
		Item:             req.Item,
		Liquidity:        result.Liquidity,
		SellingFrequency: result.SellingFrequency,
		AverageVolume:    result.AverageVolume,
		PriceStability:   result.PriceStability,
		TotalVolume:      result.TotalVolume,
		WindowSize:       result.WindowSize,
		Outliers:         result.Outliers,
		ReferenceDay:     liquidity.ReferenceDay(now).Format(liquidity.DateLayout),
		Trailing: api.Trailing{
			AvgPrice:     trailing.AvgPrice,
			AvgVolume:    trailing.AvgVolume,
			VolumePerDay: trailing.VolumePerDay,
			DaysCounted:  trailing.DaysCounted,
		},
		ScoredAt: time.Now().UTC(),
	}, nil
}
