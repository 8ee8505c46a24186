package publish

import (
	"context"
	"errors"
	"log/slog"

	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/liquidity"
	"itemliquidity/pkg/contracts/domain"
)

// Publisher delivers a stats document to one target
type Publisher interface {
	Name() string
	Publish(ctx context.Context, stats domain.StatsSet) error
}

// FilePublisher writes the stats document to a local JSON file
type FilePublisher struct {
	Path string
}

// Name implements Publisher
func (p FilePublisher) Name() string { return "file" }

// Publish implements Publisher
func (p FilePublisher) Publish(ctx context.Context, stats domain.StatsSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return liquidity.SaveStatsJSON(stats, p.Path)
}

// Result records the outcome of one publication
type Result struct {
	Target string
	Err    error
}

// PublishAll runs every publisher and returns the joined failures. Each
// failure is wrapped as a publish AppError naming its target.
func PublishAll(ctx context.Context, logger *slog.Logger, stats domain.StatsSet, publishers ...Publisher) ([]Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Result, 0, len(publishers))
	var errs []error
	for _, p := range publishers {
		err := p.Publish(ctx, stats)
		results = append(results, Result{Target: p.Name(), Err: err})
		if err != nil {
			logger.ErrorContext(ctx, "Publish failed",
				slog.String("target", p.Name()),
				slog.String("error", err.Error()))
			errs = append(errs, apierrors.NewPublishError(p.Name(), err))
			continue
		}
		logger.InfoContext(ctx, "Stats published",
			slog.String("target", p.Name()),
			slog.Int("items", len(stats)))
	}
	return results, errors.Join(errs...)
}
