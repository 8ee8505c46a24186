package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"itemliquidity/internal/liquidity"
	api "itemliquidity/pkg/contracts/api/v1"
	"itemliquidity/pkg/contracts/domain"
)

// StatsService serves the latest stats document written by the scraper.
// The file is re-read whenever its modification time changes.
type StatsService struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	stats   domain.StatsSet
	modTime time.Time
}

// NewStatsService creates a stats service reading path
func NewStatsService(path string, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		path:   path,
		logger: logger.With(slog.String("component", "stats_service")),
	}
}

// Path returns the stats file location
func (s *StatsService) Path() string {
	return s.path
}

// Load returns the current stats document and when it was written
func (s *StatsService) Load(ctx context.Context) (domain.StatsSet, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrNoStats, err)
	}

	s.mu.RLock()
	if s.stats != nil && info.ModTime().Equal(s.modTime) {
		stats, modTime := s.stats, s.modTime
		s.mu.RUnlock()
		return stats, modTime, nil
	}
	s.mu.RUnlock()

	stats, err := liquidity.LoadStatsJSON(s.path)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load stats",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrNoStats, err)
	}

	s.mu.Lock()
	s.stats = stats
	s.modTime = info.ModTime()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Stats loaded",
		slog.String("path", s.path),
		slog.Int("items", len(stats)),
		slog.Time("mod_time", info.ModTime()))
	return stats, info.ModTime(), nil
}

// List returns the ranked stats, filtered by minimum liquidity and truncated to the limit
func (s *StatsService) List(ctx context.Context, q api.ItemsQuery) (*api.ItemsResponse, error) {
	stats, modTime, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	ranked := stats.Filter(q.MinLiquidity).Ranked()
	total := len(ranked)
	if q.Limit > 0 && q.Limit < len(ranked) {
		ranked = ranked[:q.Limit]
	}

	return &api.ItemsResponse{
		GeneratedAt: modTime.UTC(),
		Total:       total,
		Items:       ranked,
	}, nil
}

// Get returns the stats of one item by key
func (s *StatsService) Get(ctx context.Context, key string) (domain.StatsEntry, error) {
	stats, _, err := s.Load(ctx)
	if err != nil {
		return domain.StatsEntry{}, err
	}

	item, ok := stats[key]
	if !ok {
		return domain.StatsEntry{}, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	return domain.StatsEntry{Key: key, ItemStats: item}, nil
}
