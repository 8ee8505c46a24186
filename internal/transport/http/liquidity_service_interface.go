package http

import (
	"context"

	api "itemliquidity/pkg/contracts/api/v1"
	"itemliquidity/pkg/contracts/domain"
)

// ScoreServiceInterface defines the interface for scoring submitted chart data
type ScoreServiceInterface interface {
	Score(ctx context.Context, req api.ScoreRequest) (*api.ScoreResponse, error)
}

// StatsServiceInterface defines the interface for reading published stats
type StatsServiceInterface interface {
	List(ctx context.Context, q api.ItemsQuery) (*api.ItemsResponse, error)
	Get(ctx context.Context, key string) (domain.StatsEntry, error)
}
