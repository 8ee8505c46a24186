// Package api contains API contract definitions for the liquidity scoring service.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"itemliquidity/pkg/contracts/domain"
)

// ScoreRequest carries one item's chart data as scraped. The three sequences
// are positionally aligned. AsOf moves the reference day, in the chart's
// date format; it defaults to today.
type ScoreRequest struct {
	Item    string   `json:"item,omitempty" validate:"omitempty,max=255,itemkey"`
	Dates   []string `json:"dates" validate:"max=5000"`
	Prices  []string `json:"prices" validate:"max=5000"`
	Volumes []string `json:"volumes" validate:"max=5000"`
	AsOf    string   `json:"as_of,omitempty" validate:"omitempty,chartdate"`
}

// ScoreResponse is the score bundle returned by the scoring endpoint
type ScoreResponse struct {
	Item             string    `json:"item,omitempty"`
	Liquidity        float64   `json:"liquidity"`
	SellingFrequency int       `json:"selling_frequency"`
	AverageVolume    float64   `json:"average_volume"`
	PriceStability   float64   `json:"price_stability"`
	TotalVolume      int64     `json:"total_volume"`
	WindowSize       int       `json:"window_size"`
	Outliers         int       `json:"outliers"`
	ReferenceDay     string    `json:"reference_day"`
	Trailing         Trailing  `json:"trailing"`
	ScoredAt         time.Time `json:"scored_at"`
}

// Trailing holds the 7 day averages in a score response
type Trailing struct {
	AvgPrice     float64 `json:"avg_price"`
	AvgVolume    float64 `json:"avg_volume"`
	VolumePerDay float64 `json:"volume_per_day"`
	DaysCounted  int     `json:"days_counted"`
}

// ItemsQuery filters the stats listing
type ItemsQuery struct {
	MinLiquidity float64 `json:"min_liquidity" query:"min_liquidity" validate:"min=0,max=100"`
	Limit        int     `json:"limit" query:"limit" validate:"min=0,max=10000"`
}

// ItemsResponse is the ranked stats listing
type ItemsResponse struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Total       int                 `json:"total"`
	Items       []domain.StatsEntry `json:"items"`
}
