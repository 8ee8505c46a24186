package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ItemStats is the published per-item record. The JSON field names match the
// stats file consumed by downstream trading bots, so they must not change.
//
// Usage:
//
//	stats := ItemStats{
//	    SKU:         "5021;6",
//	    AvgPrice7D:  1.88,
//	    AvgVolume7D: 412.5,
//	    VolPerDay7D: 353.57,
//	    Liquidity:   81.2,
//	}
type ItemStats struct {
	// SKU is the marketplace item identifier, e.g. "5021;6"
	SKU string `json:"sku" csv:"SKU" validate:"required"`

	// AvgPrice7D is the mean daily median price over the last 7 days
	AvgPrice7D float64 `json:"7D_avg_price" csv:"AvgPrice7D" validate:"min=0"`

	// AvgVolume7D is the mean daily volume over the days that had sales
	AvgVolume7D float64 `json:"7D_avg_volume" csv:"AvgVolume7D" validate:"min=0"`

	// VolPerDay7D is the 7 day volume divided by 7
	VolPerDay7D float64 `json:"7D_vol_per_day" csv:"VolPerDay7D" validate:"min=0"`

	// Liquidity is the bounded liquidity score, one decimal
	Liquidity float64 `json:"liquidity" csv:"Liquidity" validate:"min=0,max=100"`
}

// Validate checks the record bounds
func (s ItemStats) Validate() error {
	if strings.TrimSpace(s.SKU) == "" {
		return fmt.Errorf("sku is required")
	}
	for name, v := range map[string]float64{
		"7D_avg_price":   s.AvgPrice7D,
		"7D_avg_volume":  s.AvgVolume7D,
		"7D_vol_per_day": s.VolPerDay7D,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite non-negative number, got %v", name, v)
		}
	}
	if s.Liquidity < 0 || s.Liquidity > 100 || math.IsNaN(s.Liquidity) {
		return fmt.Errorf("liquidity must be within [0, 100], got %v", s.Liquidity)
	}
	return nil
}

// StatsEntry pairs an item key with its stats
type StatsEntry struct {
	Key string `json:"key"`
	ItemStats
}

// StatsSet is the full stats document keyed by item name
type StatsSet map[string]ItemStats

// Ranked returns the entries sorted by liquidity, highest first, then by key
func (s StatsSet) Ranked() []StatsEntry {
	entries := make([]StatsEntry, 0, len(s))
	for key, stats := range s {
		entries = append(entries, StatsEntry{Key: key, ItemStats: stats})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Liquidity == entries[j].Liquidity {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].Liquidity > entries[j].Liquidity
	})
	return entries
}

// Filter returns the entries whose liquidity is at least min
func (s StatsSet) Filter(min float64) StatsSet {
	out := make(StatsSet, len(s))
	for key, stats := range s {
		if stats.Liquidity >= min {
			out[key] = stats
		}
	}
	return out
}
