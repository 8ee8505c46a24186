package liquidity

import (
	"math"
	"time"
)

// Trailing computes simple, unfiltered averages over a short trailing window.
// Observations sharing a calendar day collapse to the last one seen. Volume per
// day divides by the full window length, not by the days that had sales. The
// window is inclusive, so a 7-day window can count eight calendar days.
func Trailing(series Series, window Window, now time.Time) TrailingStats {
	byDay := make(map[time.Time]Observation, series.Len())
	order := make([]time.Time, 0, series.Len())
	for _, o := range series.Observations {
		day := truncateDay(o.Date)
		if _, seen := byDay[day]; !seen {
			order = append(order, day)
		}
		byDay[day] = o
	}

	var prices []float64
	var totalVolume int64
	for _, day := range order {
		o := byDay[day]
		if !InWindow(day, window, now) {
			continue
		}
		prices = append(prices, o.Price)
		totalVolume += o.Volume
	}
	days := len(prices)

	if days == 0 || window.Days() <= 0 {
		return TrailingStats{}
	}

	prices, exp := scaled(prices)
	var totalPrice float64
	for _, p := range prices {
		totalPrice += p
	}

	return TrailingStats{
		AvgPrice:     round(math.Ldexp(totalPrice/float64(days), exp), 2),
		AvgVolume:    round(float64(totalVolume)/float64(days), 2),
		VolumePerDay: round(float64(totalVolume)/float64(window.Days()), 2),
		DaysCounted:  days,
	}
}
