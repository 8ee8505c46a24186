package liquidity

import (
	"math"
	"time"
)

// Score computes the liquidity score bundle for a series with the default parameters
func Score(series Series, now time.Time) Result {
	return ScoreWithParams(series, now, DefaultParams())
}

// ScoreWithParams runs window filter, outlier rejection and scoring in sequence.
// Params are assumed valid; see ValidateParams.
func ScoreWithParams(series Series, now time.Time, p Params) Result {
	windowed := FilterWindow(series, Window(p.WindowDays), now)

	result := Result{
		TotalVolume: windowed.TotalVolume,
		WindowSize:  windowed.Len(),
	}

	// One point or fewer gives no statistical basis
	if windowed.Len() <= 1 {
		return result
	}

	kept, rejected := RejectOutliers(windowed.Observations, p.ZThreshold, p.StdDevFloor)
	result.Outliers = len(rejected)

	cleaned := Series{Observations: kept}.Prices()
	n := len(cleaned)
	result.SellingFrequency = n

	if n >= p.MinSamples {
		result.AverageVolume = normalizedVolume(windowed.TotalVolume, n, p.VolumeNormalizer)
		result.PriceStability = priceStability(cleaned)
	}

	raw := p.FrequencyWeight*float64(n) +
		p.VolumeWeight*result.AverageVolume +
		p.StabilityWeight*result.PriceStability
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		raw = 0
	}
	result.Liquidity = round(clamp(raw, 0, MaxScore), 1)

	return result
}

// normalizedVolume is min(1, total/n/normalizer)
func normalizedVolume(total int64, n int, normalizer float64) float64 {
	if n == 0 {
		return 0
	}
	avg := float64(total) / float64(n)
	return clamp(avg/normalizer, 0, 1)
}

// priceStability is (mean - std) / (mean + std) clamped to [0, 1].
// A zero denominator only happens when every price is 0 and yields 0.
func priceStability(prices []float64) float64 {
	prices, _ = scaled(prices)
	m := mean(prices)
	sd := sampleStdDev(prices)
	if m+sd == 0 {
		return 0
	}
	return clamp((m-sd)/(m+sd), 0, 1)
}
