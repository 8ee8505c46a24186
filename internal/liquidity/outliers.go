package liquidity

import (
	"math"
)

// ZScores returns (x - mean) / stdev for every price using the sample standard
// deviation. A zero deviation is replaced by floor, so a flat series scores 0 everywhere.
func ZScores(prices []float64, floor float64) []float64 {
	prices, _ = scaled(prices)
	return zScores(prices, sampleStdDev(prices), floor)
}

func zScores(prices []float64, sd, floor float64) []float64 {
	if sd == 0 {
		sd = floor
	}
	m := mean(prices)

	z := make([]float64, len(prices))
	for i, p := range prices {
		z[i] = (p - m) / sd
	}
	return z
}

// RejectOutliers drops observations whose price has |z| > threshold.
//
// Removal is positional: the whole observation goes, so dates, prices and
// volumes stay aligned. Equal prices always share a z-score, which means every
// copy of a flagged value is removed as well.
func RejectOutliers(obs []Observation, threshold, floor float64) (kept, rejected []Observation) {
	if len(obs) <= 1 {
		return obs, nil
	}

	prices, _ := scaled(Series{Observations: obs}.Prices())
	return splitByZ(obs, zScores(prices, sampleStdDev(prices), floor), threshold)
}

// PrefilterOutliers removes |z| > threshold observations from a whole series using
// the population standard deviation. The scan pipeline runs it over the full
// chart history before scoring. A flat series is returned unchanged.
func PrefilterOutliers(series Series, threshold float64) (Series, int) {
	if series.Len() <= 1 {
		return series, 0
	}

	prices, _ := scaled(series.Prices())
	sd := populationStdDev(prices)
	if sd == 0 {
		return series, 0
	}

	kept, rejected := splitByZ(series.Observations, zScores(prices, sd, sd), threshold)
	return Series{Observations: kept}, len(rejected)
}

func splitByZ(obs []Observation, z []float64, threshold float64) (kept, rejected []Observation) {
	kept = make([]Observation, 0, len(obs))
	for i, o := range obs {
		if math.Abs(z[i]) > threshold {
			rejected = append(rejected, o)
			continue
		}
		kept = append(kept, o)
	}
	return kept, rejected
}
