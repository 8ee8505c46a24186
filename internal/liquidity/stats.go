package liquidity

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// mean returns the arithmetic mean, or 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// sampleStdDev returns the Bessel-corrected standard deviation (divisor n-1).
// Fewer than two values yield 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 || constant(values) {
		return 0
	}
	return stat.StdDev(values, nil)
}

// populationStdDev returns the standard deviation with divisor n
func populationStdDev(values []float64) float64 {
	if len(values) == 0 || constant(values) {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

// constant reports whether every value is equal. Summation residue would
// otherwise give a flat series a tiny non-zero deviation.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// scaled divides values by 2^e, where e is the binary exponent of the largest
// magnitude, so sums of squares stay finite for any finite input. Scaling by a
// power of two is exact for normal values, so means, deviations and their
// ratios are bit-identical after undoing the scale.
func scaled(values []float64) ([]float64, int) {
	var peak float64
	for _, v := range values {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak) {
		return values, 0
	}

	_, exp := math.Frexp(peak)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Ldexp(v, -exp)
	}
	return out, exp
}

// clamp maps NaN to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// round rounds half away from zero to the given number of decimals.
// Values beyond 2^53 have no fractional part and are returned as is.
func round(v float64, decimals int) float64 {
	if math.Abs(v) >= 1<<53 || math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
