// Package liquidity scores how easily a marketplace item trades.
//
// The input is an item's daily chart: three positionally aligned sequences of
// dates, median prices and volumes. Scoring runs three stages in order:
//
//  1. Window filter: keep observations dated within the trailing 90 days,
//     inclusive on both ends, and sum their volume.
//  2. Outlier rejection: drop observations whose price lies more than three
//     sample standard deviations from the mean. Removal is by position, so the
//     dates and volumes of the surviving observations stay aligned.
//  3. Scoring: combine selling frequency, normalized average volume and price
//     stability into a score in [0, 100] with one decimal.
//
// # Score
//
//	liquidity = 66*n/89 + 26*volume + 8*stability
//
// Where n is the number of observations left after rejection. With fewer than
// 20 observations both the volume and stability terms are 0. The sum is clamped
// to [0, 100] before rounding; the frequency term is not capped by itself.
//
// # Usage
//
//	series, err := liquidity.ParseSeries(liquidity.RawSeries{
//	    Dates:   []string{"Jan 5, 2024", "Jan 6, 2024"},
//	    Prices:  []string{"1.55", "1.61"},
//	    Volumes: []string{"120", "98"},
//	})
//	if err != nil {
//	    return err
//	}
//	result := liquidity.Score(series, time.Now())
//
// Every function here is pure and safe for concurrent use. Structural problems
// in the input (malformed dates or numbers, sequences of different length) are
// returned as *ValidationError; numerically degenerate input never is.
package liquidity
