// Package dataprocessing turns marketplace item pages into chart sequences.
//
// An item page embeds its price history chart as an inline script. The chart
// dates appear as text such as "Jun 15, 2024"; the series follow as JavaScript
// array literals, median prices first and volumes second:
//
//	var data = {
//	    labels: ["Jun 13, 2024", "Jun 14, 2024"],
//	    datasets: [{ data: [1.86, 1.90] }, { data: [400, 450] }],
//	};
//
// ExtractSeries returns these as a liquidity.RawSeries, untouched apart from
// quote and whitespace trimming. Typed parsing and length checks happen in
// liquidity.ParseSeries so that a malformed page is rejected as a whole.
//
// # Usage
//
//	raw, err := dataprocessing.ExtractSeries(script)
//	if errors.Is(err, dataprocessing.ErrNoChartData) {
//	    // item has no sales history; skip it
//	}
//	series, err := liquidity.ParseSeries(raw)
package dataprocessing
