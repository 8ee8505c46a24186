package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"itemliquidity/internal/liquidity"
)

// ErrNoChartData is returned when a page script holds fewer than two data arrays
var ErrNoChartData = errors.New("no chart data arrays in page script")

var (
	chartDatePattern  = regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s\d{1,2},\s\d{4}\b`)
	chartArrayPattern = regexp.MustCompile(`data:\s*\[([^]]*)\]`)
)

// ExtractSeries pulls the chart sequences out of an item page's inline script.
//
// The script carries every chart date as literal text, followed by the chart
// series definitions. The first data array holds the daily median prices and
// the second one the daily volumes. Any further arrays are ignored.
func ExtractSeries(script string) (liquidity.RawSeries, error) {
	arrays := chartArrayPattern.FindAllStringSubmatch(script, -1)
	if len(arrays) < 2 {
		return liquidity.RawSeries{}, fmt.Errorf("found %d data arrays: %w", len(arrays), ErrNoChartData)
	}

	raw := liquidity.RawSeries{
		Dates:   chartDatePattern.FindAllString(script, -1),
		Prices:  SplitNumericArray(arrays[0][1]),
		Volumes: SplitNumericArray(arrays[1][1]),
	}

	slog.Debug("Extracted chart series",
		slog.Int("dates", len(raw.Dates)),
		slog.Int("prices", len(raw.Prices)),
		slog.Int("volumes", len(raw.Volumes)),
	)

	return raw, nil
}

// SplitNumericArray splits the body of a JavaScript array literal into its
// elements. Surrounding whitespace and double quotes are removed. Empty elements
// left by trailing commas are dropped; an empty element between two values is
// kept so that parsing rejects it instead of shifting later positions.
func SplitNumericArray(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}

	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	return parts[:end]
}
