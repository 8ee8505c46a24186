package testutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"itemliquidity/internal/liquidity"
)

// ChartDay is one day of a synthetic item chart
type ChartDay struct {
	Date   time.Time
	Price  float64
	Volume int64
}

// DailyChart builds days observations ending on end, oldest first, with a
// constant price and volume.
func DailyChart(end time.Time, days int, price float64, volume int64) []ChartDay {
	chart := make([]ChartDay, days)
	for i := 0; i < days; i++ {
		chart[i] = ChartDay{
			Date:   end.AddDate(0, 0, i-days+1),
			Price:  price,
			Volume: volume,
		}
	}
	return chart
}

// RawChart renders a chart as the text sequences scraped from an item page
func RawChart(chart []ChartDay) liquidity.RawSeries {
	raw := liquidity.RawSeries{
		Dates:   make([]string, len(chart)),
		Prices:  make([]string, len(chart)),
		Volumes: make([]string, len(chart)),
	}
	for i, d := range chart {
		raw.Dates[i] = d.Date.Format(liquidity.DateLayout)
		raw.Prices[i] = strconv.FormatFloat(d.Price, 'f', -1, 64)
		raw.Volumes[i] = strconv.FormatInt(d.Volume, 10)
	}
	return raw
}

// ChartScript renders a chart as the inline script of an item page: the
// dates as literal text followed by the price and volume series.
func ChartScript(chart []ChartDay) string {
	raw := RawChart(chart)

	quoted := make([]string, len(raw.Dates))
	for i, d := range raw.Dates {
		quoted[i] = strconv.Quote(d)
	}

	var b strings.Builder
	b.WriteString("var data = {\n")
	fmt.Fprintf(&b, "  labels: [%s],\n", strings.Join(quoted, ", "))
	b.WriteString("  datasets: [\n")
	fmt.Fprintf(&b, "    {label: \"Median price\", data: [%s]},\n", strings.Join(raw.Prices, ", "))
	fmt.Fprintf(&b, "    {label: \"Volume\", data: [%s]},\n", strings.Join(raw.Volumes, ", "))
	b.WriteString("  ]\n};\nnew Chart(ctx, {type: \"line\", data: data});\n")
	return b.String()
}

// ChartPage wraps ChartScript in a minimal item page
func ChartPage(chart []ChartDay) string {
	return "<html><body><canvas id=\"chart\"></canvas><script>" + ChartScript(chart) + "</script></body></html>"
}
