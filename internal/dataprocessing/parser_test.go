package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemliquidity/internal/liquidity"
)

const samplePageScript = `
var data = {
	labels: ["Jun 13, 2024", "Jun 14, 2024", "Jun 15, 2024"],
	datasets: [
		{ label: "Median price", data: [1.86, 1.9,"1.94",] },
		{ label: "Volume", data: [400, 450, 388,] },
	]
};`

func TestExtractSeries(t *testing.T) {
	raw, err := ExtractSeries(samplePageScript)
	require.NoError(t, err)

	assert.Equal(t, []string{"Jun 13, 2024", "Jun 14, 2024", "Jun 15, 2024"}, raw.Dates)
	assert.Equal(t, []string{"1.86", "1.9", "1.94"}, raw.Prices)
	assert.Equal(t, []string{"400", "450", "388"}, raw.Volumes)

	series, err := liquidity.ParseSeries(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())
}

func TestExtractSeriesNoData(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"empty script", ""},
		{"prices only", `labels: ["Jun 13, 2024"], data: [1.86]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSeries(tt.script)
			assert.ErrorIs(t, err, ErrNoChartData)
		})
	}
}

func TestSplitNumericArray(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{`1, 2, 3.5, 4.2`, []string{"1", "2", "3.5", "4.2"}},
		{`"1","2",`, []string{"1", "2"}},
		{``, []string{}},
		{` 7 `, []string{"7"}},
		{`1,,3`, []string{"1", "", "3"}},
		{`1, 2, , `, []string{"1", "2"}},
		{`,`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitNumericArray(tt.input))
		})
	}
}

func TestExtractSeriesGapFailsParsing(t *testing.T) {
	script := `labels: ["Jun 13, 2024", "Jun 14, 2024", "Jun 15, 2024"],
		data: [1,,3], data: [400, 450, 388]`

	raw, err := ExtractSeries(script)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "", "3"}, raw.Prices)

	_, err = liquidity.ParseSeries(raw)
	require.ErrorIs(t, err, liquidity.ErrMalformedNumber)

	var ve *liquidity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "prices", ve.Field)
	assert.Equal(t, 1, ve.Index)
}
