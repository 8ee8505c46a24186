package liquidity

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemliquidity/pkg/contracts/domain"
)

var testNow = time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

// flatSeries builds n observations, one per day going back from now
func flatSeries(now time.Time, n int, price float64, volume int64) Series {
	today := ReferenceDay(now)
	obs := make([]Observation, n)
	for i := 0; i < n; i++ {
		obs[i] = Observation{Date: today.AddDate(0, 0, -(n - 1 - i)), Price: price, Volume: volume}
	}
	return Series{Observations: obs}
}

// seriesFromPrices builds one observation per price on consecutive days ending today
func seriesFromPrices(now time.Time, prices []float64, volume func(i int) int64) Series {
	today := ReferenceDay(now)
	obs := make([]Observation, len(prices))
	for i, p := range prices {
		obs[i] = Observation{Date: today.AddDate(0, 0, -(len(prices) - 1 - i)), Price: p, Volume: volume(i)}
	}
	return Series{Observations: obs}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// TestWindow tests Window type functionality
func TestWindow(t *testing.T) {
	tests := []struct {
		name         string
		window       Window
		expectedDays int
		expectedStr  string
	}{
		{"7-day window", Window7, 7, "7d"},
		{"90-day window", Window90, 90, "90d"},
		{"custom window", Window(30), 30, "30d"},
		{"invalid window", Window(0), 0, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedDays, tt.window.Days())
			assert.Equal(t, tt.expectedStr, tt.window.String())
		})
	}
}

func TestParseSeries(t *testing.T) {
	t.Run("valid series", func(t *testing.T) {
		series, err := ParseSeries(RawSeries{
			Dates:   []string{"Jan 5, 2024", "Feb 29, 2024", " Mar 1, 2024 "},
			Prices:  []string{"1.55", `"2"`, "0"},
			Volumes: []string{"120", "98.9", `"7"`},
		})
		require.NoError(t, err)
		require.Equal(t, 3, series.Len())

		assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), series.Observations[0].Date)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), series.Observations[1].Date)
		assert.Equal(t, []float64{1.55, 2, 0}, series.Prices())
		assert.Equal(t, []int64{120, 98, 7}, series.Volumes())
	})

	t.Run("empty series", func(t *testing.T) {
		series, err := ParseSeries(RawSeries{})
		require.NoError(t, err)
		assert.Equal(t, 0, series.Len())
	})

	tests := []struct {
		name     string
		raw      RawSeries
		sentinel error
		field    string
		index    int
	}{
		{
			name:     "length mismatch",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024"}, Prices: []string{"1", "2"}, Volumes: []string{"1"}},
			sentinel: ErrLengthMismatch,
			field:    "series",
			index:    -1,
		},
		{
			name:     "iso date",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024", "2024-01-06"}, Prices: []string{"1", "2"}, Volumes: []string{"1", "1"}},
			sentinel: ErrMalformedDate,
			field:    "dates",
			index:    1,
		},
		{
			name:     "impossible date",
			raw:      RawSeries{Dates: []string{"Feb 30, 2024"}, Prices: []string{"1"}, Volumes: []string{"1"}},
			sentinel: ErrMalformedDate,
			field:    "dates",
			index:    0,
		},
		{
			name:     "text price",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024"}, Prices: []string{"n/a"}, Volumes: []string{"1"}},
			sentinel: ErrMalformedNumber,
			field:    "prices",
			index:    0,
		},
		{
			name:     "negative price",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024"}, Prices: []string{"-1.5"}, Volumes: []string{"1"}},
			sentinel: ErrNegativeValue,
			field:    "prices",
			index:    0,
		},
		{
			name:     "nan price",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024"}, Prices: []string{"NaN"}, Volumes: []string{"1"}},
			sentinel: ErrNegativeValue,
			field:    "prices",
			index:    0,
		},
		{
			name:     "text volume",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024"}, Prices: []string{"1"}, Volumes: []string{"many"}},
			sentinel: ErrMalformedNumber,
			field:    "volumes",
			index:    0,
		},
		{
			name:     "negative volume",
			raw:      RawSeries{Dates: []string{"Jan 5, 2024"}, Prices: []string{"1"}, Volumes: []string{"-3"}},
			sentinel: ErrNegativeValue,
			field:    "volumes",
			index:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeries(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.index, ve.Index)
		})
	}
}

func TestNewSeries(t *testing.T) {
	day := time.Date(2024, 1, 5, 18, 30, 0, 0, time.UTC)

	series, err := NewSeries([]time.Time{day}, []float64{1.5}, []int64{3})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), series.Observations[0].Date)

	_, err = NewSeries([]time.Time{day, day}, []float64{1.5}, []int64{3, 4})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewSeries([]time.Time{day}, []float64{math.Inf(1)}, []int64{3})
	assert.ErrorIs(t, err, ErrNegativeValue)

	_, err = NewSeries([]time.Time{day}, []float64{1}, []int64{-1})
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestFilterWindow(t *testing.T) {
	today := ReferenceDay(testNow)
	series := Series{Observations: []Observation{
		{Date: today.AddDate(0, 0, -91), Price: 1, Volume: 1},
		{Date: today.AddDate(0, 0, -90), Price: 2, Volume: 2},
		{Date: today.AddDate(0, 0, -45), Price: 3, Volume: 4},
		{Date: today, Price: 4, Volume: 8},
		{Date: today.AddDate(0, 0, 1), Price: 5, Volume: 16},
	}}

	result := FilterWindow(series, Window90, testNow)

	assert.Equal(t, []float64{2, 3, 4}, result.Prices())
	assert.Equal(t, int64(14), result.TotalVolume)
	assert.Equal(t, 3, result.Len())

	t.Run("all excluded", func(t *testing.T) {
		old := Series{Observations: []Observation{{Date: today.AddDate(-1, 0, 0), Price: 1, Volume: 5}}}
		result := FilterWindow(old, Window90, testNow)
		assert.Equal(t, 0, result.Len())
		assert.Equal(t, int64(0), result.TotalVolume)
	})

	t.Run("reference day follows the clock location", func(t *testing.T) {
		// 01:00 on Jun 16 in UTC+10 is still Jun 15 in UTC
		local := time.Date(2024, 6, 16, 1, 0, 0, 0, time.FixedZone("UTC+10", 10*3600))
		assert.True(t, InWindow(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), Window90, local))
		assert.False(t, InWindow(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), Window90, local.UTC()))
	})
}

func TestZScores(t *testing.T) {
	z := ZScores(repeat(4.2, 5), DefaultStdDevFloor)
	for _, v := range z {
		assert.Equal(t, 0.0, v)
	}

	z = ZScores([]float64{1, 2, 3}, DefaultStdDevFloor)
	require.Len(t, z, 3)
	assert.InDelta(t, -1.0, z[0], 1e-12)
	assert.InDelta(t, 0.0, z[1], 1e-12)
	assert.InDelta(t, 1.0, z[2], 1e-12)
}

func TestRejectOutliers(t *testing.T) {
	t.Run("single extreme value", func(t *testing.T) {
		prices := append(repeat(10, 19), 1000)
		series := seriesFromPrices(testNow, prices, func(int) int64 { return 1 })

		kept, rejected := RejectOutliers(series.Observations, DefaultZThreshold, DefaultStdDevFloor)

		require.Len(t, rejected, 1)
		assert.Equal(t, 1000.0, rejected[0].Price)
		assert.Equal(t, repeat(10, 19), Series{Observations: kept}.Prices())
	})

	t.Run("flat series keeps everything", func(t *testing.T) {
		series := flatSeries(testNow, 30, 5, 1)
		kept, rejected := RejectOutliers(series.Observations, DefaultZThreshold, DefaultStdDevFloor)
		assert.Len(t, kept, 30)
		assert.Empty(t, rejected)
	})

	t.Run("single observation", func(t *testing.T) {
		series := flatSeries(testNow, 1, 5, 1)
		kept, rejected := RejectOutliers(series.Observations, DefaultZThreshold, DefaultStdDevFloor)
		assert.Len(t, kept, 1)
		assert.Empty(t, rejected)
	})

	// Duplicate outlier values are removed together and the surviving dates and
	// volumes still belong to the surviving prices.
	t.Run("removal keeps dates and volumes aligned", func(t *testing.T) {
		prices := repeat(10, 40)
		prices[7] = 1000
		prices[31] = 1000
		series := seriesFromPrices(testNow, prices, func(i int) int64 { return int64(i) })

		kept, rejected := RejectOutliers(series.Observations, DefaultZThreshold, DefaultStdDevFloor)

		require.Len(t, rejected, 2)
		assert.Equal(t, int64(7), rejected[0].Volume)
		assert.Equal(t, int64(31), rejected[1].Volume)
		require.Len(t, kept, 38)

		original := make(map[int64]Observation, len(series.Observations))
		for _, o := range series.Observations {
			original[o.Volume] = o
		}
		for _, o := range kept {
			assert.Equal(t, original[o.Volume], o, "observation moved away from its date or volume")
			assert.Equal(t, 10.0, o.Price)
		}
	})
}

func TestPrefilterOutliers(t *testing.T) {
	prices := append(repeat(10, 19), 1000)
	series := seriesFromPrices(testNow, prices, func(i int) int64 { return int64(i + 1) })

	filtered, removed := PrefilterOutliers(series, DefaultZThreshold)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 19, filtered.Len())
	assert.Equal(t, int64(19), filtered.Observations[18].Volume)

	flat := flatSeries(testNow, 10, 3, 1)
	filtered, removed = PrefilterOutliers(flat, DefaultZThreshold)
	assert.Equal(t, 0, removed)
	assert.Equal(t, flat, filtered)

	empty, removed := PrefilterOutliers(Series{}, DefaultZThreshold)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 0, empty.Len())
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		series    Series
		liquidity float64
		frequency int
		volume    float64
		stability float64
	}{
		{
			name:      "empty series",
			series:    Series{},
			liquidity: 0,
		},
		{
			name:      "single point in window",
			series:    flatSeries(testNow, 1, 5, 10),
			liquidity: 0,
		},
		{
			name:      "below minimum sample",
			series:    flatSeries(testNow, 10, 5, 10),
			liquidity: 7.4, // 66*10/89 = 7.416
			frequency: 10,
		},
		{
			name:      "identical prices",
			series:    flatSeries(testNow, 25, 5, 10),
			liquidity: 39.5,
			frequency: 25,
			volume:    0.5,
			stability: 1,
		},
		{
			name:      "volume saturates",
			series:    flatSeries(testNow, 20, 2, 1000),
			liquidity: 48.8, // 14.83 + 26 + 8
			frequency: 20,
			volume:    1,
			stability: 1,
		},
		{
			name:      "alternating prices",
			series:    seriesFromPrices(testNow, alternating(4, 6, 20), func(int) int64 { return 10 }),
			liquidity: 33.1, // 14.83 + 13 + 8*0.6595
			frequency: 20,
			volume:    0.5,
			stability: 0.6595,
		},
		{
			name:      "all zero prices",
			series:    flatSeries(testNow, 25, 0, 10),
			liquidity: 31.5, // 18.54 + 13, stability denominator is 0
			frequency: 25,
			volume:    0.5,
			stability: 0,
		},
		{
			name:      "outlier removed before counting",
			series:    seriesFromPrices(testNow, append(repeat(10, 19), 1000), func(int) int64 { return 10 }),
			liquidity: 14.1, // 66*19/89
			frequency: 19,
		},
		{
			name:      "frequency term clamps the sum",
			series:    flatSeries(testNow, 91, 5, 100),
			liquidity: 100,
			frequency: 91,
			volume:    1,
			stability: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.series, testNow)

			assert.Equal(t, tt.liquidity, result.Liquidity)
			assert.Equal(t, tt.frequency, result.SellingFrequency)
			assert.InDelta(t, tt.volume, result.AverageVolume, 1e-4)
			assert.InDelta(t, tt.stability, result.PriceStability, 1e-4)
			assert.True(t, result.IsValid())
		})
	}
}

func TestScoreEndToEnd(t *testing.T) {
	// 25 identical prices within the last 30 days, 10 units each
	today := ReferenceDay(testNow)
	raw := RawSeries{}
	for i := 0; i < 25; i++ {
		raw.Dates = append(raw.Dates, today.AddDate(0, 0, -i).Format(DateLayout))
		raw.Prices = append(raw.Prices, "5.0")
		raw.Volumes = append(raw.Volumes, "10")
	}

	series, err := ParseSeries(raw)
	require.NoError(t, err)

	result := Score(series, testNow)
	assert.Equal(t, 39.5, result.Liquidity)
	assert.Equal(t, int64(250), result.TotalVolume)
	assert.Equal(t, 25, result.SellingFrequency)
	assert.Equal(t, 25, result.WindowSize)
	assert.Equal(t, 0.5, result.AverageVolume)
	assert.Equal(t, 1.0, result.PriceStability)
}

func TestScoreUsesWindowVolumeTotal(t *testing.T) {
	// The extreme point is rejected but its volume stays in the window total
	prices := append(repeat(10, 39), 5000)
	series := seriesFromPrices(testNow, prices, func(i int) int64 {
		if i == 39 {
			return 400
		}
		return 0
	})

	result := Score(series, testNow)
	require.Equal(t, 1, result.Outliers)
	assert.Equal(t, int64(400), result.TotalVolume)
	assert.Equal(t, 39, result.SellingFrequency)
	assert.InDelta(t, 400.0/39.0/20.0, result.AverageVolume, 1e-12)
}

func TestScoreProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		n := rng.Intn(150)
		today := ReferenceDay(testNow)
		obs := make([]Observation, n)
		for i := range obs {
			obs[i] = Observation{
				Date:   today.AddDate(0, 0, -rng.Intn(120)),
				Price:  rng.ExpFloat64() * 50,
				Volume: rng.Int63n(500),
			}
		}
		series := Series{Observations: obs}

		first := Score(series, testNow)
		second := Score(series, testNow)

		assert.Equal(t, first, second, "scoring must be deterministic")
		assert.GreaterOrEqual(t, first.Liquidity, 0.0)
		assert.LessOrEqual(t, first.Liquidity, 100.0)
		assert.InDelta(t, first.Liquidity, math.Round(first.Liquidity*10)/10, 1e-9)
		assert.False(t, math.IsNaN(first.Liquidity))

		if first.WindowSize <= 1 {
			assert.Equal(t, 0.0, first.Liquidity)
		}
		if first.SellingFrequency < DefaultMinSamples {
			assert.Equal(t, 0.0, first.AverageVolume)
			assert.Equal(t, 0.0, first.PriceStability)
			assert.Equal(t, math.Min(100, round(66*float64(first.SellingFrequency)/89, 1)), first.Liquidity)
		}
	}
}

func TestScoreHugePrices(t *testing.T) {
	twenty := func(int) int64 { return 20 }

	t.Run("outlier rejected at any magnitude", func(t *testing.T) {
		prices := append(repeat(1, 24), 2)
		small := Score(seriesFromPrices(testNow, prices, twenty), testNow)

		for i := range prices {
			prices[i] *= 1e200
		}
		huge := Score(seriesFromPrices(testNow, prices, twenty), testNow)

		assert.True(t, huge.IsValid())
		assert.Equal(t, 1, huge.Outliers)
		assert.Equal(t, 24, huge.SellingFrequency)
		assert.Equal(t, 51.8, huge.Liquidity)
		assert.Equal(t, small.Liquidity, huge.Liquidity)
		assert.InDelta(t, small.PriceStability, huge.PriceStability, 1e-12)
	})

	t.Run("flat series at the float limit", func(t *testing.T) {
		series := flatSeries(testNow, 25, 1e308, 20)

		result := Score(series, testNow)
		assert.True(t, result.IsValid())
		assert.Equal(t, 1.0, result.PriceStability)
		assert.Equal(t, 52.5, result.Liquidity)

		z := ZScores(series.Prices(), DefaultStdDevFloor)
		for _, v := range z {
			assert.False(t, math.IsNaN(v))
		}

		trailing := Trailing(series, Window7, testNow)
		assert.InEpsilon(t, 1e308, trailing.AvgPrice, 1e-12)

		path := filepath.Join(t.TempDir(), "scraped_data.json")
		stats := domain.StatsSet{"Australium Gold": NewItemStats("5037;6", result, trailing)}
		require.NoError(t, SaveStatsJSON(stats, path))
	})

	t.Run("parsed from chart text", func(t *testing.T) {
		price, err := ParsePrice("1e308")
		require.NoError(t, err)

		kept, _ := PrefilterOutliers(flatSeries(testNow, 25, price, 20), DefaultZThreshold)
		assert.Equal(t, 52.5, Score(kept, testNow).Liquidity)
	})
}

func TestTrailing(t *testing.T) {
	today := ReferenceDay(testNow)
	series := Series{Observations: []Observation{
		{Date: today.AddDate(0, 0, -8), Price: 100, Volume: 100},
		{Date: today.AddDate(0, 0, -7), Price: 2, Volume: 10},
		{Date: today.AddDate(0, 0, -3), Price: 3, Volume: 20},
		{Date: today.AddDate(0, 0, -3), Price: 4, Volume: 30}, // same day, replaces the previous one
		{Date: today, Price: 6, Volume: 5},
	}}

	stats := Trailing(series, Window7, testNow)

	// The window is inclusive on both ends, so today-7 is counted and up to
	// eight days contribute, while VolumePerDay still divides by 7. A bound taken
	// from the wall clock would drop today-7 and count seven days.
	assert.Equal(t, 3, stats.DaysCounted)
	assert.Equal(t, 4.0, stats.AvgPrice)
	assert.Equal(t, 15.0, stats.AvgVolume)
	assert.Equal(t, 6.43, stats.VolumePerDay) // 45 / 7

	assert.Equal(t, TrailingStats{}, Trailing(Series{}, Window7, testNow))
}

func TestCalculator(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	t.Run("rejects invalid params", func(t *testing.T) {
		params := DefaultParams()
		params.ZThreshold = 0
		_, err := NewCalculator(params, logger)
		require.Error(t, err)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "ZThreshold", ve.Field)
	})

	calc, err := NewCalculator(DefaultParams(), logger)
	require.NoError(t, err)
	calc.SetClock(func() time.Time { return testNow })

	t.Run("scores raw input", func(t *testing.T) {
		today := ReferenceDay(testNow)
		raw := RawSeries{}
		for i := 0; i < 25; i++ {
			raw.Dates = append(raw.Dates, today.AddDate(0, 0, -i).Format(DateLayout))
			raw.Prices = append(raw.Prices, "5")
			raw.Volumes = append(raw.Volumes, "10")
		}

		result, err := calc.CalculateRaw(context.Background(), "Mann Co. Supply Crate Key", raw)
		require.NoError(t, err)
		assert.Equal(t, 39.5, result.Liquidity)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := calc.CalculateRaw(context.Background(), "item", RawSeries{
			Dates: []string{"yesterday"}, Prices: []string{"1"}, Volumes: []string{"1"},
		})
		assert.ErrorIs(t, err, ErrMalformedDate)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := calc.Calculate(ctx, "item", flatSeries(testNow, 25, 5, 10))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("trailing uses the clock", func(t *testing.T) {
		stats := calc.Trailing(flatSeries(testNow, 10, 2, 7), Window7)
		assert.Equal(t, 8, stats.DaysCounted)
		assert.Equal(t, 2.0, stats.AvgPrice)
		assert.Equal(t, 8.0, stats.VolumePerDay) // 56 / 7
	})
}

func TestValidateParams(t *testing.T) {
	require.NoError(t, ValidateParams(DefaultParams()))

	mutations := map[string]func(*Params){
		"WindowDays":       func(p *Params) { p.WindowDays = 0 },
		"StdDevFloor":      func(p *Params) { p.StdDevFloor = -1 },
		"MinSamples":       func(p *Params) { p.MinSamples = 1 },
		"VolumeNormalizer": func(p *Params) { p.VolumeNormalizer = 0 },
		"Weights":          func(p *Params) { p.VolumeWeight = -26 },
	}
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			err := ValidateParams(p)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestStatsPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scraped_data.json")
	stats := domain.StatsSet{
		"Mann Co. Supply Crate Key": NewItemStats("5021;6", Result{Liquidity: 88.4},
			TrailingStats{AvgPrice: 1.88, AvgVolume: 412.5, VolumePerDay: 353.57}),
	}

	require.NoError(t, SaveStatsJSON(stats, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"7D_avg_price":1.88`)
	assert.Contains(t, string(data), `"7D_vol_per_day":353.57`)

	loaded, err := LoadStatsJSON(path)
	require.NoError(t, err)
	assert.Equal(t, stats, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func alternating(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = a
		} else {
			out[i] = b
		}
	}
	return out
}
