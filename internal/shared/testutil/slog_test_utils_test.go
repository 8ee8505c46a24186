package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemliquidity/internal/liquidity"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		scan := logger.With(slog.String("component", "scan"))
		scan.WithGroup("item").Info("scored", slog.String("sku", "5021;6"))

		require.Equal(t, 1, handler.Count())
		AssertLogAttr(t, handler, "component", "scan")
		AssertLogAttr(t, handler, "item.sku", "5021;6")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Zero(t, handler.Count())
		AssertNoErrors(t, handler)
	})
}

func TestChartFixtures(t *testing.T) {
	end := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	chart := DailyChart(end, 3, 1.5, 12)

	require.Len(t, chart, 3)
	assert.Equal(t, end.AddDate(0, 0, -2), chart[0].Date)
	assert.Equal(t, end, chart[2].Date)

	raw := RawChart(chart)
	assert.Equal(t, []string{"Jun 13, 2024", "Jun 14, 2024", "Jun 15, 2024"}, raw.Dates)
	assert.Equal(t, []string{"1.5", "1.5", "1.5"}, raw.Prices)
	assert.Equal(t, []string{"12", "12", "12"}, raw.Volumes)

	series, err := liquidity.ParseSeries(raw)
	require.NoError(t, err)
	assert.Len(t, series.Observations, 3)

	script := ChartScript(chart)
	assert.Contains(t, script, `"Jun 14, 2024"`)
	assert.Contains(t, script, "data: [1.5, 1.5, 1.5]")
	assert.Contains(t, script, "data: [12, 12, 12]")
	assert.Contains(t, ChartPage(chart), "<script>")
}
