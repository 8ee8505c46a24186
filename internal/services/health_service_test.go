package services

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemliquidity/internal/config"
	"itemliquidity/internal/shared/testutil"
)

func newHealthFixture(t *testing.T, withStats bool) (*HealthService, *config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{
		BaseDir:   dir,
		DataDir:   filepath.Join(dir, "data"),
		StatsFile: filepath.Join(dir, "data", "scraped_data.json"),
	}
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))
	if withStats {
		writeStats(t, paths.StatsFile, sampleStats())
	}

	logger, _ := testutil.NewTestLogger(t)
	return NewHealthServiceWithBuildInfo("1.2.3", "2024-06-15T00:00:00Z", "abc123", paths,
		NewStatsService(paths.StatsFile, logger), logger), paths
}

func TestHealthService_HealthAndLiveness(t *testing.T) {
	hs, _ := newHealthFixture(t, true)
	ctx := context.Background()

	health := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, runtime.Version(), live.Runtime["go_version"])
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	t.Run("ready with stats", func(t *testing.T) {
		hs, _ := newHealthFixture(t, true)
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, "3 items", status.Services["stats"].(ServiceHealth).Message)
	})

	t.Run("not ready without stats", func(t *testing.T) {
		hs, _ := newHealthFixture(t, false)
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		assert.Equal(t, "ready", status.Services["data"].(ServiceHealth).Status)
		assert.Equal(t, "not_ready", status.Services["stats"].(ServiceHealth).Status)
	})

	t.Run("nil dependencies", func(t *testing.T) {
		hs := NewHealthService("dev", nil, nil, nil)
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
	})
}

func TestHealthService_SystemStats(t *testing.T) {
	hs, _ := newHealthFixture(t, true)

	stats, err := hs.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Positive(t, stats.TotalSizeBytes)
	assert.Equal(t, 3, stats.StatsItems)
	assert.False(t, stats.StatsUpdated.IsZero())
	assert.Equal(t, runtime.GOOS, stats.OS)
}

func TestHealthService_Version(t *testing.T) {
	hs, _ := newHealthFixture(t, false)

	v := hs.Version()
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "abc123", v["build_id"])
	assert.Equal(t, "2024-06-15T00:00:00Z", v["build_time"])
	assert.Equal(t, "v1", v["data_format"])

	detailed := hs.GetDetailedHealth(context.Background())
	assert.Contains(t, detailed, "readiness")
	assert.Contains(t, detailed, "stats")
}
