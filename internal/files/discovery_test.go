package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSnapshotName(t *testing.T) {
	at := time.Date(2024, 6, 15, 23, 30, 0, 0, time.FixedZone("UTC-3", -3*3600))
	assert.Equal(t, "stats_20240616.json", SnapshotName(at))

	date, ok := ParseSnapshotName(SnapshotName(at))
	require.True(t, ok)
	assert.Equal(t, day(2024, 6, 16), date)
}

func TestParseSnapshotName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"stats_20240615.json", true},
		{"stats_2024061.json", false},
		{"stats_20241315.json", false},
		{"stats_20240615.csv", false},
		{"scraped_data.json", false},
		{"liquidity_report_20240615.xlsx", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseSnapshotName(tt.name)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFindSnapshots(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"stats_20240615.json",
		"stats_20240601.json",
		"stats_20240610.json",
		"liquidity_report_20240615.csv",
		"notes.txt",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "stats_20240620.json"), 0755))

	d := NewDiscovery(dir, nil)

	files, err := d.FindSnapshots(".")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "stats_20240601.json", files[0].Name)
	assert.Equal(t, "stats_20240615.json", files[2].Name)
	assert.Equal(t, filepath.Join(dir, "stats_20240610.json"), files[1].Path)
	assert.EqualValues(t, 2, files[1].Size)

	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, day(2024, 6, 15), latest.Date)

	files, err = d.FindSnapshots(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestGetLatestFile_Empty(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"stats_20240601.json",
		"stats_20240602.json",
		"stats_20240603.json",
		"stats_20240604.json",
		"scraped_data.json",
	)
	d := NewDiscovery(dir, nil)

	removed, err := d.Prune(dir, 2)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "stats_20240601.json", removed[0].Name)

	files, err := d.FindSnapshots(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "stats_20240603.json", files[0].Name)
	assert.FileExists(t, filepath.Join(dir, "scraped_data.json"))

	removed, err = d.Prune(dir, 5)
	assert.NoError(t, err)
	assert.Empty(t, removed)

	removed, err = d.Prune(dir, 0)
	assert.NoError(t, err)
	assert.Empty(t, removed)
}
