package files

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	snapshotPrefix = "stats_"
	snapshotSuffix = ".json"
	snapshotLayout = "20060102"
)

// FileInfo represents a dated stats snapshot found on disk
type FileInfo struct {
	Path    string
	Name    string
	Date    time.Time // Day encoded in the file name, UTC
	Size    int64
	ModTime time.Time
}

// SnapshotName returns the file name of the snapshot for the UTC day of t
func SnapshotName(t time.Time) string {
	return snapshotPrefix + t.UTC().Format(snapshotLayout) + snapshotSuffix
}

// ParseSnapshotName extracts the day from a snapshot file name
func ParseSnapshotName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return time.Time{}, false
	}
	day := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	date, err := time.Parse(snapshotLayout, day)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// Discovery finds stats snapshots under a reports directory
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a new snapshot discovery instance
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		basePath: basePath,
		logger:   logger.With(slog.String("component", "snapshot_discovery")),
	}
}

// FindSnapshots lists the snapshots in dir, oldest day first. A relative dir
// is taken from the base path and a missing dir holds no snapshots.
func (d *Discovery) FindSnapshots(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := ParseSnapshotName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Date:    date,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Date.Before(files[j].Date)
	})
	return files, nil
}

// Prune deletes all but the newest keep snapshots in dir and returns the
// removed files. keep <= 0 disables pruning.
func (d *Discovery) Prune(dir string, keep int) ([]FileInfo, error) {
	if keep <= 0 {
		return nil, nil
	}

	files, err := d.FindSnapshots(dir)
	if err != nil || len(files) <= keep {
		return nil, err
	}

	var removed []FileInfo
	var errs []error
	for _, file := range files[:len(files)-keep] {
		if err := os.Remove(file.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, file)
	}

	d.logger.Info("Snapshots pruned",
		slog.String("dir", dir),
		slog.Int("removed", len(removed)),
		slog.Int("kept", keep))
	return removed, errors.Join(errs...)
}

// GetLatestFile returns the snapshot of the most recent day
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.Date.After(latest.Date) {
			latest = file
		}
	}
	return latest, true
}
