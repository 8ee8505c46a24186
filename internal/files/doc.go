// Package files discovers and prunes the dated stats snapshots a scan leaves
// in the reports directory (stats_YYYYMMDD.json).
//
//	discovery := files.NewDiscovery(paths.BaseDir, logger)
//	snapshots, err := discovery.FindSnapshots(paths.ReportsDir)
//	latest, ok := files.GetLatestFile(snapshots)
package files
