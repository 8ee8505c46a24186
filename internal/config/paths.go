package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the resolved application paths
type Paths struct {
	BaseDir         string
	DataDir         string
	ReportsDir      string
	LogsDir         string
	StatsFile       string
	CatalogFile     string
	CredentialsFile string
	LogFile         string
}

// ExecutableDir returns the directory holding the running binary, with symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return filepath.Dir(exe), nil
}

// resolvePaths makes every configured path absolute. Relative paths are taken
// from BaseDir, which itself defaults to the executable directory.
func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return err
		}
		c.Paths.BaseDir = dir
	}

	base, err := filepath.Abs(c.Paths.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base dir: %w", err)
	}
	c.Paths.BaseDir = base

	for _, p := range []*string{
		&c.Paths.DataDir,
		&c.Paths.ReportsDir,
		&c.Paths.LogsDir,
		&c.Paths.StatsFile,
		&c.Paths.CatalogFile,
		&c.Sheets.CredentialsFile,
		&c.Logging.FilePath,
	} {
		*p = resolve(base, *p)
	}

	return nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// GetPaths returns the resolved paths of a loaded configuration
func (c *Config) GetPaths() *Paths {
	return &Paths{
		BaseDir:         c.Paths.BaseDir,
		DataDir:         c.Paths.DataDir,
		ReportsDir:      c.Paths.ReportsDir,
		LogsDir:         c.Paths.LogsDir,
		StatsFile:       c.Paths.StatsFile,
		CatalogFile:     c.Paths.CatalogFile,
		CredentialsFile: c.Sheets.CredentialsFile,
		LogFile:         c.Logging.FilePath,
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.LogsDir,
		filepath.Dir(p.StatsFile),
	}

	for _, dir := range directories {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("stats", p.StatsFile),
			slog.String("catalog", p.CatalogFile),
			slog.Bool("credentials_present", p.CredentialsFile != "" && FileExists(p.CredentialsFile)),
		),
	)
}
