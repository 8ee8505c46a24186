package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/liquidity"
	"itemliquidity/internal/marketplace"
)

// EnvPrefix namespaces every environment variable, e.g. LIQ_SERVER_PORT
const EnvPrefix = "LIQ"

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Security    SecurityConfig    `yaml:"security" envconfig:"SECURITY"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Marketplace MarketplaceConfig `yaml:"marketplace" envconfig:"MARKETPLACE"`
	GitHub      GitHubConfig      `yaml:"github" envconfig:"GITHUB"`
	Sheets      SheetsConfig      `yaml:"sheets" envconfig:"SHEETS"`
	Scoring     ScoringConfig     `yaml:"scoring" envconfig:"SCORING"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"` // console, file or both
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths. Relative paths are resolved against
// BaseDir, which defaults to the executable directory.
type PathsConfig struct {
	BaseDir     string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	StatsFile   string `yaml:"stats_file" envconfig:"STATS_FILE"`
	CatalogFile string `yaml:"catalog_file" envconfig:"CATALOG_FILE"` // Local items.json, overrides the repository catalog
}

// MarketplaceConfig configures the item page fetcher
type MarketplaceConfig struct {
	Domain            string        `yaml:"domain" envconfig:"DOMAIN"`
	Cookie            string        `yaml:"cookie" envconfig:"COOKIE"`
	CookieName        string        `yaml:"cookie_name" envconfig:"COOKIE_NAME"`
	ChromePath        string        `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	Headless          bool          `yaml:"headless" envconfig:"HEADLESS"`
	PageWait          time.Duration `yaml:"page_wait" envconfig:"PAGE_WAIT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" envconfig:"BURST"`
	Workers           int           `yaml:"workers" envconfig:"WORKERS"`
}

// GitHubConfig configures the catalog repository and the stats output repository
type GitHubConfig struct {
	Token         string `yaml:"token" envconfig:"TOKEN"`
	Owner         string `yaml:"owner" envconfig:"OWNER"`
	CatalogRepo   string `yaml:"catalog_repo" envconfig:"CATALOG_REPO"`
	CatalogBranch string `yaml:"catalog_branch" envconfig:"CATALOG_BRANCH"`
	CatalogPath   string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`
	OutputRepo    string `yaml:"output_repo" envconfig:"OUTPUT_REPO"`
	OutputBranch  string `yaml:"output_branch" envconfig:"OUTPUT_BRANCH"`
	OutputPath    string `yaml:"output_path" envconfig:"OUTPUT_PATH"`
	CommitMessage string `yaml:"commit_message" envconfig:"COMMIT_MESSAGE"`
}

// SheetsConfig configures the optional Google Sheets mirror of the stats
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"RANGE"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// ScoringConfig holds the scoring constants and scan pipeline switches
type ScoringConfig struct {
	WindowDays       int     `yaml:"window_days" envconfig:"WINDOW_DAYS"`
	TrailingDays     int     `yaml:"trailing_days" envconfig:"TRAILING_DAYS"`
	MinSamples       int     `yaml:"min_samples" envconfig:"MIN_SAMPLES"`
	ZThreshold       float64 `yaml:"z_threshold" envconfig:"Z_THRESHOLD"`
	StdDevFloor      float64 `yaml:"std_dev_floor" envconfig:"STD_DEV_FLOOR"`
	VolumeNormalizer float64 `yaml:"volume_normalizer" envconfig:"VOLUME_NORMALIZER"`
	Prefilter        bool    `yaml:"prefilter" envconfig:"PREFILTER"` // Population z-filter over the whole chart before scoring
}

// TelemetryConfig configures tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Params converts the scoring section into calculator parameters
func (s ScoringConfig) Params() liquidity.Params {
	p := liquidity.DefaultParams()
	p.WindowDays = s.WindowDays
	p.MinSamples = s.MinSamples
	p.ZThreshold = s.ZThreshold
	p.StdDevFloor = s.StdDevFloor
	p.VolumeNormalizer = s.VolumeNormalizer
	return p
}

// FetcherOptions converts the marketplace section into fetcher options
func (m MarketplaceConfig) FetcherOptions() marketplace.Options {
	return marketplace.Options{
		Domain:            m.Domain,
		CookieName:        m.CookieName,
		Cookie:            m.Cookie,
		ChromePath:        m.ChromePath,
		Headless:          m.Headless,
		PageWait:          m.PageWait,
		RequestsPerSecond: m.RequestsPerSecond,
		Burst:             m.Burst,
	}
}

// Load loads configuration from the config file, if any, then environment variables
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration layered as defaults, then the YAML file at path
// (skipped when empty), then environment variables. Later layers only override
// the values they set.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apierrors.NewConfigError("failed to load config from file", err).WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apierrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apierrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apierrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys missing from the file keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive when enabled")
	}

	// Logs are always JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q: want console, file or both", c.Logging.Output)
	}

	if c.Scoring.TrailingDays <= 0 {
		return fmt.Errorf("trailing days must be positive")
	}

	if err := liquidity.ValidateParams(c.Scoring.Params()); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	if c.Marketplace.Workers <= 0 {
		return fmt.Errorf("marketplace workers must be positive")
	}

	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets spreadsheet id is required when the sheets mirror is enabled")
	}

	return nil
}

// ValidateScan checks the settings only the scraper needs
func (c *Config) ValidateScan() error {
	if err := c.Marketplace.FetcherOptions().Validate(); err != nil {
		return err
	}
	if c.Paths.CatalogFile == "" && (c.GitHub.Owner == "" || c.GitHub.CatalogRepo == "") {
		return fmt.Errorf("a catalog file or github owner and catalog repo are required")
	}
	return nil
}

// PublishesToGitHub reports whether scan results are committed to the output repository
func (c *Config) PublishesToGitHub() bool {
	return c.GitHub.Token != "" && c.GitHub.Owner != "" && c.GitHub.OutputRepo != ""
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_FILE")); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
			StatsFile:  "data/" + DefaultStatsFileName,
		},
		Marketplace: MarketplaceConfig{
			CookieName:        DefaultCookieName,
			Headless:          true,
			PageWait:          DefaultPageWait,
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             1,
			Workers:           DefaultWorkers,
		},
		GitHub: GitHubConfig{
			CatalogBranch: "main",
			CatalogPath:   "items.json",
			OutputPath:    "stats",
			CommitMessage: DefaultCommitMessage,
		},
		Sheets: SheetsConfig{
			Range:           "Stats!A1",
			CredentialsFile: "credentials.json",
		},
		Scoring: ScoringConfig{
			WindowDays:       liquidity.Window90.Days(),
			TrailingDays:     liquidity.Window7.Days(),
			MinSamples:       liquidity.DefaultMinSamples,
			ZThreshold:       liquidity.DefaultZThreshold,
			StdDevFloor:      liquidity.DefaultStdDevFloor,
			VolumeNormalizer: liquidity.DefaultVolumeNormalizer,
			Prefilter:        true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			MetricsEnabled: true,
		},
	}
}
