package config

import (
	"time"

	"itemliquidity/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "itemliquidity"
	AppVersion = contracts.Version

	// Stats output
	DefaultStatsFileName = "scraped_data.json"
	DefaultCommitMessage = "update dictionary"
	DefaultSnapshotKeep  = 30 // Dated copies kept in the reports directory

	// Marketplace session
	DefaultCookieName        = "mptf"
	DefaultPageWait          = 2 * time.Second
	DefaultRequestsPerSecond = 1.0
	DefaultWorkers           = 1

	// Scraper retries after a failed browser start
	DefaultSessionRetries = 3
	SessionRetryDelay     = 5 * time.Second

	// Rate Limiting
	DefaultRateLimitRPS = 100
	DefaultBurstSize    = 50

	// HTTP
	DefaultMaxBodyBytes = 4 << 20 // 4MB, a few thousand chart rows
	DefaultHTTPTimeout  = 30 * time.Second
)
