// Package config loads the application configuration.
//
// Values are layered in this order, each layer overriding only what it sets:
//
//	1. Defaults (Default)
//	2. A YAML file: LIQ_CONFIG_FILE, or config.yaml / configs/config.yaml
//	3. Environment variables prefixed with LIQ
//
// Environment variable names follow the struct layout:
//
//	LIQ_SERVER_PORT=8080
//	LIQ_LOGGING_LEVEL=debug
//	LIQ_MARKETPLACE_DOMAIN=marketplace.tf
//	LIQ_MARKETPLACE_COOKIE=...
//	LIQ_GITHUB_TOKEN=...
//	LIQ_GITHUB_OWNER=trader
//	LIQ_GITHUB_CATALOG_REPO=tf2-items
//	LIQ_GITHUB_OUTPUT_REPO=tf2-stats
//	LIQ_SCORING_WINDOW_DAYS=90
//
// Secrets such as the session cookie and the GitHub token are plain fields of
// Config and are handed to constructors; no other package reads the
// environment.
//
// Relative paths are resolved against paths.base_dir, which defaults to the
// directory holding the executable.
package config
