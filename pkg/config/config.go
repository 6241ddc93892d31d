// Package config defines the fetcher's settings and how they are layered.
//
// Settings live next to the session token in the same config file, and can
// be overridden by AOC_* environment variables. The token itself is not part
// of Config; see package session.
package config

import (
	"time"

	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/client"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogPretty switches between console output and JSON lines.
	LogPretty bool `koanf:"log_pretty"`

	// BaseURL is the Advent of Code origin, overridable for tests.
	BaseURL string `koanf:"base_url"`

	// LeaderboardID is the private leaderboard to download.
	LeaderboardID string `koanf:"leaderboard_id"`

	// StartYear and EndYear bound the inclusive year range.
	StartYear int `koanf:"start_year"`
	EndYear   int `koanf:"end_year"`

	// OutputDir receives one <year>.json per successful fetch.
	OutputDir string `koanf:"output_dir"`

	// Timeout bounds each request, including reading the body. File values
	// must be duration strings such as "30s".
	Timeout time.Duration `koanf:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`

	// WriteManifest enables files.json in OutputDir.
	WriteManifest bool `koanf:"write_manifest"`

	// RedisAddr enables the outcome ledger when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// MetricsTextfile, when set, receives a Prometheus textfile export after the run.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// Defaults. Request settings follow client.DefaultConfig.
const (
	DefaultBaseURL       = client.DefaultBaseURL
	DefaultLeaderboardID = "3158126"
	DefaultStartYear     = 2015
	DefaultEndYear       = 2025
	DefaultOutputDir     = "leaderboard-app/public/data"
	DefaultTimeout       = client.DefaultTimeout
	DefaultUserAgent     = client.DefaultUserAgent

	// FirstYear is the first Advent of Code event.
	FirstYear = 2015
)

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogPretty:     true,
		BaseURL:       DefaultBaseURL,
		LeaderboardID: DefaultLeaderboardID,
		StartYear:     DefaultStartYear,
		EndYear:       DefaultEndYear,
		OutputDir:     DefaultOutputDir,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		WriteManifest: true,
	}
}
