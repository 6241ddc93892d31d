package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AOC_"

// PathEnvVar overrides the config file location.
const PathEnvVar = "AOC_CONFIG"

// DefaultPath is the config file read when PathEnvVar is unset.
const DefaultPath = "aoc_leaderboard_config.json"

// Path returns the config file location.
func Path() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotenv copies variables from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
	}
	return nil
}

// Load builds a Config by layering defaults, the optional config file and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file at path, if it exists (JSON, or YAML by extension)
//  3. env (prefix AOC_)
//
// An empty path skips the file. A file that exists but cannot be read or
// parsed yields an error matching both ErrLoadConfig and ErrConfigFile.
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
				return nil, fmt.Errorf("%w: %w: %s: %v", ErrLoadConfig, ErrConfigFile, path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w: %s: %v", ErrLoadConfig, ErrConfigFile, path, err)
		}
	}

	// AOC_OUTPUT_DIR -> output_dir. Underscores are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// A bare number would decode as nanoseconds.
	if v := k.Get("timeout"); v != nil {
		if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("%w: timeout must be a duration string such as \"30s\" (got %v)", ErrInvalidConfig, v)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the fetcher cannot run without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.LeaderboardID) == "":
		return fmt.Errorf("%w: leaderboard_id must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case c.StartYear < FirstYear:
		return fmt.Errorf("%w: start_year must be >= %d (got %d)", ErrInvalidConfig, FirstYear, c.StartYear)
	case c.EndYear < c.StartYear:
		return fmt.Errorf("%w: end_year %d is before start_year %d", ErrInvalidConfig, c.EndYear, c.StartYear)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive (got %s)", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return json.Parser()
	}
}
