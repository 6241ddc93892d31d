// Package logging sets up the process-wide zerolog logger.
//
// Levels used across the fetcher:
//
//	debug  request URLs, ledger writes, manifest path
//	info   saved years, run start and summary, credential source
//	warn   non-200 responses, skipped config file, ledger or metrics export failures
//	error  transport and write failures, fatal setup errors
//
// Common fields are component, run_id, year, path, status, reason,
// error_class, bytes and source. The session token is never a field;
// Config.Secrets masks it should it surface inside an error string.
package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as found in configuration.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Redacted replaces every secret in log output.
const Redacted = "[REDACTED]"

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty selects console output; otherwise one JSON object per line.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer

	// Secrets are masked wherever they appear in a log line.
	Secrets []string
}

// DefaultConfig returns the CLI defaults: info level, console output on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: true,
		Output: os.Stderr,
	}
}

// Setup installs the global logger described by cfg and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}
	out = newRedactor(out, cfg.Secrets)
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel maps a configured name to a zerolog level. "warning" is
// accepted for warn; empty or unknown names mean info.
func ParseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = string(LevelWarn)
	}
	if name == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// NewLogger derives a logger tagged with component from the global one.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

type redactor struct {
	out     io.Writer
	secrets [][]byte
}

func newRedactor(out io.Writer, secrets []string) io.Writer {
	r := &redactor{out: out}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, []byte(s))
		}
	}
	if len(r.secrets) == 0 {
		return out
	}
	return r
}

func (r *redactor) Write(p []byte) (int, error) {
	masked := p
	for _, s := range r.secrets {
		masked = bytes.ReplaceAll(masked, s, []byte(Redacted))
	}
	if _, err := r.out.Write(masked); err != nil {
		return 0, err
	}
	return len(p), nil
}
