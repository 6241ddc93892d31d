// Command aoc-fetch downloads the yearly private leaderboard JSON from
// Advent of Code into the web app's data directory.
//
// Usage:
//
//	aoc-fetch [session]
//
// The session token is taken from the first argument, else AOC_SESSION,
// else the "session" key of aoc_leaderboard_config.json.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/client"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/config"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/fetch"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/logging"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/metrics"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/session"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/status"
	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/storage"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

const dotenvFile = ".env"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one fetch run and returns the process exit code. Per-year
// failures do not change the exit code.
func run(ctx context.Context, args []string, out io.Writer) int {
	if err := config.LoadDotenv(dotenvFile); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFailure
	}

	cfgPath := config.Path()
	token, err := resolveSession(args, cfgPath)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			fmt.Fprintln(out, session.Diagnostic(cfgPath))
		} else {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		return exitFailure
	}

	cfg, cfgErr := loadConfig(ctx, cfgPath, token)
	if cfg == nil {
		fmt.Fprintf(out, "Error: %v\n", cfgErr)
		return exitFailure
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Output:  out,
		Secrets: []string{token.Value},
	})
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Str("path", cfgPath).Msg("Ignoring config file, using defaults and environment")
	}

	runID := uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()
	logger.Info().
		Str("source", string(token.Source)).
		Str("leaderboard_id", cfg.LeaderboardID).
		Msg("Resolved session token")

	c, err := client.New(client.Config{
		BaseURL:       cfg.BaseURL,
		LeaderboardID: cfg.LeaderboardID,
		Session:       token.Value,
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.Timeout,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create leaderboard client")
		return exitFailure
	}

	store, err := storage.New(cfg.OutputDir)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create store")
		return exitFailure
	}

	recorder, closeRecorder := newRecorder(ctx, cfg, logger)
	defer closeRecorder()

	runner, err := fetch.NewRunner(c, store, fetch.Config{
		RunID:         runID,
		StartYear:     cfg.StartYear,
		EndYear:       cfg.EndYear,
		WriteManifest: cfg.WriteManifest,
	}, fetch.WithRecorder(recorder), fetch.WithLogger(logging.NewLogger("fetch")))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create runner")
		return exitFailure
	}

	_, runErr := runner.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn().Err(err).Msg("Failed to export metrics")
		}
	}

	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, context.Canceled):
		logger.Warn().Msg("Interrupted")
		return exitInterrupted
	default:
		logger.Error().Err(runErr).Msg("Fetch run failed")
		return exitFailure
	}
}

// resolveSession looks at the config file only when neither the argument
// nor AOC_SESSION yields a token.
func resolveSession(args []string, cfgPath string) (session.Token, error) {
	in := session.Input{
		Args:     args,
		Env:      session.EnvFromOS(),
		FilePath: cfgPath,
	}
	token, err := session.Resolve(in)
	if !errors.Is(err, session.ErrNotFound) {
		return token, err
	}

	content, err := session.ReadFile(cfgPath)
	if err != nil {
		return session.Token{}, err
	}
	in.FileContent = content
	return session.Resolve(in)
}

// loadConfig loads settings from cfgPath and the environment. When the
// token did not come from the file, an unusable file is skipped: the
// returned config then holds defaults plus AOC_* values and the error
// describes the skipped file. A nil config means the run cannot start.
func loadConfig(ctx context.Context, cfgPath string, token session.Token) (*config.Config, error) {
	cfg, err := config.Load(ctx, cfgPath)
	if err == nil {
		return cfg, nil
	}
	if token.Source == session.SourceFile || !errors.Is(err, config.ErrConfigFile) {
		return nil, err
	}

	cfg, envErr := config.Load(ctx, "")
	if envErr != nil {
		return nil, envErr
	}
	return cfg, err
}

// newRecorder connects the outcome ledger when configured. An unreachable
// Redis disables the ledger for this run instead of failing it.
func newRecorder(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (fetch.Recorder, func()) {
	if cfg.RedisAddr == "" {
		return status.Nop{}, func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, outcome ledger disabled")
		redisClient.Close()
		return status.Nop{}, func() {}
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	return status.NewRedisRecorder(redisClient, cfg.LeaderboardID, logging.NewLogger("status")), func() {
		redisClient.Close()
	}
}
