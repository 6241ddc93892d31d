package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/fetch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HistorySize caps the runs list.
const HistorySize = 50

// ErrNoRun is returned by LastRun before any run was recorded.
var ErrNoRun = errors.New("no run recorded")

var ledgerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aoc_ledger_errors_total",
	Help: "Total outcome ledger write errors by operation",
}, []string{"operation"})

// Keys groups the Redis keys of one leaderboard.
type Keys struct {
	Years   string
	Saved   string
	LastRun string
	Runs    string
}

// KeysFor returns the ledger keys for leaderboardID.
func KeysFor(leaderboardID string) Keys {
	prefix := "aoc:leaderboard:" + leaderboardID
	return Keys{
		Years:   prefix + ":years",
		Saved:   prefix + ":saved",
		LastRun: prefix + ":last_run",
		Runs:    prefix + ":runs",
	}
}

// RedisRecorder writes outcomes to Redis.
type RedisRecorder struct {
	redis  *redis.Client
	keys   Keys
	logger zerolog.Logger
}

// NewRedisRecorder creates a recorder for leaderboardID.
func NewRedisRecorder(redisClient *redis.Client, leaderboardID string, logger zerolog.Logger) *RedisRecorder {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisRecorder{
		redis:  redisClient,
		keys:   KeysFor(leaderboardID),
		logger: logger,
	}
}

// Record stores o as the latest outcome of its year, and as the latest
// successful one when it was saved.
func (r *RedisRecorder) Record(ctx context.Context, o fetch.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		ledgerErrorsTotal.WithLabelValues("record").Inc()
		return fmt.Errorf("marshal outcome: %w", err)
	}

	field := strconv.Itoa(o.Year)
	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, r.keys.Years, field, data)
	if o.OK() {
		pipe.HSet(ctx, r.keys.Saved, field, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		ledgerErrorsTotal.WithLabelValues("record").Inc()
		return fmt.Errorf("store outcome in redis: %w", err)
	}

	r.logger.Debug().
		Int("year", o.Year).
		Str("kind", string(o.Kind)).
		Msg("Recorded outcome")
	return nil
}

// RecordRun stores the run summary and prepends it to the capped history.
// Per-year outcomes are dropped from the stored summary; they live in the
// years hash.
func (r *RedisRecorder) RecordRun(ctx context.Context, s fetch.Summary) error {
	s.Outcomes = nil
	data, err := json.Marshal(s)
	if err != nil {
		ledgerErrorsTotal.WithLabelValues("record_run").Inc()
		return fmt.Errorf("marshal summary: %w", err)
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, r.keys.LastRun, data, 0)
	pipe.LPush(ctx, r.keys.Runs, data)
	pipe.LTrim(ctx, r.keys.Runs, 0, HistorySize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		ledgerErrorsTotal.WithLabelValues("record_run").Inc()
		return fmt.Errorf("store run summary in redis: %w", err)
	}

	r.logger.Info().
		Str("run_id", s.RunID).
		Int("saved", s.Saved).
		Int("failed", s.Failed()).
		Msg("Recorded run summary")
	return nil
}

// Years returns the latest outcome per year, ascending by year.
func (r *RedisRecorder) Years(ctx context.Context) ([]fetch.Outcome, error) {
	return r.readHash(ctx, r.keys.Years)
}

// SavedYears returns the latest successful outcome per year, ascending by year.
func (r *RedisRecorder) SavedYears(ctx context.Context) ([]fetch.Outcome, error) {
	return r.readHash(ctx, r.keys.Saved)
}

// LastRun returns the most recent run summary, or ErrNoRun.
func (r *RedisRecorder) LastRun(ctx context.Context) (*fetch.Summary, error) {
	data, err := r.redis.Get(ctx, r.keys.LastRun).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoRun
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s fetch.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse run summary: %w", err)
	}
	return &s, nil
}

// Runs returns up to HistorySize summaries, newest first.
func (r *RedisRecorder) Runs(ctx context.Context) ([]fetch.Summary, error) {
	items, err := r.redis.LRange(ctx, r.keys.Runs, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	runs := make([]fetch.Summary, 0, len(items))
	for _, item := range items {
		var s fetch.Summary
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("parse run summary: %w", err)
		}
		runs = append(runs, s)
	}
	return runs, nil
}

func (r *RedisRecorder) readHash(ctx context.Context, key string) ([]fetch.Outcome, error) {
	values, err := r.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	outcomes := make([]fetch.Outcome, 0, len(values))
	for field, raw := range values {
		var o fetch.Outcome
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("parse outcome for %s: %w", field, err)
		}
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Year < outcomes[j].Year })
	return outcomes, nil
}

// Nop discards everything. Used when no ledger is configured.
type Nop struct{}

// Record implements fetch.Recorder.
func (Nop) Record(context.Context, fetch.Outcome) error { return nil }

// RecordRun implements fetch.Recorder.
func (Nop) RecordRun(context.Context, fetch.Summary) error { return nil }

var (
	_ fetch.Recorder = (*RedisRecorder)(nil)
	_ fetch.Recorder = Nop{}
)
