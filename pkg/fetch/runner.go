// Package fetch runs the yearly download loop: one request per year,
// strictly sequential, never retried, failures logged and skipped.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/aoc-leaderboard-fetch/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for the fetch loop.
var (
	aocFetchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aoc_fetch_outcomes_total",
		Help: "Per-year fetch outcomes by kind",
	}, []string{"outcome"})

	aocBytesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aoc_bytes_written_total",
		Help: "Total leaderboard bytes written to the output directory",
	})

	aocLastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aoc_last_run_timestamp_seconds",
		Help: "Unix time the last fetch run finished",
	})

	aocLastRunSavedYears = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aoc_last_run_saved_years",
		Help: "Number of years saved by the last fetch run",
	})
)

// Fetcher downloads one year's leaderboard.
type Fetcher interface {
	Fetch(ctx context.Context, year int) ([]byte, error)
}

// Store persists payloads.
type Store interface {
	EnsureDir() error
	WriteYear(year int, data []byte) (string, error)
	WriteManifest() (string, error)
}

// Recorder receives outcomes as they happen. Errors are logged by the
// runner and never stop the loop.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
	RecordRun(ctx context.Context, s Summary) error
}

// Config bounds a run.
type Config struct {
	// RunID tags outcomes and log lines of this run.
	RunID string

	// StartYear and EndYear are inclusive.
	StartYear int
	EndYear   int

	// WriteManifest writes files.json after the loop.
	WriteManifest bool
}

// Runner drives the per-year loop.
type Runner struct {
	fetcher  Fetcher
	store    Store
	recorder Recorder
	config   Config
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a runner.
func NewRunner(f Fetcher, s Store, cfg Config, opts ...Option) (*Runner, error) {
	if f == nil {
		return nil, errors.New("fetcher is required")
	}
	if s == nil {
		return nil, errors.New("store is required")
	}
	if cfg.EndYear < cfg.StartYear {
		return nil, fmt.Errorf("end year %d is before start year %d", cfg.EndYear, cfg.StartYear)
	}

	r := &Runner{
		fetcher:  f,
		store:    s,
		recorder: nopRecorder{},
		config:   cfg,
		logger:   log.With().Str("component", "fetch").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.RunID != "" {
		r.logger = r.logger.With().Str("run_id", cfg.RunID).Logger()
	}
	return r, nil
}

// Run creates the output directory, then fetches every year in order.
// Per-year failures are logged and recorded in the summary. The returned
// error is non-nil only if the directory cannot be created or ctx is
// cancelled before all years were attempted.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:     r.config.RunID,
		StartYear: r.config.StartYear,
		EndYear:   r.config.EndYear,
		StartedAt: r.now(),
	}

	if err := r.store.EnsureDir(); err != nil {
		return summary, err
	}

	r.logger.Info().
		Int("start_year", r.config.StartYear).
		Int("end_year", r.config.EndYear).
		Msg("Fetching leaderboards")

	// Recording outlives a cancellation so the ledger reflects what happened.
	recordCtx := context.WithoutCancel(ctx)

	var runErr error
	for year := r.config.StartYear; year <= r.config.EndYear; year++ {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().Int("next_year", year).Msg("Run cancelled")
			summary.Cancelled = true
			runErr = fmt.Errorf("run cancelled before %d: %w", year, err)
			break
		}

		outcome := r.fetchYear(ctx, year)
		summary.add(outcome)
		aocFetchOutcomesTotal.WithLabelValues(string(outcome.Kind)).Inc()

		if err := r.recorder.Record(recordCtx, outcome); err != nil {
			r.logger.Warn().Err(err).Int("year", year).Msg("Failed to record outcome")
		}
	}

	if r.config.WriteManifest {
		path, err := r.store.WriteManifest()
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to write manifest")
		} else {
			summary.ManifestPath = path
			r.logger.Debug().Str("path", path).Msg("Wrote manifest")
		}
	}

	summary.FinishedAt = r.now()
	aocLastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))
	aocLastRunSavedYears.Set(float64(summary.Saved))

	if err := r.recorder.RecordRun(recordCtx, summary); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to record run summary")
	}

	r.logger.Info().
		Int("saved", summary.Saved).
		Int("failed", summary.Failed()).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Fetch run complete")

	return summary, runErr
}

// fetchYear performs exactly one attempt for year.
func (r *Runner) fetchYear(ctx context.Context, year int) Outcome {
	outcome := Outcome{RunID: r.config.RunID, Year: year}

	body, err := r.fetcher.Fetch(ctx, year)
	outcome.FetchedAt = r.now()
	if err != nil {
		r.classify(&outcome, err)
		return outcome
	}

	path, err := r.store.WriteYear(year, body)
	if err != nil {
		outcome.Kind = KindWriteError
		outcome.Error = err.Error()
		r.logger.Error().Err(err).Int("year", year).Msg("Failed to save leaderboard")
		return outcome
	}

	outcome.Kind = KindSaved
	outcome.Path = path
	outcome.Bytes = len(body)
	aocBytesWrittenTotal.Add(float64(len(body)))

	r.logger.Info().
		Int("year", year).
		Str("path", path).
		Int("bytes", len(body)).
		Msg("Saved leaderboard")
	return outcome
}

func (r *Runner) classify(outcome *Outcome, err error) {
	outcome.Error = err.Error()

	fe, ok := client.AsFetchError(err)
	if ok && !fe.IsTransport() {
		outcome.Kind = KindHTTPError
		outcome.StatusCode = fe.StatusCode
		outcome.Reason = fe.Reason

		r.logger.Warn().
			Int("year", outcome.Year).
			Int("status", fe.StatusCode).
			Str("reason", fe.Reason).
			Str("error_class", string(fe.ErrorClass)).
			Msgf("Failed for %d: HTTP %d - %s", outcome.Year, fe.StatusCode, fe.Reason)
		return
	}

	outcome.Kind = KindTransportError
	cause := err
	if ok && fe.Err != nil {
		cause = fe.Err
		outcome.Error = fe.Err.Error()
	}

	r.logger.Error().
		Err(cause).
		Int("year", outcome.Year).
		Msgf("Error fetching %d", outcome.Year)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Outcome) error { return nil }
func (nopRecorder) RecordRun(context.Context, Summary) error { return nil }
