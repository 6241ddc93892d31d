// Package metrics exposes the Prometheus registry used by the fetcher and
// exports it for a batch job. Metrics are defined in the packages that own
// them (client, fetch, status) to keep those packages self-contained.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer collects every metric registered via promauto in client, fetch
// and status.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every gathered metric to path in the text
// exposition format, for node_exporter's textfile collector. The parent
// directory is created if needed; the file is replaced atomically.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(Gatherer, path)
}

// WriteTextfileFrom is WriteTextfile with an explicit gatherer.
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return fmt.Errorf("metrics textfile path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - aoc_requests_total{status} (Counter): requests by HTTP status, "network_error" when no response
//   - aoc_request_duration_seconds (Histogram): request duration including body read
//   - aoc_errors_total{class} (Counter): errors by class (client, server, unexpected, network)
//
// Loop Metrics (pkg/fetch):
//   - aoc_fetch_outcomes_total{outcome} (Counter): saved, http_error, transport_error, write_error
//   - aoc_bytes_written_total (Counter): payload bytes written
//   - aoc_last_run_timestamp_seconds (Gauge): when the last run finished
//   - aoc_last_run_saved_years (Gauge): years saved by the last run
//
// Ledger Metrics (pkg/status):
//   - aoc_ledger_errors_total{operation} (Counter): Redis write failures
//
// Example Prometheus Queries:
//
//   # Leaderboard not refreshed for a day
//   time() - aoc_last_run_timestamp_seconds > 86400
//
//   # Session expired (AoC answers 400/redirect when the cookie is stale)
//   increase(aoc_errors_total{class="client"}[1d]) > 0
