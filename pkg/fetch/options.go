package fetch

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder sets the sink receiving every outcome and the run summary.
func WithRecorder(r Recorder) Option {
	return func(rn *Runner) {
		if r != nil {
			rn.recorder = r
		}
	}
}

// WithLogger overrides the runner's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(rn *Runner) {
		rn.logger = l
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(rn *Runner) {
		if now != nil {
			rn.now = now
		}
	}
}
