package fetch

import (
	"time"
)

// Kind classifies the result of one year's fetch.
type Kind string

const (
	// KindSaved means the payload was fetched and written.
	KindSaved Kind = "saved"

	// KindHTTPError means the server answered with a status other than 200.
	KindHTTPError Kind = "http_error"

	// KindTransportError means no complete response was received.
	KindTransportError Kind = "transport_error"

	// KindWriteError means the payload was fetched but could not be written.
	KindWriteError Kind = "write_error"
)

// Outcome is the result of fetching one year.
type Outcome struct {
	RunID      string    `json:"run_id"`
	Year       int       `json:"year"`
	Kind       Kind      `json:"kind"`
	Path       string    `json:"path,omitempty"`
	Bytes      int       `json:"bytes,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// OK reports whether the year was saved.
func (o Outcome) OK() bool {
	return o.Kind == KindSaved
}

// Summary aggregates one run.
type Summary struct {
	RunID           string    `json:"run_id"`
	StartYear       int       `json:"start_year"`
	EndYear         int       `json:"end_year"`
	Saved           int       `json:"saved"`
	HTTPErrors      int       `json:"http_errors"`
	TransportErrors int       `json:"transport_errors"`
	WriteErrors     int       `json:"write_errors"`
	Cancelled       bool      `json:"cancelled,omitempty"`
	ManifestPath    string    `json:"manifest_path,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Outcomes        []Outcome `json:"outcomes"`
}

// Failed returns the number of years that were not saved.
func (s *Summary) Failed() int {
	return s.HTTPErrors + s.TransportErrors + s.WriteErrors
}

func (s *Summary) add(o Outcome) {
	switch o.Kind {
	case KindSaved:
		s.Saved++
	case KindHTTPError:
		s.HTTPErrors++
	case KindTransportError:
		s.TransportErrors++
	case KindWriteError:
		s.WriteErrors++
	}
	s.Outcomes = append(s.Outcomes, o)
}
