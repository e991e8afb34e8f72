package metrics

import (
	"context"
	"time"
)

// Load levels reported by the performance service
const (
	LoadLow    = "low"
	LoadMedium = "medium"
	LoadHigh   = "high"
)

// Metrics represents the current state of the demo server.
type Metrics struct {
	// RequestCount is the number of inbound HTTP requests served
	RequestCount int64 `json:"request_count"`

	// ErrorCount is the number of requests answered with a 4xx or 5xx status
	ErrorCount int64 `json:"error_count"`

	// RequestsPerMinute is the request rate over the last minute
	RequestsPerMinute float64 `json:"requests_per_minute"`

	// LoadLevel classifies RequestsPerMinute
	LoadLevel string `json:"load_level"`

	// WebhooksStored is the number of webhooks currently retained
	WebhooksStored int64 `json:"webhooks_stored"`

	// DemoRuns is the number of orchestrator runs started
	DemoRuns int64 `json:"demo_runs"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the server.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)
}

// LoadLevel maps a request rate to a load level
func LoadLevel(perMinute float64) string {
	switch {
	case perMinute >= 300:
		return LoadHigh
	case perMinute >= 60:
		return LoadMedium
	default:
		return LoadLow
	}
}
