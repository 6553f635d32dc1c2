// Package metrics provides Prometheus metrics for the stockmatch service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stockmatch/backend/internal/domain"
)

// Match outcome label values
const (
	OutcomeMatched = "matched"
	OutcomeFlagged = "flagged"
	OutcomeNoMatch = "no_match"
)

var (
	// MatchRequestsTotal tracks completed match requests by outcome
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockmatch",
			Name:      "match_requests_total",
			Help:      "Total number of completed match requests by outcome",
		},
		[]string{"outcome"},
	)

	// ReviewFlagsTotal tracks raised review flags by issue type
	ReviewFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockmatch",
			Name:      "review_flags_total",
			Help:      "Total number of review flags raised by issue type",
		},
		[]string{"issue_type"},
	)

	// FilterDepth tracks how many hierarchy levels narrowed the candidate set
	FilterDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stockmatch",
			Name:      "filter_depth",
			Help:      "Number of hierarchy levels applied per match",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8},
		},
	)

	// MatchDuration tracks match latency in seconds
	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stockmatch",
			Name:      "match_duration_seconds",
			Help:      "Duration of match requests in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// CatalogErrorsTotal tracks catalog read failures
	CatalogErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockmatch",
			Name:      "catalog_errors_total",
			Help:      "Total number of catalog read failures",
		},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockmatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockmatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// Recorder implements domain.MatchRecorder on the package collectors
type Recorder struct{}

// NewRecorder returns a recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveMatch records one completed match
func (Recorder) ObserveMatch(result *domain.MatchResult, duration time.Duration) {
	MatchRequestsTotal.WithLabelValues(Outcome(result)).Inc()
	for _, flag := range result.Flags {
		ReviewFlagsTotal.WithLabelValues(flag.IssueType.String()).Inc()
	}
	FilterDepth.Observe(float64(result.AppliedDepth))
	MatchDuration.Observe(duration.Seconds())
}

// ObserveCatalogError records one catalog read failure
func (Recorder) ObserveCatalogError() {
	CatalogErrorsTotal.Inc()
}

// Outcome classifies a match result for the outcome label
func Outcome(result *domain.MatchResult) string {
	switch {
	case len(result.Matches) == 0:
		return OutcomeNoMatch
	case len(result.Flags) > 0:
		return OutcomeFlagged
	default:
		return OutcomeMatched
	}
}
