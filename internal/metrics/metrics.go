package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation outcomes.
const (
	OutcomeHit        = "hit"
	OutcomeEmpty      = "empty"
	OutcomeIneligible = "ineligible"
)

// Note lifecycle metrics
var (
	NotesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diary_notes_published_total",
		Help: "Total notes published",
	})

	NotesUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diary_notes_updated_total",
		Help: "Total notes updated",
	})

	NotesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diary_notes_deleted_total",
		Help: "Total notes deleted",
	})

	NoteLikes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diary_note_likes_total",
		Help: "Total notes liked by a partner",
	})

	// RecommendationsTotal counts recommendation requests by outcome (hit/empty/ineligible)
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)
)

// Collaborator metrics
var (
	// SentimentDuration tracks sentiment oracle latency in seconds
	SentimentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diary_sentiment_request_duration_seconds",
			Help:    "Sentiment oracle request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "status"},
	)

	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	PushFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_push_failures_total",
			Help: "Push notifications that could not be delivered",
		},
		[]string{"provider"},
	)
)

// HTTP metrics
var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diary_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
