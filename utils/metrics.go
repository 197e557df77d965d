package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// handler is the endpoint, type is the error class
	ErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_errors_total",
			Help: "Total app errors",
		},
		[]string{"handler", "type"},
	)

	EntityMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_entity_mutations_total",
			Help: "Atomic entity mutations by outcome",
		},
		[]string{"kind", "result"},
	)

	EntityMutationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "app_entity_mutation_duration_seconds",
			Help:    "Time spent inside one atomic read-modify-write, lock wait included",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"kind"},
	)

	JournalEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_journal_entries_total",
			Help: "Journal entries logged, by craving or slip",
		},
		[]string{"kind"},
	)

	Pledges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_pledges_total",
			Help: "Pledge submissions by streak transition",
		},
		[]string{"result"},
	)

	CelebrationsShown = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_celebrations_shown_total",
			Help: "Celebrations moved into the showing slot",
		},
		[]string{"category"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(
		ReqCount,
		ReqDuration,
		ErrorCount,
		EntityMutations,
		EntityMutationDuration,
		JournalEntries,
		Pledges,
		CelebrationsShown,
	)
}
