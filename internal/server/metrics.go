package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthqa_chat_requests_total",
		Help: "Chat requests by outcome (clarification, answered, degraded, error).",
	}, []string{"outcome"})

	retrievalEmpty = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthqa_retrieval_empty_total",
		Help: "Requests where retrieval returned no passages.",
	})

	evidenceGraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthqa_evidence_graded_total",
		Help: "Passages graded across all requests.",
	})

	chatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthqa_chat_duration_seconds",
		Help:    "End-to-end chat request latency.",
		Buckets: prometheus.DefBuckets,
	})
)
