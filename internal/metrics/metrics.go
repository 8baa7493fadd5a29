package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed counts reduced events by event name.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rawrshak",
		Subsystem: "indexer",
		Name:      "events_processed_total",
		Help:      "Number of contract events reduced into the entity store.",
	}, []string{"event"})

	// SkippedLogs counts logs dropped before reduction (unknown topic,
	// removed by reorg).
	SkippedLogs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rawrshak",
		Subsystem: "indexer",
		Name:      "skipped_logs_total",
		Help:      "Number of fetched logs skipped before reduction.",
	}, []string{"reason"})

	// ReduceErrors counts events whose reduction failed.
	ReduceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rawrshak",
		Subsystem: "indexer",
		Name:      "reduce_errors_total",
		Help:      "Number of events that failed to reduce.",
	})

	// LastReducedBlock tracks indexing progress.
	LastReducedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rawrshak",
		Subsystem: "indexer",
		Name:      "last_reduced_block",
		Help:      "Highest block number whose logs have been reduced.",
	})
)
