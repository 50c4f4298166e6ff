// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Detection metrics
	BlocksProcessed        prometheus.Counter
	SwapsExtracted         prometheus.Counter
	AttacksDetected        prometheus.Counter
	AttacksEmitted         prometheus.Counter
	UnknownPrograms        prometheus.Counter
	DecodeErrors           *prometheus.CounterVec
	EmitErrors             prometheus.Counter
	VictimsPerAttack       prometheus.Histogram
	BlockProcessingLatency prometheus.Histogram

	// Pipeline metrics
	ReorderBufferSize prometheus.Gauge
	HighestSlotSeen   prometheus.Gauge
	LastEmittedSlot   prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Health metrics
	LastSuccessfulBlock prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sandwich_watch"
	}

	return &Metrics{
		BlocksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "blocks_processed_total",
			Help:      "Total number of blocks run through detection",
		}),
		SwapsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "swaps_extracted_total",
			Help:      "Total number of swap events extracted from transactions",
		}),
		AttacksDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "attacks_detected_total",
			Help:      "Total number of sandwich attacks detected",
		}),
		AttacksEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "attacks_emitted_total",
			Help:      "Total number of attack records upserted to the sink",
		}),
		UnknownPrograms: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "unknown_programs_total",
			Help:      "Total number of instructions skipped for unknown program ids",
		}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "decode_errors_total",
			Help:      "Total number of malformed instructions by program",
		}, []string{"program"}),
		EmitErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "emit_errors_total",
			Help:      "Total number of failed attack sink writes",
		}),
		VictimsPerAttack: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "victims_per_attack",
			Help:      "Distribution of victim transaction counts per attack",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		BlockProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "block_processing_latency_seconds",
			Help:      "Per-block detection pass latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		ReorderBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reorder_buffer_size",
			Help:      "Current number of completed blocks waiting for slot-ordered release",
		}),
		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "highest_slot_seen",
			Help:      "Highest Solana slot number scheduled for processing",
		}),
		LastEmittedSlot: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_emitted_slot",
			Help:      "Slot of the most recently emitted block",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls by method",
		}, []string{"method"}),

		LastSuccessfulBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_block_timestamp",
			Help:      "Unix timestamp of the last successfully processed block",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
