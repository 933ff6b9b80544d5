package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the registry served on /metrics. It is separate from the
// global default registry so tests and embedders start from a clean slate.
var Registry = prometheus.NewRegistry()

var (
	// OperationsTotal counts service operations by outcome.
	// result: ok / rejected / error
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otahub_operations_total",
			Help: "Total number of OTA hub service operations.",
		},
		[]string{"operation", "result"},
	)

	// OperationDuration records how long a unit of work takes, commit included.
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "otahub_operation_duration_seconds",
			Help:    "Latency of OTA hub service operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// UpdateTransitionsTotal counts committed lifecycle transitions by target status.
	UpdateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otahub_update_transitions_total",
			Help: "Total number of committed OTA update state changes.",
		},
		[]string{"to"},
	)

	// EventPublishTotal counts lifecycle events handed to the broker.
	// result: ok / error / dropped
	EventPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otahub_event_publish_total",
			Help: "Total number of lifecycle events published to MQTT.",
		},
		[]string{"result"},
	)
)

// Operation outcomes.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultDropped  = "dropped"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		OperationsTotal,
		OperationDuration,
		UpdateTransitionsTotal,
		EventPublishTotal,
	)
}
