package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowTransitions counts submission workflow operations by outcome.
var WorkflowTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Submission workflow operations, partitioned by action and result.",
	},
	[]string{"action", "result"},
)

// LedgerPostings counts cash-flow upserts triggered by realization reports.
var LedgerPostings = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_postings_total",
		Help: "Ledger entries written by realization reports, partitioned by operation.",
	},
	[]string{"op"},
)

var RequestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "requests_total",
		Help: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	},
	[]string{"code", "method", "url"},
)

var RequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "request_duration_seconds",
		Help: "The HTTP request latencies in seconds.",
	},
	[]string{"code", "method", "url"},
)

var collectors = []prometheus.Collector{
	WorkflowTransitions,
	LedgerPostings,
	RequestCount,
	RequestDuration,
}

// Register adds all collectors to reg. Collectors that are already
// registered are skipped so tests can build several routers.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("could not register %s with Prometheus: %w", c, err)
		}
	}
	return nil
}

// Result labels a workflow outcome from its error.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
