package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "record_agent"

// Registry holds every collector exported by the service.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	ToolInvocations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Tool adapter invocations by capability and outcome.",
	}, []string{"tool", "outcome"})

	ToolDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tool_duration_seconds",
		Help:      "Tool adapter latency by capability.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	Resequenced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "medicine_resequenced_records_total",
		Help:      "Medicine records whose id changed during a delete resequencing pass.",
	})

	IDConflicts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "id_conflicts_total",
		Help:      "Id assignment collisions detected and retried.",
	}, []string{"collection"})

	Dispatches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatches_total",
		Help:      "Dispatch agent runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Outcome labels a result for the counters above.
func Outcome(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}
