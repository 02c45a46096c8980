package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Total number of wizard step transitions",
		},
		[]string{"action", "from", "to"},
	)

	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_generation_requests_total",
			Help: "Total number of narrative generation requests by outcome",
		},
		[]string{"field", "outcome"},
	)

	GenerationsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wizard_generations_in_flight",
			Help: "Number of generation requests currently in flight per field",
		},
		[]string{"field"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"outcome"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_persistence_failures_total",
			Help: "Total number of failed snapshot operations",
		},
		[]string{"backend", "op"},
	)

	CollaboratorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wizard_collaborator_call_duration_seconds",
			Help:    "Duration of calls to external collaborators in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collaborator", "outcome"},
	)
)

// HandlerFor serves the default registry merged with extra gatherers, such as
// the registry the OpenTelemetry exporter writes to.
func HandlerFor(extra ...prometheus.Gatherer) http.Handler {
	gatherers := append(prometheus.Gatherers{prometheus.DefaultGatherer}, extra...)
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}
