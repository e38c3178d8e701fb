package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Signups           *prometheus.CounterVec
	Submissions       *prometheus.CounterVec
	WizardTransitions *prometheus.CounterVec
	BioGenerations    *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Signups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Account signups by result.",
		}, []string{"result"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_profile_submissions_total",
			Help: "Profile submissions by the last stage reached.",
		}, []string{"stage", "source"}),
		WizardTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_wizard_transitions_total",
			Help: "Wizard step transitions by action and result.",
		}, []string{"action", "result"}),
		BioGenerations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_bio_generations_total",
			Help: "Bio generation attempts by result.",
		}, []string{"result"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_events_published_total",
			Help: "Events handed to the publisher by type and result.",
		}, []string{"type", "result"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Result maps an error to a "success"/"error" label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
