package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout regroupe les compteurs du tunnel de commande. Un *Checkout nil est
// accepté partout (tests, métriques désactivées).
type Checkout struct {
	Initiations *prometheus.CounterVec
	Steps       *prometheus.CounterVec
	Outcomes    *prometheus.CounterVec
	StepLatency *prometheus.HistogramVec
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		Initiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "initiations_total",
			Help:      "Checkout initiations by payment method and result.",
		}, []string{"method", "result"}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "finalization_steps_total",
			Help:      "Finalization step attempts by step and result.",
		}, []string{"step", "result"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout outcomes by state.",
		}, []string{"state"}),
		StepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "finalization_step_duration_ms",
			Help:      "Finalization step latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}, []string{"step"}),
	}
	if reg != nil {
		reg.MustRegister(m.Initiations, m.Steps, m.Outcomes, m.StepLatency)
	}
	return m
}

func (m *Checkout) Initiation(method, result string) {
	if m == nil {
		return
	}
	m.Initiations.WithLabelValues(method, result).Inc()
}

func (m *Checkout) Step(step string, ok bool, durationMS float64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Steps.WithLabelValues(step, result).Inc()
	m.StepLatency.WithLabelValues(step).Observe(durationMS)
}

func (m *Checkout) Outcome(state string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(state).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
