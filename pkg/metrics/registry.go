package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RegistryMetrics records counters for the ownership and status engine.
type RegistryMetrics struct {
	statusTransitions *prometheus.CounterVec
	transitionDenied  *prometheus.CounterVec
	dealDecisions     *prometheus.CounterVec
	decisionDuration  *prometheus.HistogramVec
	conflicts         prometheus.Counter
}

// NewRegistryMetrics registers the engine metrics on the provided registerer.
func NewRegistryMetrics(reg prometheus.Registerer) *RegistryMetrics {
	if reg == nil {
		return &RegistryMetrics{}
	}
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_status_transitions_total",
		Help: "Committed product status transitions.",
	}, []string{"from", "to"})
	transitionDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_status_transitions_denied_total",
		Help: "Status transitions rejected by the lattice or authorization.",
	}, []string{"reason"})
	dealDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deal_decisions_total",
		Help: "Admin deal decisions by outcome.",
	}, []string{"decision"})
	decisionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deal_decision_duration_seconds",
		Help:    "Duration of deal decision transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"decision"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "concurrent_modification_conflicts_total",
		Help: "Write conflicts surfaced to callers as retryable errors.",
	})
	reg.MustRegister(statusTransitions, transitionDenied, dealDecisions, decisionDuration, conflicts)
	return &RegistryMetrics{
		statusTransitions: statusTransitions,
		transitionDenied:  transitionDenied,
		dealDecisions:     dealDecisions,
		decisionDuration:  decisionDuration,
		conflicts:         conflicts,
	}
}

// IncStatusTransition records a committed status change.
func (m *RegistryMetrics) IncStatusTransition(from, to string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncTransitionDenied records a rejected status change.
func (m *RegistryMetrics) IncTransitionDenied(reason string) {
	if m == nil || m.transitionDenied == nil {
		return
	}
	m.transitionDenied.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDealDecision records an admin decision outcome.
func (m *RegistryMetrics) IncDealDecision(decision string) {
	if m == nil || m.dealDecisions == nil {
		return
	}
	m.dealDecisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// ObserveDecisionDuration records how long a decision transaction took.
func (m *RegistryMetrics) ObserveDecisionDuration(decision string, duration time.Duration) {
	if m == nil || m.decisionDuration == nil {
		return
	}
	m.decisionDuration.WithLabelValues(normalizeLabel(decision)).Observe(duration.Seconds())
}

// IncConflict records a concurrent modification surfaced to a caller.
func (m *RegistryMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
