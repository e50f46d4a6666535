package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Decision outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// PolicyMetricsOptions configures the access policy collectors.
type PolicyMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
}

// PolicyMetrics counts access decisions and record mutations.
type PolicyMetrics struct {
	Decisions *prometheus.CounterVec
	Mutations *prometheus.CounterVec
}

// NewPolicyMetrics builds and registers the collectors, reusing ones already registered.
func NewPolicyMetrics(opts PolicyMetricsOptions) (*PolicyMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "records"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	decisions, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_decisions_total",
		Help:      "Access policy decisions partitioned by role, action, kind, and outcome.",
	}, []string{"role", "action", "kind", "outcome"})
	if err != nil {
		return nil, err
	}

	mutations, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_mutations_total",
		Help:      "Committed record mutations partitioned by kind and change.",
	}, []string{"kind", "change"})
	if err != nil {
		return nil, err
	}

	return &PolicyMetrics{Decisions: decisions, Mutations: mutations}, nil
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) (*prometheus.CounterVec, error) {
	vec := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("existing %s collector has unexpected type %T", opts.Name, already.ExistingCollector)
		}
		return nil, fmt.Errorf("register %s collector: %w", opts.Name, err)
	}
	return vec, nil
}

// ObserveDecision records a single access decision.
func (m *PolicyMetrics) ObserveDecision(role, action, kind string, allowed bool) {
	if m == nil || m.Decisions == nil {
		return
	}
	outcome := OutcomeDenied
	if allowed {
		outcome = OutcomeAllowed
	}
	m.Decisions.WithLabelValues(role, action, kind, outcome).Inc()
}

// ObserveMutation records a committed create, update or delete.
func (m *PolicyMetrics) ObserveMutation(kind, change string) {
	if m == nil || m.Mutations == nil {
		return
	}
	m.Mutations.WithLabelValues(kind, change).Inc()
}
