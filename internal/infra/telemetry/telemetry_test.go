package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPolicyMetricsObserveDecision(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewPolicyMetrics(PolicyMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("NewPolicyMetrics: %v", err)
	}

	metrics.ObserveDecision("STUDENT", "UPDATE", "student", false)
	metrics.ObserveDecision("STUDENT", "UPDATE", "student", false)
	metrics.ObserveDecision("TEACHER", "DELETE", "course", true)

	if got := testutil.ToFloat64(metrics.Decisions.WithLabelValues("STUDENT", "UPDATE", "student", OutcomeDenied)); got != 2 {
		t.Fatalf("expected 2 denied decisions, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Decisions.WithLabelValues("TEACHER", "DELETE", "course", OutcomeAllowed)); got != 1 {
		t.Fatalf("expected 1 allowed decision, got %f", got)
	}
}

func TestPolicyMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := NewPolicyMetrics(PolicyMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("first NewPolicyMetrics: %v", err)
	}
	second, err := NewPolicyMetrics(PolicyMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("second NewPolicyMetrics: %v", err)
	}

	second.ObserveMutation("student", "created")
	if got := testutil.ToFloat64(first.Mutations.WithLabelValues("student", "created")); got != 1 {
		t.Fatalf("expected shared collector, got %f", got)
	}
}

func TestPolicyMetricsNilSafe(t *testing.T) {
	var metrics *PolicyMetrics
	metrics.ObserveDecision("TEACHER", "LIST", "course", true)
	metrics.ObserveMutation("course", "deleted")
}
