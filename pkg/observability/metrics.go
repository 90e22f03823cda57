package observability

import (
	"context"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	Diagnostics *prometheus.CounterVec
	Recoveries  *prometheus.CounterVec
	Generations *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fable_diagnostics_total",
				Help: "Diagnostics reported during resolution, assembly and recovery",
			},
			[]string{"phase", "kind"},
		),
		Recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fable_recoveries_total",
				Help: "Output recoveries by the stage that succeeded",
			},
			[]string{"stage"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fable_generations_total",
				Help: "Generator calls by outcome",
			},
			[]string{"outcome"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fable_generation_duration_seconds",
				Help:    "Duration of generator calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{m.Diagnostics, m.Recoveries, m.Generations, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns hooks that record into the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnResolve: func(ctx context.Context, e *domain.ResolveEvent) {
			m.diagnostics("resolve", e.Diagnostics)
		},
		OnAssemble: func(ctx context.Context, e *domain.AssembleEvent) {
			m.diagnostics("assemble", e.Diagnostics)
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.Generations.WithLabelValues(outcome).Inc()
			m.Duration.Observe(e.Duration.Seconds())
		},
		OnRecover: func(ctx context.Context, e *domain.RecoverEvent) {
			m.Recoveries.WithLabelValues(string(e.Stage)).Inc()
			m.diagnostics("recover", e.Diagnostics)
		},
	}
}

func (m *Metrics) diagnostics(phase string, diags []domain.Diagnostic) {
	for _, d := range diags {
		m.Diagnostics.WithLabelValues(phase, string(d.Kind)).Inc()
	}
}
