// Package metrics collects message-processing counters on a private
// Prometheus registry. The supervisor publishes a Snapshot of the registry
// on the metrics subject at each health interval.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed messages.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Metrics aggregates the service counters. Safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal        *prometheus.CounterVec
	QueriesTotal         *prometheus.CounterVec
	DialogMessagesTotal  *prometheus.CounterVec
	EventsPublishedTotal prometheus.Counter
	ActiveDialogs        prometheus.Gauge
}

// New builds a Metrics set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archon",
			Name:      "commands_total",
			Help:      "Commands processed, by type and outcome.",
		}, []string{"command_type", "outcome"}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archon",
			Name:      "queries_total",
			Help:      "Queries answered, by type and outcome.",
		}, []string{"query_type", "outcome"}),
		DialogMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archon",
			Name:      "dialog_messages_total",
			Help:      "Dialog messages processed, by outcome.",
		}, []string{"outcome"}),
		EventsPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "archon",
			Name:      "events_published_total",
			Help:      "Events published on the bus.",
		}),
		ActiveDialogs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "archon",
			Name:      "active_dialogs",
			Help:      "Dialogs currently tracked in memory.",
		}),
	}
	m.registry.MustRegister(
		m.CommandsTotal,
		m.QueriesTotal,
		m.DialogMessagesTotal,
		m.EventsPublishedTotal,
		m.ActiveDialogs,
	)
	return m
}

// Registry exposes the underlying registry for embedders that scrape.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Snapshot gathers every metric into a flat name -> value map suitable for
// publishing as a JSON payload. Labeled series are keyed
// name{label="value",...}.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			key := fam.GetName()
			if labels := metric.GetLabel(); len(labels) > 0 {
				key += "{"
				for i, l := range labels {
					if i > 0 {
						key += ","
					}
					key += l.GetName() + `="` + l.GetValue() + `"`
				}
				key += "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}
