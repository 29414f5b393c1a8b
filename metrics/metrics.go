// Package metrics records sweep progress and sampler statistics in a Prometheus registry.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fumin/isingchain"
)

const namespace = "isingchain"

// Metrics is a set of collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	points       *prometheus.CounterVec
	pointSeconds *prometheus.HistogramVec
	notConverged *prometheus.CounterVec
	proposals    prometheus.Counter
	accepted     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	m.points = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "points_total",
		Help:      "Number of evaluated sweep points.",
	}, []string{"method"})
	m.pointSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "point_seconds",
		Help:      "Time to evaluate a sweep point.",
		Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 12),
	}, []string{"method"})
	m.notConverged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "not_converged_total",
		Help:      "Number of sweep points whose chains hit the proposal limit.",
	}, []string{"method"})
	m.proposals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proposals_total",
		Help:      "Number of proposed Metropolis spin flips.",
	})
	m.accepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accepted_total",
		Help:      "Number of accepted Metropolis spin flips.",
	})
	m.Registry.MustRegister(m.points, m.pointSeconds, m.notConverged, m.proposals, m.accepted)
	return m
}

// ObservePoint records that a point of method took d.
func (m *Metrics) ObservePoint(method string, d time.Duration) {
	m.points.WithLabelValues(method).Inc()
	m.pointSeconds.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveNotConverged records a point of method abandoned at the proposal limit.
func (m *Metrics) ObserveNotConverged(method string) {
	m.notConverged.WithLabelValues(method).Inc()
}

// AddSamples adds the proposal counts of Metropolis runs.
func (m *Metrics) AddSamples(samples ...isingchain.Sample) {
	for _, s := range samples {
		m.proposals.Add(float64(s.Proposals))
		m.accepted.Add(float64(s.Accepted))
	}
}

// WriteTextfile writes the metrics in the text exposition format for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
