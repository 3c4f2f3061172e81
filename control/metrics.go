package control

import "github.com/prometheus/client_golang/prometheus"

type controllerMetrics struct {
	subscriptions prometheus.Gauge
	evaluations   *prometheus.CounterVec
	duration      prometheus.Histogram
}

func newControllerMetrics() *controllerMetrics {
	const namespace = "tql"
	const subsystem = "control"

	return &controllerMetrics{
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "subscriptions_active",
			Help:      "Number of live dashboard subscriptions.",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evaluations_total",
			Help:      "Count of refresh evaluations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating a subscription's program.",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 5, 7),
		}),
	}
}

func (m *controllerMetrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.subscriptions,
		m.evaluations,
		m.duration,
	}
}
