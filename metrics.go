package grove

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the optional prometheus collectors. A nil *metrics records
// nothing.
type metrics struct {
	resolutions *prometheus.CounterVec
	activation  *prometheus.HistogramVec
	stops       *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}

	m := &metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grove",
			Name:      "resolutions_total",
			Help:      "Completed service resolutions by outcome.",
		}, []string{"service", "outcome"}),
		activation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grove",
			Name:      "activation_seconds",
			Help:      "Time from factory invocation until the instance is ready.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grove",
			Name:      "stops_total",
			Help:      "Stop calls made during shutdown by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.resolutions, m.activation, m.stops)
	return m
}

func (m *metrics) resolved(service string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resolutions.WithLabelValues(service, outcome).Inc()
}

func (m *metrics) activated(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.activation.WithLabelValues(service).Observe(d.Seconds())
}

func (m *metrics) stopped(outcome string) {
	if m == nil {
		return
	}
	m.stops.WithLabelValues(outcome).Inc()
}
