package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// enabled is checked by the constructor functions for all of the
// standard metrics. If it is false, the metric returned is nil and
// callers must guard their updates.
var enabled = true

func EnableMetrics() {
	enabled = true
}

func DisableMetrics() {
	enabled = false
}

func MetricsEnabled() bool {
	return enabled
}

// NewGaugeVec constructs and registers a labelled gauge vector.
func NewGaugeVec(name string, help string) *prometheus.GaugeVec {
	if !enabled {
		return nil
	}
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{"label"})
	prometheus.MustRegister(gaugeVec)
	return gaugeVec
}

// NewGauge constructs and registers a gauge.
func NewGauge(name string, help string) prometheus.Gauge {
	if !enabled {
		return nil
	}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
	prometheus.MustRegister(gauge)
	return gauge
}

// NewCounter constructs and registers a counter.
func NewCounter(name string, help string) prometheus.Counter {
	if !enabled {
		return nil
	}
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	})
	prometheus.MustRegister(counter)
	return counter
}

// StartMetricsServer exposes the prometheus registry over HTTP. It blocks, so
// callers run it on its own goroutine.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
