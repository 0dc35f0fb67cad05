// Package metrics exposes Prometheus metrics about simulation trials.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FinalTotalBuckets spans indebted to comfortably wealthy outcomes.
var FinalTotalBuckets = []float64{-1e6, -1e5, 0, 1e5, 2.5e5, 5e5, 1e6, 2.5e6, 5e6, 1e7}

// Collector records trial outcomes on its own registry. It satisfies
// montecarlo.Observer.
type Collector struct {
	registry      *prometheus.Registry
	trials        *prometheus.CounterVec
	trialsFailed  *prometheus.CounterVec
	trialDuration prometheus.Histogram
	finalTotal    *prometheus.HistogramVec
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		trials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcfolio_trials_total",
			Help: "Number of executed portfolio trials",
		}, []string{"portfolio"}),
		trialsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcfolio_trials_failed_total",
			Help: "Number of portfolio trials whose schedule failed",
		}, []string{"portfolio"}),
		trialDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mcfolio_trial_duration_seconds",
			Help:    "Time taken to execute one portfolio schedule",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		finalTotal: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcfolio_final_total",
			Help:    "Total value of a portfolio at the end of a trial",
			Buckets: FinalTotalBuckets,
		}, []string{"portfolio"}),
	}
}

func (c *Collector) ObserveTrial(portfolio string, d time.Duration, final float64, err error) {
	c.trials.WithLabelValues(portfolio).Inc()
	c.trialDuration.Observe(d.Seconds())
	if err != nil {
		c.trialsFailed.WithLabelValues(portfolio).Inc()
		return
	}
	c.finalTotal.WithLabelValues(portfolio).Observe(final)
}

// WriteTextfile writes the current metrics in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
