// Package metrics counts pipeline work for batch runs. Counters are
// registered on a private registry and written once at the end of a command
// in the node-exporter textfile format.
package metrics

import (
	"github.com/carbocation/pfx"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fishnet"

// Collector holds the run's counters. A nil *Collector is valid and
// records nothing.
type Collector struct {
	Registry *prometheus.Registry

	modulesEvaluated prometheus.Counter
	modulesSkipped   *prometheus.CounterVec
	replicates       *prometheus.CounterVec
	thresholds       prometheus.Counter
}

// New registers a fresh set of counters.
func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		modulesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_evaluated_total",
			Help:      "Enriched modules intersected with a candidate gene set.",
		}),
		modulesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_skipped_total",
			Help:      "Enriched modules that contributed nothing because an input was missing.",
		}, []string{"reason"}),
		replicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replicates_total",
			Help:      "Permutation replicates, by whether they were computed or read from a checkpoint.",
		}, []string{"state"}),
		thresholds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thresholds_evaluated_total",
			Help:      "Thresholds of a sweep ladder that were evaluated.",
		}),
	}

	c.Registry.MustRegister(c.modulesEvaluated, c.modulesSkipped, c.replicates, c.thresholds)

	return c
}

func (c *Collector) ModuleEvaluated() {
	if c == nil {
		return
	}
	c.modulesEvaluated.Inc()
}

// ModuleSkipped records a module that was absorbed as a localized gap.
// reason is "module_not_found" or "missing_artifact".
func (c *Collector) ModuleSkipped(reason string) {
	if c == nil {
		return
	}
	c.modulesSkipped.WithLabelValues(reason).Inc()
}

func (c *Collector) ReplicateDone(resumed bool) {
	if c == nil {
		return
	}
	state := "computed"
	if resumed {
		state = "resumed"
	}
	c.replicates.WithLabelValues(state).Inc()
}

func (c *Collector) ThresholdDone() {
	if c == nil {
		return
	}
	c.thresholds.Inc()
}

// WriteTextfile writes every counter to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.Registry); err != nil {
		return pfx.Err(err)
	}
	return nil
}
