// SPDX-License-Identifier: MIT

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric naming.
const (
	metricsNamespace = "lvdist"

	subsystemComm   = "comm"
	subsystemSparse = "sparse"
	subsystemSolver = "solver"
)

// Metrics groups the prometheus collectors shared by the lvdist packages.
// All methods are safe on a nil *Metrics and then do nothing, so packages
// can hold an optional pointer without guarding every call site.
type Metrics struct {
	registry prometheus.Gatherer

	collectives     *prometheus.CounterVec
	collectiveItems *prometheus.HistogramVec
	remoteEntries   prometheus.Counter
	stageSeconds    *prometheus.HistogramVec
	solveStatus     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg gets a private registry, reachable through Gatherer.
// Registration errors (duplicate collectors) are returned unchanged.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	var gatherer prometheus.Gatherer
	if reg == nil {
		private := prometheus.NewRegistry()
		reg, gatherer = private, private
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		registry: gatherer,
		collectives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemComm,
			Name:      "collectives_total",
			Help:      "Collective operations completed, per rank call.",
		}, []string{"op"}),
		collectiveItems: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemComm,
			Name:      "collective_items",
			Help:      "Peer payloads exchanged per collective call.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"op"}),
		remoteEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemSparse,
			Name:      "reduce_remote_entries_total",
			Help:      "Staged matrix entries shipped to their owning rank during Reduce.",
		}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemSolver,
			Name:      "stage_seconds",
			Help:      "Duration of solver stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "stage"}),
		solveStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemSolver,
			Name:      "solve_status_total",
			Help:      "Solve results by backend and status.",
		}, []string{"backend", "status"}),
	}

	for _, c := range []prometheus.Collector{
		m.collectives, m.collectiveItems, m.remoteEntries, m.stageSeconds, m.solveStatus,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Gatherer returns the registry the collectors were registered on, if it
// can be gathered from.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}

	return m.registry
}

// ObserveCollective records one completed collective and its peer count.
func (m *Metrics) ObserveCollective(op string, items int) {
	if m == nil {
		return
	}
	m.collectives.WithLabelValues(op).Inc()
	m.collectiveItems.WithLabelValues(op).Observe(float64(items))
}

// AddRemoteEntries counts matrix entries sent to another rank.
func (m *Metrics) AddRemoteEntries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.remoteEntries.Add(float64(n))
}

// ObserveStage records how long a solver stage took.
func (m *Metrics) ObserveStage(backend, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageSeconds.WithLabelValues(backend, stage).Observe(d.Seconds())
}

// CountStatus records the status returned by a solve.
func (m *Metrics) CountStatus(backend, status string) {
	if m == nil {
		return
	}
	m.solveStatus.WithLabelValues(backend, status).Inc()
}
