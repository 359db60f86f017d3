// SPDX-License-Identifier: MIT

package femrun

import (
	"github.com/katalvlaran/lvdist/solver"
	"github.com/katalvlaran/lvdist/telemetry"
)

// Option configures Run.
type Option func(*options)

type options struct {
	logger   telemetry.Logger
	metrics  *telemetry.Metrics
	registry *solver.Registry
}

// WithLogger sets the logger handed to every stage of the run.
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the collector shared by the communicator, the matrix
// and the solver session.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegistry resolves the backend in r instead of a fresh built-in
// registry.
func WithRegistry(r *solver.Registry) Option {
	return func(o *options) { o.registry = r }
}

func gatherOptions(user ...Option) options {
	o := options{logger: telemetry.Nop()}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}
	if o.registry == nil {
		o.registry = solver.NewBuiltinRegistry(solver.WithLogger(o.logger), solver.WithMetrics(o.metrics))
	}

	return o
}
