// SPDX-License-Identifier: MIT

package solver

import "github.com/katalvlaran/lvdist/telemetry"

// Option configures a Registry; sessions created by it inherit the settings.
type Option func(*options)

type options struct {
	logger  telemetry.Logger
	metrics *telemetry.Metrics
}

// WithLogger sets the logger used by sessions (stage timings, status, ignored parameters).
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the collector for stage durations and solve outcomes.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func gatherOptions(user ...Option) options {
	o := options{logger: telemetry.Nop()}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}

	return o
}
