// SPDX-License-Identifier: MIT

package sparse

import "github.com/katalvlaran/lvdist/telemetry"

// DefaultValidateNaNInf toggles finite-only checks on every value written.
const DefaultValidateNaNInf = true

// Option configures a Matrix.
type Option func(*options)

type options struct {
	logger         telemetry.Logger
	metrics        *telemetry.Metrics
	validateNaNInf bool
}

// WithLogger sets the logger for assembly progress (debug level).
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the collector counting entries shipped by Reduce.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithNoValidateNaNInf disables the finite-only check on written values.
func WithNoValidateNaNInf() Option {
	return func(o *options) { o.validateNaNInf = false }
}

func gatherOptions(user ...Option) options {
	o := options{
		logger:         telemetry.Nop(),
		validateNaNInf: DefaultValidateNaNInf,
	}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}

	return o
}
