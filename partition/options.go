// SPDX-License-Identifier: MIT

package partition

import "github.com/katalvlaran/lvdist/telemetry"

// Option configures map and plan construction.
type Option func(*options)

type options struct {
	logger telemetry.Logger
}

// WithLogger sets the logger receiving construction summaries (debug level).
// A nil logger is ignored.
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
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
