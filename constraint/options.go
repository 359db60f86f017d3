// SPDX-License-Identifier: MIT

package constraint

import "github.com/katalvlaran/lvdist/telemetry"

// DefaultKeepSymmetric enables the column pass, which keeps a symmetric
// operator symmetric after elimination.
const DefaultKeepSymmetric = true

// Option configures Apply.
type Option func(*options)

type options struct {
	keepSymmetric bool
	logger        telemetry.Logger
}

// WithKeepSymmetric toggles the column pass. With false only constrained
// rows are rewritten and the constrained columns keep their coupling terms.
func WithKeepSymmetric(keep bool) Option {
	return func(o *options) { o.keepSymmetric = keep }
}

// WithLogger sets the logger for elimination summaries (debug level).
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func gatherOptions(user ...Option) options {
	o := options{keepSymmetric: DefaultKeepSymmetric, logger: telemetry.Nop()}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}

	return o
}
