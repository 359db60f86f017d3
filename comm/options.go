// SPDX-License-Identifier: MIT

package comm

import "github.com/katalvlaran/lvdist/telemetry"

// DefaultLinkBuffer is the capacity of each directed rank-to-rank link.
// One slot is enough for correctness; a few more let fast ranks run ahead.
const DefaultLinkBuffer = 4

const panicLinkBufferInvalid = "comm: WithLinkBuffer: buffer must be >= 1"

// Option configures a World.
type Option func(*options)

type options struct {
	logger     telemetry.Logger
	metrics    *telemetry.Metrics
	linkBuffer int
}

// WithLogger sets the logger used for world lifecycle records.
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the collector receiving per-collective observations.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLinkBuffer sets the per-link channel capacity. Panics if n < 1.
func WithLinkBuffer(n int) Option {
	if n < 1 {
		panic(panicLinkBufferInvalid)
	}

	return func(o *options) { o.linkBuffer = n }
}

func gatherOptions(user ...Option) options {
	o := options{
		logger:     telemetry.Nop(),
		linkBuffer: DefaultLinkBuffer,
	}
	for _, opt := range user {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
