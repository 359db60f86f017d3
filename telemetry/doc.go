// SPDX-License-Identifier: MIT

// Package telemetry holds the ambient logging and metrics plumbing shared by
// the lvdist packages.
//
// Logging goes through the small Logger interface backed by log/slog; every
// package defaults to Nop() and accepts a WithLogger option. The World
// communicator stamps each rank's context with a "rank" attribute through
// WithDefaultArgs, so *Ctx calls identify the emitting rank.
//
// Metrics are prometheus collectors grouped in *Metrics. A nil *Metrics is
// valid and records nothing.
package telemetry
