// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for factorization kernels and
// numeric policy. This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal) that enforces invariants.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each flag impacts behavior and is covered by tests.
//   - Safe by construction: panic only on invalid parameters (programmer error).
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidateNaNInf toggles strict finite-value validation on Set/Add.
	DefaultValidateNaNInf = true

	// DefaultPivotThreshold is the threshold-pivoting factor τ in [0,1].
	// Row k keeps its diagonal pivot when |a_kk| ≥ τ·max_i |a_ik|; τ=1 is
	// classic partial pivoting, τ=0 never swaps rows (Doolittle order).
	DefaultPivotThreshold = 1.0

	// DefaultSingularTol: a pivot with |p| ≤ tol is treated as zero.
	DefaultSingularTol = 0.0
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicPivotThresholdInvalid = "matrix: WithPivotThreshold: threshold must be finite and within [0,1]"
	panicSingularTolInvalid    = "matrix: WithSingularTol: tol must be finite, non-negative"
)

// Option mutates internal options. Safe to apply repeatedly (idempotent).
type Option func(*Options)

// Options holds the resolved configuration. Fields are unexported; public
// APIs consume ...Option.
type Options struct {
	pivotThreshold float64
	singularTol    float64
}

// WithPivotThreshold sets the threshold-pivoting factor τ (see DefaultPivotThreshold).
// Panics if τ is NaN/Inf or outside [0,1].
func WithPivotThreshold(tau float64) Option {
	if math.IsNaN(tau) || math.IsInf(tau, 0) || tau < 0 || tau > 1 {
		panic(panicPivotThresholdInvalid)
	}

	return func(o *Options) { o.pivotThreshold = tau }
}

// WithSingularTol sets the absolute pivot magnitude at or below which the
// factorization reports ErrSingular. Panics on negative or non-finite tol.
func WithSingularTol(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(panicSingularTolInvalid)
	}

	return func(o *Options) { o.singularTol = tol }
}

// gatherOptions applies user options over defaults; last-writer-wins.
func gatherOptions(user ...Option) Options {
	o := Options{
		pivotThreshold: DefaultPivotThreshold,
		singularTol:    DefaultSingularTol,
	}
	for _, set := range user {
		if set != nil {
			set(&o)
		}
	}

	return o
}
