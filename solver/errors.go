// SPDX-License-Identifier: MIT
// Package solver: sentinel error set.
// Protocol errors (wrong backend, wrong phase, stale analysis, bad
// parameters) are returned as errors. Numerical breakdown is not: a
// singular operator is reported through Status by Session.Solve.

package solver

import (
	"errors"

	"github.com/katalvlaran/lvdist/matrix"
)

var (
	// ErrUnsupportedBackend indicates a backend name that is not registered
	// or not available in this build.
	ErrUnsupportedBackend = errors.New("solver: unsupported backend")

	// ErrInvalidPhase indicates a stage called before its prerequisite.
	ErrInvalidPhase = errors.New("solver: invalid phase")

	// ErrStaleSymbolic indicates that the matrix structure changed since the
	// symbolic analysis.
	ErrStaleSymbolic = errors.New("solver: symbolic analysis is stale")

	// ErrInvalidParameter indicates a parameter of the wrong type or range.
	ErrInvalidParameter = errors.New("solver: invalid parameter")

	// ErrDuplicateBackend indicates a second registration under one name.
	ErrDuplicateBackend = errors.New("solver: backend already registered")

	// ErrFactorizationFailed is returned by a Factorizer's Numeric stage when
	// elimination breaks down for a reason other than a zero pivot.
	ErrFactorizationFailed = errors.New("solver: numeric factorization failed")

	// ErrSingular is returned by a Factorizer's Numeric stage on a zero pivot.
	ErrSingular = matrix.ErrSingular
)
