// SPDX-License-Identifier: MIT
// Package sparse: sentinel error set.
// Every message is prefixed with "sparse: ..."; layout errors reuse the
// partition sentinels so one errors.Is check works across packages.

package sparse

import (
	"errors"

	"github.com/katalvlaran/lvdist/partition"
)

var (
	// ErrNotReady indicates an operation attempted in the wrong assembly
	// state (numeric access before Finalize, Reduce twice, ...).
	ErrNotReady = errors.New("sparse: matrix not in the required state")

	// ErrStructuralViolation indicates a write to an entry that is not part
	// of the finalized sparsity pattern.
	ErrStructuralViolation = errors.New("sparse: entry not in sparsity pattern")

	// ErrInvalidHint indicates a negative nonzeros-per-row hint.
	ErrInvalidHint = errors.New("sparse: nonzeros-per-row hint must be >= 0")

	// ErrNaNInf indicates a NaN or ±Inf value under the finite-only policy.
	ErrNaNInf = errors.New("sparse: NaN or Inf encountered")

	// ErrDimensionMismatch indicates column and value slices of different lengths.
	ErrDimensionMismatch = errors.New("sparse: dimension mismatch")
)

// Layout errors shared with package partition.
var (
	ErrInvalidMap    = partition.ErrInvalidMap
	ErrUnmappedEntry = partition.ErrUnmappedEntry
	ErrNotOwned      = partition.ErrNotOwned
	ErrMapMismatch   = partition.ErrMapMismatch
)
