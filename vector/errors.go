// SPDX-License-Identifier: MIT

package vector

import "github.com/katalvlaran/lvdist/partition"

// The vector package reports layout errors with the partition sentinels so
// callers can match either name with errors.Is.
var (
	// ErrNotOwned indicates local access to an id this rank does not hold.
	ErrNotOwned = partition.ErrNotOwned

	// ErrMapMismatch indicates operands laid out on different maps.
	ErrMapMismatch = partition.ErrMapMismatch

	// ErrDimensionMismatch indicates a value slice of the wrong length.
	ErrDimensionMismatch = partition.ErrDimensionMismatch
)
