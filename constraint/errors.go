// SPDX-License-Identifier: MIT

package constraint

import "errors"

var (
	// ErrConflictingConstraint indicates one DOF constrained to two different values.
	ErrConflictingConstraint = errors.New("constraint: conflicting values for one dof")

	// ErrInvalidConstraint indicates a negative DOF or a non-finite value.
	ErrInvalidConstraint = errors.New("constraint: invalid constraint")
)
