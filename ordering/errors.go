// SPDX-License-Identifier: MIT

package ordering

import "errors"

var (
	// ErrIndexOutOfRange is returned when a pattern or a start vertex names
	// an index outside [0, n).
	ErrIndexOutOfRange = errors.New("ordering: index out of range")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("ordering: invalid option supplied")

	// ErrNotPermutation is returned when a slice is not a permutation of 0..n-1.
	ErrNotPermutation = errors.New("ordering: not a permutation")
)
