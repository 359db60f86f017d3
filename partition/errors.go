// SPDX-License-Identifier: MIT
// Package partition: sentinel error set.
// Every message is prefixed with "partition: ..."; context is added with
// fmt.Errorf("<Op>: %w", ErrX) and callers match with errors.Is.
// Errors detected inside a collective are agreed across ranks, so every rank
// fails together (non-failing ranks see comm.ErrRemoteFailure).

package partition

import "errors"

var (
	// ErrInvalidMap indicates a malformed map declaration: duplicate ids on
	// one rank, an id held by two ranks of an Owned map, a negative id, an
	// unknown kind, or ranks disagreeing on the kind.
	ErrInvalidMap = errors.New("partition: invalid map")

	// ErrUnmappedEntry indicates a global id that no rank of the relevant
	// map holds.
	ErrUnmappedEntry = errors.New("partition: global id not present in map")

	// ErrNotOwned indicates local access to a global id this rank does not hold.
	ErrNotOwned = errors.New("partition: global id not held by this rank")

	// ErrDimensionMismatch indicates a value slice whose length differs from
	// the local size of the map it is laid out on.
	ErrDimensionMismatch = errors.New("partition: length does not match map")

	// ErrMapMismatch indicates operands distributed on incompatible maps.
	ErrMapMismatch = errors.New("partition: incompatible maps")

	// ErrInvalidMode indicates an unknown CombineMode.
	ErrInvalidMode = errors.New("partition: unknown combine mode")
)
