// SPDX-License-Identifier: MIT

package sparse

import "fmt"

// State is the assembly lifecycle of a Matrix. Transitions only move
// forward (Open → Assembled → Finalized), except ResumeFill which reopens a
// finalized matrix.
type State int

const (
	// Open accepts contributions to any row, owned or not.
	Open State = iota
	// Assembled holds every contribution at its owning rank.
	Assembled
	// Finalized has a frozen, sorted sparsity pattern and allows numeric access.
	Finalized
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Open:
		return "Open"
	case Assembled:
		return "Assembled"
	case Finalized:
		return "Finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// entry is one (row, col, value) triple shipped by Reduce.
type entry struct {
	Row int64
	Col int64
	Val float64
}

// crsRow is one committed row: cols ascending, vals aligned.
type crsRow struct {
	cols []int64
	vals []float64
}
