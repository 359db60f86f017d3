// SPDX-License-Identifier: MIT

package partition

import "fmt"

// Kind selects whether a map partitions its ids or allows replication.
type Kind int

const (
	// Owned maps assign every global id to exactly one rank.
	Owned Kind = iota
	// Overlapping maps let several ranks hold the same id (ghost copies);
	// the lowest holder rank is the owner.
	Overlapping
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Owned:
		return "Owned"
	case Overlapping:
		return "Overlapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) valid() bool { return k == Owned || k == Overlapping }

// CombineMode tells a redistribution how incoming values meet the
// destination.
type CombineMode int

const (
	// Insert overwrites the destination with the owner's copy.
	Insert CombineMode = iota
	// Add sums every holder's contribution into the destination value.
	Add
)

// String implements fmt.Stringer.
func (m CombineMode) String() string {
	switch m {
	case Insert:
		return "Insert"
	case Add:
		return "Add"
	default:
		return fmt.Sprintf("CombineMode(%d)", int(m))
	}
}

func (m CombineMode) valid() bool { return m == Insert || m == Add }
