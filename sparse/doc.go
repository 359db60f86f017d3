// Package sparse implements the distributed assembled matrix: the finite
// element stiffness operator built from element contributions spread over
// ranks.
//
// Lifecycle
//
//	Open ──Reduce──▶ Assembled ──Finalize──▶ Finalized
//	  ▲                                          │
//	  └───────────────ResumeFill─────────────────┘
//
// In Open state any rank may Contribute to any global row; entries for the
// same (row, col) are summed. Reduce is the collective that moves rows a
// rank does not own to their owner and sums them there. Finalize freezes
// each owned row into ascending-column compressed storage. Numeric access
// (Row, At, SetEntry, AddToEntry, ReplaceRowValues, Multiply) requires
// Finalized and fails with ErrNotReady before; writes may only touch
// entries present in the pattern (ErrStructuralViolation otherwise).
//
// Every Finalize produces a new StructureVersion. Solvers record the
// version at symbolic analysis time and refuse stale analyses.
//
// Reduce, Finalize, Multiply, ColumnMap and NumGlobalNonzeros are
// collectives; the rest are local.
package sparse
