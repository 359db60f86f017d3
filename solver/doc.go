// Package solver runs direct solvers on a distributed system A·x = b
// through a staged protocol.
//
// A Registry maps backend names to implementations. Query reports whether
// a name can be used; Create binds a Session of that backend to a
// finalized sparse.Matrix and two vectors on its row map.
//
// Protocol
//
//	Created ──SymbolicFactorize──▶ SymbolicDone ──NumericFactorize──▶ NumericDone ──Solve──▶ Solved
//
// SymbolicFactorize may be called in any phase and restarts the protocol.
// NumericFactorize may be repeated after new values are written into A;
// Solve may be repeated with new right-hand side values. A new Finalize
// after ResumeFill changes the structure, and every later stage fails with
// ErrStaleSymbolic until the next SymbolicFactorize.
//
// Numerical breakdown is not an error. A singular operator moves the
// session to NumericDone as usual, and Solve reports StatusSingular (or
// StatusFactorizationFailed) without touching x.
//
// Backends
//
// dense-lu and sparse-lu gather the whole operator onto every rank and
// factor it redundantly; each rank then writes its owned part of x. The
// names of well-known external packages (umfpack, mumps, ...) are
// registered as unavailable.
//
// Parameters
//
// Recognised names: PrintTiming, PrintStatus (bool), AddToDiag (number
// added to the diagonal before numeric factorization), Refactorize (bool,
// accepted), PivotThreshold (number in [0,1] used by dense-lu), Reorder
// (bool, sparse-lu, on by default) and SingularTol (number >= 0; a pivot of
// at most this magnitude counts as zero, default 0). Unknown names are ignored and logged at debug level.
package solver
