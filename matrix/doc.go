// Package matrix provides the dense linear-algebra kernel used by the direct
// solver backends.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with error-returning accessors
//     (At/Set/Add never panic on bad indices) and an optional NaN/Inf policy.
//   - FactorLU, LU factorization with threshold partial pivoting, and
//     LU.Solve for repeated right-hand sides against one factorization.
//   - Central validators (ValidateSquareNonNil, ValidateVecLen) shared by
//     every kernel.
//
// Dense storage is O(n²); it is meant for the small gathered systems the
// dense backend factors, not for the distributed assembled operator (see
// package sparse).
//
// Errors are package sentinels (ErrSingular, ErrNonSquare, ...) wrapped
// with an operation tag; match them with errors.Is.
package matrix
