// SPDX-License-Identifier: MIT

// Package matrix - LU factorization with threshold partial pivoting.
//
// Purpose:
//   - Factor a square matrix once (P·A = L·U) and solve many right-hand
//     sides against the stored factors; this is the numeric kernel behind
//     the dense direct-solver backend.
//
// Determinism & Performance:
//   - Fixed loop orders (k → i → j); ties in pivot search keep the lowest row.
//   - Fast path on *Dense operates on the flat buffer; other Matrix values are
//     copied into a Dense first.

package matrix

import (
	"fmt"
	"math"
)

// ZeroSum is the initial sum value for forward/backward substitution.
const ZeroSum = 0.0

// Operation tags for uniform error wrapping.
const (
	opLU      = "LU"
	opLUSolve = "LU.Solve"
)

// matrixErrorf wraps err with an operation tag, preserving the sentinel via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// LU holds the packed factors of P·A = L·U.
// The strict lower triangle of lu stores L (unit diagonal implied), the
// upper triangle stores U; perm[i] is the original row placed at row i.
type LU struct {
	n    int
	lu   *Dense
	perm []int
}

// FactorLU computes the LU factorization of a square matrix with threshold
// partial pivoting.
// MAIN DESCRIPTION:
//   - Right-looking Doolittle elimination on a private copy of m; m is not mutated.
//
// Implementation:
//   - Stage 1: validate non-nil, square; copy into a working Dense.
//   - Stage 2: for each column k pick the pivot row (threshold rule), swap,
//     scale the sub-column and update the trailing sub-matrix.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare (validation).
//   - ErrSingular when |pivot| ≤ singular tolerance.
//
// Complexity:
//   - Time O(n³), Space O(n²).
func FactorLU(m Matrix, opts ...Option) (*LU, error) {
	if err := ValidateSquareNonNil(m); err != nil {
		return nil, matrixErrorf(opLU, err)
	}
	o := gatherOptions(opts...)

	// Stage 1: private working copy (fast path clones the flat buffer).
	n := m.Rows()
	var work *Dense
	if d, ok := m.(*Dense); ok {
		work = d.Clone().(*Dense)
	} else {
		var err error
		if work, err = NewDense(n, n); err != nil {
			return nil, matrixErrorf(opLU, err)
		}
		var i, j int // loop iterators
		var v float64
		for i = 0; i < n; i++ {
			for j = 0; j < n; j++ {
				if v, err = m.At(i, j); err != nil {
					return nil, matrixErrorf(opLU, err)
				}
				work.data[i*n+j] = v
			}
		}
	}

	f := &LU{n: n, lu: work, perm: make([]int, n)}
	for i := range f.perm {
		f.perm[i] = i
	}

	// Stage 2: elimination.
	a := work.data
	var (
		i, j, k, p   int     // loop iterators and pivot row
		best, absVal float64 // pivot search magnitudes
		pivot, l     float64 // pivot value and multiplier
		rowK, rowI   int     // row offsets
	)
	for k = 0; k < n; k++ {
		// Pivot search over rows k..n-1 in column k.
		p, best = k, 0
		for i = k; i < n; i++ {
			if absVal = math.Abs(a[i*n+k]); absVal > best {
				p, best = i, absVal
			}
		}
		// Threshold rule: keep the diagonal if it is large enough.
		if math.Abs(a[k*n+k]) >= o.pivotThreshold*best {
			p = k
		}
		if math.Abs(a[p*n+k]) <= o.singularTol {
			return nil, matrixErrorf(opLU, fmt.Errorf("column %d: %w", k, ErrSingular))
		}
		if p != k {
			swapRows(a, n, p, k)
			f.perm[p], f.perm[k] = f.perm[k], f.perm[p]
		}

		rowK = k * n
		pivot = a[rowK+k]
		for i = k + 1; i < n; i++ {
			rowI = i * n
			if a[rowI+k] == 0 {
				continue // nothing to eliminate; keeps sparse inputs cheap
			}
			l = a[rowI+k] / pivot
			a[rowI+k] = l
			for j = k + 1; j < n; j++ {
				a[rowI+j] -= l * a[rowK+j]
			}
		}
	}

	return f, nil
}

func swapRows(a []float64, n, r1, r2 int) {
	var j int
	o1, o2 := r1*n, r2*n
	for j = 0; j < n; j++ {
		a[o1+j], a[o2+j] = a[o2+j], a[o1+j]
	}
}

// Order returns n for an n×n factorization.
func (f *LU) Order() int { return f.n }

// Solve returns x with A·x = b. b is not modified.
// Errors: ErrDimensionMismatch if len(b) != Order().
// Complexity: O(n²).
func (f *LU) Solve(b []float64) ([]float64, error) {
	x := make([]float64, f.n)
	if err := f.SolveInto(x, b); err != nil {
		return nil, err
	}

	return x, nil
}

// SolveInto writes the solution of A·x = b into dst.
// dst and b may alias.
func (f *LU) SolveInto(dst, b []float64) error {
	if err := ValidateVecLen(b, f.n); err != nil {
		return matrixErrorf(opLUSolve, err)
	}
	if err := ValidateVecLen(dst, f.n); err != nil {
		return matrixErrorf(opLUSolve, err)
	}
	n, a := f.n, f.lu.data

	// y = P·b
	y := make([]float64, n)
	var i, j int
	for i = 0; i < n; i++ {
		y[i] = b[f.perm[i]]
	}
	// Forward substitution with unit-diagonal L.
	var sum float64
	for i = 0; i < n; i++ {
		sum = ZeroSum
		for j = 0; j < i; j++ {
			sum += a[i*n+j] * y[j]
		}
		y[i] -= sum
	}
	// Backward substitution with U.
	for i = n - 1; i >= 0; i-- {
		sum = ZeroSum
		for j = i + 1; j < n; j++ {
			sum += a[i*n+j] * y[j]
		}
		y[i] = (y[i] - sum) / a[i*n+i]
	}
	copy(dst, y)

	return nil
}
