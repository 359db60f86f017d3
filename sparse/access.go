// SPDX-License-Identifier: MIT

package sparse

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/comm"
)

const (
	opRow        = "Row"
	opAt         = "At"
	opSetEntry   = "SetEntry"
	opAddToEntry = "AddToEntry"
	opReplaceRow = "ReplaceRowValues"
)

// ownedRow returns the committed row of global id row.
func (a *Matrix) ownedRow(tag string, row int64) (*crsRow, error) {
	if a.state != Finalized {
		return nil, stateErr(tag, a.state, Finalized)
	}
	i, ok := a.rowMap.LocalIndexOf(row)
	if !ok {
		return nil, sparseErrorf(tag, fmt.Errorf("row %d on rank %d: %w", row, a.rowMap.Rank(), ErrNotOwned))
	}

	return &a.rows[i], nil
}

// find returns the position of col in r, or -1.
func (r *crsRow) find(col int64) int {
	if k, ok := slices.BinarySearch(r.cols, col); ok {
		return k
	}

	return -1
}

func (a *Matrix) checkFinite(tag string, row, col int64, v float64) error {
	if a.opts.validateNaNInf && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return sparseErrorf(tag, fmt.Errorf("(%d,%d): %w", row, col, ErrNaNInf))
	}

	return nil
}

// Row returns copies of the column ids (ascending) and values of an owned row.
// Errors: ErrNotReady before Finalize, ErrNotOwned for rows held elsewhere.
func (a *Matrix) Row(row int64) (cols []int64, vals []float64, err error) {
	r, err := a.ownedRow(opRow, row)
	if err != nil {
		return nil, nil, err
	}
	cols = make([]int64, len(r.cols))
	vals = make([]float64, len(r.vals))
	copy(cols, r.cols)
	copy(vals, r.vals)

	return cols, vals, nil
}

// At returns entry (row, col) of an owned row; structurally absent entries are 0.
func (a *Matrix) At(row, col int64) (float64, error) {
	r, err := a.ownedRow(opAt, row)
	if err != nil {
		return 0, err
	}
	if k := r.find(col); k >= 0 {
		return r.vals[k], nil
	}

	return 0, nil
}

// SetEntry overwrites an existing entry of an owned row.
// Errors: ErrNotReady, ErrNotOwned, ErrStructuralViolation, ErrNaNInf.
func (a *Matrix) SetEntry(row, col int64, v float64) error {
	return a.writeEntry(opSetEntry, row, col, v, false)
}

// AddToEntry adds v to an existing entry of an owned row.
// Errors: ErrNotReady, ErrNotOwned, ErrStructuralViolation, ErrNaNInf.
func (a *Matrix) AddToEntry(row, col int64, v float64) error {
	return a.writeEntry(opAddToEntry, row, col, v, true)
}

func (a *Matrix) writeEntry(tag string, row, col int64, v float64, add bool) error {
	r, err := a.ownedRow(tag, row)
	if err != nil {
		return err
	}
	if err = a.checkFinite(tag, row, col, v); err != nil {
		return err
	}
	k := r.find(col)
	if k < 0 {
		return sparseErrorf(tag, fmt.Errorf("(%d,%d): %w", row, col, ErrStructuralViolation))
	}
	if add {
		r.vals[k] += v
	} else {
		r.vals[k] = v
	}

	return nil
}

// ReplaceRowValues overwrites entries (row, cols[k]) with vals[k]. Either
// every entry is written or, on error, none is.
func (a *Matrix) ReplaceRowValues(row int64, cols []int64, vals []float64) error {
	r, err := a.ownedRow(opReplaceRow, row)
	if err != nil {
		return err
	}
	if len(cols) != len(vals) {
		return sparseErrorf(opReplaceRow, fmt.Errorf("%d cols, %d vals: %w", len(cols), len(vals), ErrDimensionMismatch))
	}
	pos := make([]int, len(cols))
	for k, col := range cols {
		if err = a.checkFinite(opReplaceRow, row, col, vals[k]); err != nil {
			return err
		}
		if pos[k] = r.find(col); pos[k] < 0 {
			return sparseErrorf(opReplaceRow, fmt.Errorf("(%d,%d): %w", row, col, ErrStructuralViolation))
		}
	}
	for k, p := range pos {
		r.vals[p] = vals[k]
	}

	return nil
}

// NumLocalRows returns the number of rows this rank owns.
func (a *Matrix) NumLocalRows() int { return a.rowMap.NumLocal() }

// NumGlobalRows returns the number of rows in the world.
func (a *Matrix) NumGlobalRows() int { return a.rowMap.NumGlobal() }

// NumLocalNonzeros returns the number of stored entries on this rank:
// committed entries once Finalized, staged entries (owned or not) before.
func (a *Matrix) NumLocalNonzeros() int {
	n := 0
	if a.state == Finalized {
		for i := range a.rows {
			n += len(a.rows[i].cols)
		}

		return n
	}
	for _, r := range a.staging {
		n += len(r)
	}

	return n
}

// NumGlobalNonzeros returns the committed entry count over all ranks.
// Collective; Finalized only (agreed).
func (a *Matrix) NumGlobalNonzeros(ctx context.Context) (int, error) {
	var local error
	if a.state != Finalized {
		local = wrongState(a.state, Finalized)
	}
	c := a.rowMap.Comm()
	if err := comm.Agree(ctx, c, local); err != nil {
		return 0, sparseErrorf("NumGlobalNonzeros", err)
	}

	return comm.AllReduceSum(ctx, c, a.NumLocalNonzeros())
}

// String renders this rank's rows as "row: (col, value) ..." lines once
// Finalized, or a one-line summary before.
func (a *Matrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matrix rank %d/%d state=%v rows=%d nnz=%d\n",
		a.rowMap.Rank(), a.rowMap.Size(), a.state, a.NumLocalRows(), a.NumLocalNonzeros())
	if a.state != Finalized {
		return b.String()
	}
	for i, id := range a.rowMap.GlobalIDs() {
		fmt.Fprintf(&b, "  %d:", id)
		for k, col := range a.rows[i].cols {
			fmt.Fprintf(&b, " (%d, %g)", col, a.rows[i].vals[k])
		}
		b.WriteByte('\n')
	}

	return b.String()
}
