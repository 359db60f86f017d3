// SPDX-License-Identifier: MIT

package constraint

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/vector"
)

const (
	opApply = "constraint.Apply"
	opMerge = "constraint.Merge"
)

func constraintErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Constraint fixes global DOF to Value (a Dirichlet condition).
type Constraint struct {
	DOF   int64
	Value float64
}

// Merge returns cs sorted by DOF with exact duplicates removed.
// Errors: ErrConflictingConstraint if a DOF carries two values,
// ErrInvalidConstraint for a negative DOF or a non-finite value.
func Merge(cs ...Constraint) ([]Constraint, error) {
	out := slices.Clone(cs)
	slices.SortStableFunc(out, func(a, b Constraint) int {
		switch {
		case a.DOF < b.DOF:
			return -1
		case a.DOF > b.DOF:
			return 1
		default:
			return 0
		}
	})
	merged := out[:0]
	for _, c := range out {
		if c.DOF < 0 || math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			return nil, constraintErrorf(opMerge, fmt.Errorf("dof %d value %g: %w", c.DOF, c.Value, ErrInvalidConstraint))
		}
		if n := len(merged); n > 0 && merged[n-1].DOF == c.DOF {
			if merged[n-1].Value != c.Value {
				return nil, constraintErrorf(opMerge, fmt.Errorf("dof %d: %g vs %g: %w",
					c.DOF, merged[n-1].Value, c.Value, ErrConflictingConstraint))
			}
			continue
		}
		merged = append(merged, c)
	}

	return merged, nil
}

// Apply eliminates Dirichlet constraints from the system A·x = rhs in place.
// Collective: every rank passes the constraints it knows about; the union
// is applied everywhere, so a constraint may be declared on any rank.
//
// For each constraint (dof, value):
//   - Column pass (skipped with WithKeepSymmetric(false)): every owned row
//     r that is not itself constrained and stores a non-zero A[r,dof] gets
//     rhs[r] -= A[r,dof]·value and A[r,dof] = 0. Rows without the entry are
//     skipped.
//   - Row pass, on the owner of dof: x[dof] = value, rhs[dof] = value, the
//     row is zeroed and its diagonal set to 1.
//
// The column pass reads only unconstrained rows and the row pass writes
// only constrained rows, so the result does not depend on constraint order.
// Applying the same constraints twice leaves the system unchanged.
//
// Errors (agreed across ranks):
//   - sparse.ErrNotReady if A is not Finalized.
//   - partition.ErrMapMismatch if rhs or x is not on A's row map.
//   - ErrConflictingConstraint, ErrInvalidConstraint (see Merge).
//   - partition.ErrUnmappedEntry for a DOF outside the row map.
//   - sparse.ErrStructuralViolation if a constrained row stores no diagonal.
func Apply(ctx context.Context, a *sparse.Matrix, rhs, x *vector.Vector, cs []Constraint, opts ...Option) error {
	o := gatherOptions(opts...)
	rowMap := a.RowMap()
	c := rowMap.Comm()

	// Stage 1: local argument checks.
	var local error
	switch {
	case a.State() != sparse.Finalized:
		local = fmt.Errorf("matrix is %v: %w", a.State(), sparse.ErrNotReady)
	case !rhs.Map().SameAs(rowMap) || !x.Map().SameAs(rowMap):
		local = fmt.Errorf("rhs and x must be on the row map: %w", partition.ErrMapMismatch)
	}
	if err := comm.Agree(ctx, c, local); err != nil {
		return constraintErrorf(opApply, err)
	}

	// Stage 2: every rank sees every constraint. Validation runs on
	// identical data everywhere, so no agreement round is needed.
	all, err := comm.AllGatherOf(ctx, c, slices.Clone(cs))
	if err != nil {
		return constraintErrorf(opApply, err)
	}
	var union []Constraint
	for _, part := range all {
		union = append(union, part...)
	}
	merged, err := Merge(union...)
	if err != nil {
		return constraintErrorf(opApply, err)
	}
	fixed := make(map[int64]float64, len(merged))
	for _, k := range merged {
		if !rowMap.Contains(k.DOF) {
			return constraintErrorf(opApply, fmt.Errorf("dof %d: %w", k.DOF, partition.ErrUnmappedEntry))
		}
		fixed[k.DOF] = k.Value
	}

	// Stage 3: every owned constrained row must store its diagonal. Agreed
	// before any write so a failed Apply leaves A and rhs untouched.
	if err = comm.Agree(ctx, c, checkDiagonals(a, fixed)); err != nil {
		return constraintErrorf(opApply, err)
	}

	// Stage 4: local elimination, then agree on the outcome.
	local = eliminate(ctx, a, rhs, x, fixed, &o)
	if err = comm.Agree(ctx, c, local); err != nil {
		return constraintErrorf(opApply, err)
	}
	o.logger.DebugCtx(ctx, "constraints applied", "count", len(merged), "keep_symmetric", o.keepSymmetric)

	return nil
}

// checkDiagonals reports the first owned constrained row without a stored
// diagonal entry.
func checkDiagonals(a *sparse.Matrix, fixed map[int64]float64) error {
	for _, row := range a.RowMap().GlobalIDs() {
		if _, isFixed := fixed[row]; !isFixed {
			continue
		}
		cols, _, err := a.Row(row)
		if err != nil {
			return err
		}
		if _, ok := slices.BinarySearch(cols, row); !ok {
			return fmt.Errorf("row %d has no diagonal entry: %w", row, sparse.ErrStructuralViolation)
		}
	}

	return nil
}

func eliminate(ctx context.Context, a *sparse.Matrix, rhs, x *vector.Vector, fixed map[int64]float64, o *options) error {
	ids := a.RowMap().GlobalIDs()
	skipped := 0

	// Column pass over unconstrained rows.
	if o.keepSymmetric && len(fixed) > 0 {
		for _, row := range ids {
			if _, isFixed := fixed[row]; isFixed {
				continue
			}
			cols, vals, err := a.Row(row)
			if err != nil {
				return err
			}
			var zcols []int64
			shift := 0.0
			for k, col := range cols {
				value, isFixed := fixed[col]
				if !isFixed || vals[k] == 0 {
					continue
				}
				shift += vals[k] * value
				zcols = append(zcols, col)
			}
			if len(zcols) == 0 {
				skipped++
				continue
			}
			if err = a.ReplaceRowValues(row, zcols, make([]float64, len(zcols))); err != nil {
				return err
			}
			if err = rhs.SumInto(row, -shift); err != nil {
				return err
			}
		}
	}

	// Row pass over the constrained rows this rank owns.
	for _, row := range ids {
		value, isFixed := fixed[row]
		if !isFixed {
			continue
		}
		cols, _, err := a.Row(row)
		if err != nil {
			return err
		}
		vals := make([]float64, len(cols))
		diag, _ := slices.BinarySearch(cols, row)
		vals[diag] = 1
		if err = a.ReplaceRowValues(row, cols, vals); err != nil {
			return err
		}
		if err = rhs.Set(row, value); err != nil {
			return err
		}
		if err = x.Set(row, value); err != nil {
			return err
		}
	}
	o.logger.DebugCtx(ctx, "constraint column pass", "rows_without_constrained_entries", skipped)

	return nil
}
